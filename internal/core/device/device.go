// Package device 设备与管道领域
package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// FindDevices 分页查询设备列表
func (c Core) FindDevices(ctx context.Context, in *FindDeviceInput) ([]*Device, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")
	if in.Name != "" {
		query.Where("name LIKE ?", "%"+in.Name+"%")
	}
	if in.IsOnline != nil {
		query.Where("is_online = ?", *in.IsOnline)
	}

	items := make([]*Device, 0, in.Limit())
	total, err := c.store.Device().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetDevice Query a single object
func (c Core) GetDevice(ctx context.Context, id string) (*Device, error) {
	out := Device{ID: id}
	if err := c.store.Device().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddDevice Insert into database
func (c Core) AddDevice(ctx context.Context, in *AddDeviceInput) (*Device, error) {
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, reason.ErrBadRequest.Withf("unknown timezone[%s]", in.Timezone)
		}
	}

	var out Device
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = uuid.NewString()
	out.Transport = "tcp"

	if err := c.store.Device().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// EditDevice Update object information
func (c Core) EditDevice(ctx context.Context, in *EditDeviceInput, id string) (*Device, error) {
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, reason.ErrBadRequest.Withf("unknown timezone[%s]", in.Timezone)
		}
	}

	var out Device
	if err := c.store.Device().Edit(ctx, &out, func(b *Device) {
		if err := copier.Copy(b, in); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
	}, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Edit id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// EditDeviceStatus 更新设备在线状态，心跳协程使用
func (c Core) EditDeviceStatus(ctx context.Context, id string, isOnline bool) error {
	var out Device
	if err := c.store.Device().Edit(ctx, &out, func(b *Device) {
		b.IsOnline = isOnline
		if isOnline {
			b.KeepaliveAt = orm.Now()
		}
	}, orm.Where("id=?", id)); err != nil {
		return reason.ErrDB.Withf(`EditStatus id[%v] err[%s]`, id, err.Error())
	}
	return nil
}

// DelDevice Delete object along with its pipelines
func (c Core) DelDevice(ctx context.Context, id string) (*Device, error) {
	var out Device
	if err := c.store.Device().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	var p Pipeline
	if err := c.store.Pipeline().Del(ctx, &p, orm.Where("device_id=?", id)); err != nil {
		slog.WarnContext(ctx, "del pipelines", "err", err, "device_id", id)
	}
	return &out, nil
}

// Location 设备的展示时区，未配置或无效时跟随系统
func (c Core) Location(ctx context.Context, id string) *time.Location {
	dev, err := c.GetDevice(ctx, id)
	if err != nil || dev.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(dev.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FindPipelines 查询管道列表，按创建时间升序保证默认选择稳定
func (c Core) FindPipelines(ctx context.Context, in *FindPipelineInput) ([]*Pipeline, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at ASC")
	if in.DeviceID != "" {
		query.Where("device_id = ?", in.DeviceID)
	}

	items := make([]*Pipeline, 0, in.Limit())
	total, err := c.store.Pipeline().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetPipeline Query a single object
func (c Core) GetPipeline(ctx context.Context, id string) (*Pipeline, error) {
	out := Pipeline{ID: id}
	if err := c.store.Pipeline().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// GetPipelineByStream 按流媒体标识反查管道，回调入库使用
func (c Core) GetPipelineByStream(ctx context.Context, app, stream string) (*Pipeline, error) {
	var out Pipeline
	if err := c.store.Pipeline().Get(ctx, &out, orm.Where("app=? AND stream=?", app, stream)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get app[%s] stream[%s] err[%s]`, app, stream, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get app[%s] stream[%s] err[%s]`, app, stream, err.Error())
	}
	return &out, nil
}

// AddPipeline Insert into database
func (c Core) AddPipeline(ctx context.Context, in *AddPipelineInput) (*Pipeline, error) {
	if _, err := c.GetDevice(ctx, in.DeviceID); err != nil {
		return nil, err
	}

	var out Pipeline
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = uuid.NewString()
	out.Enabled = true
	if out.App == "" {
		out.App = "live"
	}
	switch out.Mode {
	case PipelineModeVideo, PipelineModeImage, PipelineModeBoth:
	default:
		out.Mode = PipelineModeBoth
	}

	if err := c.store.Pipeline().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// DelPipeline Delete object
func (c Core) DelPipeline(ctx context.Context, id string) (*Pipeline, error) {
	var out Pipeline
	if err := c.store.Pipeline().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
