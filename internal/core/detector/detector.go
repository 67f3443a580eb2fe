// Package detector 检测分析领域
package detector

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// FindDetectors 查询检测器列表，按名称升序保证默认选择稳定
func (c Core) FindDetectors(ctx context.Context, in *FindDetectorInput) ([]*Detector, int64, error) {
	query := orm.NewQuery(3).OrderBy("name ASC")
	if in.DeviceID != "" {
		query.Where("device_id = ?", in.DeviceID)
	}
	if in.PipelineID != "" {
		query.Where("pipeline_id = ?", in.PipelineID)
	}
	if in.Kind != "" {
		query.Where("kind = ?", in.Kind)
	}

	items := make([]*Detector, 0, in.Limit())
	total, err := c.store.Detector().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetDetector Query a single object
func (c Core) GetDetector(ctx context.Context, id string) (*Detector, error) {
	out := Detector{ID: id}
	if err := c.store.Detector().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddDetector Insert into database
func (c Core) AddDetector(ctx context.Context, in *AddDetectorInput) (*Detector, error) {
	if in.Name == NameNone {
		return nil, reason.ErrBadRequest.Withf("name %q is reserved", NameNone)
	}

	var out Detector
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = uuid.NewString()
	out.Enabled = true

	if err := c.store.Detector().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// DelDetector Delete object along with its annotations
func (c Core) DelDetector(ctx context.Context, id string) (*Detector, error) {
	var out Detector
	if err := c.store.Detector().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	var a Annotation
	if err := c.store.Annotation().Del(ctx, &a, orm.Where("detector_id=?", id)); err != nil {
		slog.WarnContext(ctx, "del annotations", "err", err, "detector_id", id)
	}
	return &out, nil
}

// FindAnnotations 查询单元上指定检测器的标注
func (c Core) FindAnnotations(ctx context.Context, in *FindAnnotationInput) ([]*Annotation, int64, error) {
	query := orm.NewQuery(2).OrderBy("at ASC")
	if in.UnitID > 0 {
		query.Where("unit_id = ?", in.UnitID)
	}
	if in.DetectorID != "" && in.DetectorID != NameNone {
		query.Where("detector_id = ?", in.DetectorID)
	}

	items := make([]*Annotation, 0, in.Limit())
	total, err := c.store.Annotation().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// AddAnnotations 批量写入检测结果，AI 回调入库
func (c Core) AddAnnotations(ctx context.Context, ins []AddAnnotationInput) error {
	if len(ins) == 0 {
		return nil
	}

	items := make([]*Annotation, 0, len(ins))
	for i := range ins {
		var out Annotation
		if err := copier.Copy(&out, &ins[i]); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
		items = append(items, &out)
	}

	err := c.store.Annotation().Session(ctx, func(tx *gorm.DB) error {
		return tx.Create(items).Error
	})
	if err != nil {
		return reason.ErrDB.Withf(`AddAnnotations err[%s]`, err.Error())
	}
	return nil
}

// AnnotatedUnitIDs 在给定单元集合中筛出带有指定检测器标注的单元
// 窗口按检测器过滤时使用
func (c Core) AnnotatedUnitIDs(ctx context.Context, detectorID string, unitIDs []int64) (map[int64]struct{}, error) {
	if detectorID == "" || detectorID == NameNone || len(unitIDs) == 0 {
		return nil, nil
	}

	var items []*Annotation
	_, err := c.store.Annotation().Find(ctx, &items, nil,
		orm.Where("detector_id = ? AND unit_id IN ?", detectorID, unitIDs))
	if err != nil {
		return nil, reason.ErrDB.Withf(`AnnotatedUnitIDs detector[%s] err[%s]`, detectorID, err.Error())
	}

	out := make(map[int64]struct{}, len(items))
	for _, a := range items {
		out[a.UnitID] = struct{}{}
	}
	return out, nil
}

// Prefer 默认检测器选择
// 深链指定的 ID 命中时优先，否则偏好名为 bedrock 的检测器，
// 再否则取列表第一个，列表为空返回 nil（调用方视为 none）
func Prefer(items []*Detector, wantID string) *Detector {
	if len(items) == 0 {
		return nil
	}
	if wantID != "" {
		for _, d := range items {
			if d.ID == wantID {
				return d
			}
		}
	}
	for _, d := range items {
		if d.Name == NameBedrock {
			return d
		}
	}
	return items[0]
}
