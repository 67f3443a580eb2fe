// Package media 媒体单元领域
//
// 维护时间轴上的视频片段与抓拍图片，
// 提供展示小时窗口查询、按分钟聚合、入库与清理。
package media

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// FindUnits 分页查询媒体单元列表，支持管道 ID、类型与时间范围筛选
func (c Core) FindUnits(ctx context.Context, in *FindMediaUnitInput) ([]*MediaUnit, int64, error) {
	query := orm.NewQuery(4).OrderBy("started_at DESC")

	if in.PipelineID != "" {
		query.Where("pipeline_id = ?", in.PipelineID)
	}
	if in.Kind != "" {
		query.Where("kind = ?", in.Kind)
	}
	if in.StartMs > 0 && in.EndMs > 0 {
		query.Where("started_at >= ? AND started_at <= ?", in.StartAt(), in.EndAt())
	}

	items := make([]*MediaUnit, 0, in.Limit())
	total, err := c.store.Unit().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetUnit Query a single object
func (c Core) GetUnit(ctx context.Context, id int64) (*MediaUnit, error) {
	out := MediaUnit{ID: id}
	if err := c.store.Unit().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddUnit Insert into database
func (c Core) AddUnit(ctx context.Context, in *AddMediaUnitInput) (*MediaUnit, error) {
	if in.Kind != KindVideo && in.Kind != KindImage {
		return nil, reason.ErrBadRequest.Withf("kind must be video or image")
	}
	if in.Kind == KindVideo && in.EndedAt == nil {
		return nil, reason.ErrBadRequest.Withf("video unit requires ended_at")
	}

	var out MediaUnit
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}

	if err := c.store.Unit().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// DelUnit Delete object
func (c Core) DelUnit(ctx context.Context, id int64) (*MediaUnit, error) {
	var out MediaUnit
	if err := c.store.Unit().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// Window 查询与指定 UTC 区间有交集的可用单元
// 视频按区间重叠判断，图片按时刻落入区间判断，结果按开始时间升序
func (c Core) Window(ctx context.Context, in *WindowInput) ([]*MediaUnit, error) {
	if in.PipelineID == "" {
		return nil, reason.ErrBadRequest.Withf("pipeline_id is required")
	}
	if !in.Start.Before(in.End) {
		return nil, reason.ErrBadRequest.Withf("start must be before end")
	}

	query := orm.NewQuery(4).OrderBy("started_at ASC")
	query.Where("pipeline_id = ?", in.PipelineID)
	query.Where("delete_flag = ?", false)
	// 视频取重叠，图片取落入；ended_at 为空即图片
	query.Where("(ended_at IS NOT NULL AND started_at < ? AND ended_at > ?) OR (ended_at IS NULL AND started_at >= ? AND started_at < ?)",
		orm.Time{Time: in.End}, orm.Time{Time: in.Start},
		orm.Time{Time: in.Start}, orm.Time{Time: in.End})

	var items []*MediaUnit
	pager := defaultPager{limit: 2000}
	if _, err := c.store.Unit().Find(ctx, &items, pager, query.Encode()...); err != nil {
		return nil, reason.ErrDB.Withf(`Window in[%+v] err[%s]`, in, err.Error())
	}
	return items, nil
}

// HourSummary 小时窗口内按分钟聚合单元计数
// 展示层用于渲染时间轴刻度的密度条
func (c Core) HourSummary(ctx context.Context, in *HourSummaryInput) ([]MinuteBucket, error) {
	units, err := c.Window(ctx, &WindowInput{
		PipelineID: in.PipelineID,
		Start:      in.Start,
		End:        in.End,
	})
	if err != nil {
		return nil, err
	}

	buckets := make(map[int]*MinuteBucket, 8)
	for _, u := range units {
		at := u.At()
		if at.Before(in.Start) {
			// 跨小时的视频按窗口起点归入 0 分钟
			at = in.Start
		}
		m := int(at.Sub(in.Start).Minutes())
		if m < 0 || m > 59 {
			continue
		}
		b, ok := buckets[m]
		if !ok {
			b = &MinuteBucket{Minute: m}
			buckets[m] = b
		}
		switch u.Kind {
		case KindVideo:
			b.VideoCount++
		case KindImage:
			b.ImageCount++
		}
	}

	out := make([]MinuteBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Minute < out[j].Minute })
	return out, nil
}

// defaultPager 内部查询使用的默认分页器
type defaultPager struct {
	limit int
}

func (p defaultPager) Limit() int  { return p.limit }
func (p defaultPager) Offset() int { return 0 }
