package media

import (
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

type FindMediaUnitInput struct {
	web.PagerFilter
	web.DateFilter
	PipelineID string `form:"pipeline_id"` // 管道 ID
	Kind       string `form:"kind"`        // video / image，为空则不限
}

type AddMediaUnitInput struct {
	PipelineID string    `json:"-"`          // 管道 ID（由 API 层填充）
	Kind       string    `json:"kind"`       // video / image
	StartedAt  orm.Time  `json:"started_at"` // 开始时间
	EndedAt    *orm.Time `json:"ended_at"`   // 结束时间，图片为空
	Duration   float64   `json:"duration"`   // 时长（秒）
	Path       string    `json:"path"`       // 文件相对路径
	Size       int64     `json:"size"`       // 文件大小（字节）
}

// WindowInput 展示小时窗口查询参数
// 小时按展示时区给定，查询前换算为 UTC 区间
type WindowInput struct {
	PipelineID string    `json:"pipeline_id"`
	Start      time.Time `json:"-"` // 窗口起点（UTC）
	End        time.Time `json:"-"` // 窗口终点（UTC）
}

// HourSummaryInput 小时按分钟聚合查询参数
type HourSummaryInput struct {
	PipelineID string    `json:"pipeline_id"`
	Start      time.Time `json:"-"` // 小时起点（UTC）
	End        time.Time `json:"-"` // 小时终点（UTC）
}
