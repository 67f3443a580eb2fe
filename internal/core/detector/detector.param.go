package detector

import (
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

type FindDetectorInput struct {
	web.PagerFilter
	DeviceID   string `form:"device_id"`
	PipelineID string `form:"pipeline_id"`
	Kind       string `form:"kind"` // video / image
}

type AddDetectorInput struct {
	Name       string `json:"name" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	PipelineID string `json:"pipeline_id" binding:"required"`
	Kind       string `json:"kind" binding:"required"`
}

type FindAnnotationInput struct {
	web.PagerFilter
	UnitID     int64  `form:"unit_id"`
	DetectorID string `form:"detector_id"`
}

// AddAnnotationInput 检测结果上报，AI 回调使用
type AddAnnotationInput struct {
	UnitID     int64    `json:"unit_id"`
	DetectorID string   `json:"detector_id"`
	Label      string   `json:"label"`
	Score      float64  `json:"score"`
	Box        Box      `json:"box"`
	At         orm.Time `json:"at"`
}
