package detector

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// 特殊检测器名称
const (
	NameNone    = "none"    // 不套用检测器，查看原始媒体
	NameBedrock = "bedrock" // 默认优先选择的检测器
)

// Detector 检测分析器
// 同一设备管道上可挂多个检测器，窗口查询可按检测器过滤
type Detector struct {
	ID         string   `gorm:"primaryKey" json:"id"`
	Name       string   `gorm:"column:name" json:"name"`               // 检测器名称，如 bedrock / motion
	DeviceID   string   `gorm:"column:device_id" json:"device_id"`     // 设备 ID (device.ID)
	PipelineID string   `gorm:"column:pipeline_id" json:"pipeline_id"` // 管道 ID (pipeline.ID)
	Kind       string   `gorm:"column:kind" json:"kind"`               // 适用类型 video / image
	Enabled    bool     `gorm:"column:enabled" json:"enabled"`
	CreatedAt  orm.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  orm.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (*Detector) TableName() string {
	return "detectors"
}

// Annotation 检测标注，挂在媒体单元上
type Annotation struct {
	ID         int64    `gorm:"primaryKey" json:"id"`
	UnitID     int64    `gorm:"column:unit_id" json:"unit_id"`         // 媒体单元 ID (media_unit.ID)
	DetectorID string   `gorm:"column:detector_id" json:"detector_id"` // 检测器 ID (detector.ID)
	Label      string   `gorm:"column:label" json:"label"`             // 检出目标类别
	Score      float64  `gorm:"column:score" json:"score"`             // 置信度 0~1
	Box        Box      `gorm:"column:box;serializer:json" json:"box"` // 归一化包围框
	At         orm.Time `gorm:"column:at" json:"at"`                   // 检出时刻（UTC）
	CreatedAt  orm.Time `gorm:"column:created_at" json:"created_at"`
}

func (*Annotation) TableName() string {
	return "annotations"
}

// Box 归一化坐标包围框，取值 0~1
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
