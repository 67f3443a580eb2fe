package viewer

import (
	"time"

	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/gowvp/replay/pkg/msapi"
)

// Mode 回看模式
type Mode string

const (
	ModeLive  Mode = "live"  // 直播
	ModeVideo Mode = "video" // 视频回看
	ModeImage Mode = "image" // 图片回看
)

// Stage 取数阶段，各阶段独立持有代数计数
type Stage string

const (
	StageDevice      Stage = "device"
	StagePipelines   Stage = "pipelines"
	StageDetectors   Stage = "detectors"
	StageWindow      Stage = "window"
	StageSummary     Stage = "summary"
	StageAnnotations Stage = "annotations"
	StageLive        Stage = "live"
)

// DeepLinkTarget 深链定位目标，五个字段相互独立且均可缺省
type DeepLinkTarget struct {
	PipelineID string    // 指定管道
	FileType   string    // video / image
	At         time.Time // 由 12 位时刻令牌解出的 UTC 时刻，零值表示未指定
	DetectorID string    // 指定检测器
	UnitID     int64     // 指定单元
}

// IsZero 目标是否为空
func (t *DeepLinkTarget) IsZero() bool {
	return t == nil || (t.PipelineID == "" && t.FileType == "" &&
		t.At.IsZero() && t.DetectorID == "" && t.UnitID == 0)
}

// PlaybackState 会话的全部展示态
// 只能由会话自身在持锁状态下修改，对外仅提供快照
type PlaybackState struct {
	Mode     Mode           `json:"mode"`
	DeviceID string         `json:"device_id"`
	Device   *device.Device `json:"device,omitempty"`

	Pipelines  []*device.Pipeline `json:"pipelines"`
	PipelineID string             `json:"pipeline_id"`

	Detectors  []*detector.Detector `json:"detectors"`
	DetectorID string               `json:"detector_id"` // 失败或无可用检测器时为 none

	HourStart time.Time             `json:"hour_start"` // 当前窗口小时起点（UTC）
	Window    []*media.MediaUnit    `json:"window"`
	Summary   []media.MinuteBucket  `json:"summary"`
	Current   *media.MediaUnit      `json:"current,omitempty"`
	Playing   bool                  `json:"playing"`
	Notes     []*detector.Annotation `json:"notes"`

	// DisplayClock 用户视角的当前时刻（UTC 保存，展示时经时区换算）
	DisplayClock time.Time `json:"display_clock"`

	Live            *msapi.LiveSession `json:"live,omitempty"`
	LiveUnavailable bool               `json:"live_unavailable"` // 续期失败后的瞬态不可用标记

	// Warnings 阶段级警告，键为阶段名；某阶段失败只影响自身与下游
	Warnings map[Stage]string `json:"warnings"`
}

// Timezone 展示时区名称，序列化用
func (s *PlaybackState) Timezone(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	return loc.String()
}
