package api

import "github.com/ixugo/goddd/pkg/orm"

// DefaultOutput 流媒体回调通用响应体，code=0 表示成功
type DefaultOutput struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func newDefaultOutputOK() DefaultOutput {
	return DefaultOutput{Code: 0, Msg: "success"}
}

type onServerKeepaliveInput struct {
	MediaServerID string `json:"mediaServerId"`
}

// onRecordMP4Input 录制切片完成回调请求体
type onRecordMP4Input struct {
	App           string  `json:"app"`
	Stream        string  `json:"stream"`
	FileName      string  `json:"file_name"`
	FilePath      string  `json:"file_path"`
	FileSize      int64   `json:"file_size"`
	Folder        string  `json:"folder"`
	StartTime     int64   `json:"start_time"` // Unix 时间戳（秒）
	TimeLen       float64 `json:"time_len"`   // 时长（秒）
	URL           string  `json:"url"`
	MediaServerID string  `json:"mediaServerId"`
}

// onSnapshotInput 抓图完成回调请求体
type onSnapshotInput struct {
	App           string `json:"app"`
	Stream        string `json:"stream"`
	FileName      string `json:"file_name"`
	FilePath      string `json:"file_path"`
	FileSize      int64  `json:"file_size"`
	SnapTime      int64  `json:"snap_time"` // Unix 时间戳（秒）
	URL           string `json:"url"`
	MediaServerID string `json:"mediaServerId"`
}

type aiKeepaliveInput struct {
	Timestamp int64  `json:"timestamp"` // Unix 时间戳（毫秒）
	Message   string `json:"message"`
}

// aiEventsInput 检测事件回调请求体
type aiEventsInput struct {
	DetectorID string        `json:"detector_id" binding:"required"`
	UnitID     int64         `json:"unit_id" binding:"required"`
	Detections []aiDetection `json:"detections"`
}

// aiDetection 单个检测对象
type aiDetection struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        aiNormBox `json:"box"`
	At         orm.Time  `json:"at"` // 检测命中的时刻
}

// aiNormBox 归一化边界框，中心点坐标
type aiNormBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
