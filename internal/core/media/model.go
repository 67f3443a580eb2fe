package media

import (
	"time"

	"github.com/ixugo/goddd/pkg/orm"
)

// 媒体单元类型
const (
	KindVideo = "video" // 视频片段，具备起止区间
	KindImage = "image" // 抓拍图片，只有单一时刻
)

// MediaUnit 媒体单元，时间轴上的最小可播放对象
// 视频单元覆盖 [StartedAt, EndedAt] 闭区间，图片单元 EndedAt 为空
type MediaUnit struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	PipelineID string    `gorm:"column:pipeline_id" json:"pipeline_id"` // 管道 ID (pipeline.ID)
	Kind       string    `gorm:"column:kind" json:"kind"`               // video / image
	StartedAt  orm.Time  `gorm:"column:started_at" json:"started_at"`   // 开始时间（UTC）
	EndedAt    *orm.Time `gorm:"column:ended_at" json:"ended_at"`       // 结束时间（UTC），图片为空
	Duration   float64   `gorm:"column:duration" json:"duration"`       // 时长（秒）
	Path       string    `gorm:"column:path" json:"path"`               // 文件相对路径
	Size       int64     `gorm:"column:size" json:"size"`               // 文件大小（字节）
	DeleteFlag bool      `gorm:"column:delete_flag" json:"delete_flag"` // 待删除标记
	CreatedAt  orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*MediaUnit) TableName() string {
	return "media_units"
}

// At 单元的定位时刻，图片取自身时刻，视频取起点
func (u *MediaUnit) At() time.Time {
	return u.StartedAt.Time
}

// Contains 视频单元是否覆盖指定时刻，区间为闭区间
func (u *MediaUnit) Contains(t time.Time) bool {
	if u.Kind != KindVideo || u.EndedAt == nil {
		return false
	}
	return !t.Before(u.StartedAt.Time) && !t.After(u.EndedAt.Time)
}

// MinuteBucket 小时内按分钟聚合的单元计数
type MinuteBucket struct {
	Minute     int `gorm:"column:minute" json:"minute"`           // 0~59
	VideoCount int `gorm:"column:video_count" json:"video_count"` // 该分钟起始的视频数
	ImageCount int `gorm:"column:image_count" json:"image_count"` // 该分钟起始的图片数
}
