package data

import (
	"context"
	"log/slog"

	"github.com/gowvp/replay/internal/core/media"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// LegacyRecording 旧版录像模型（用于迁移）
// 旧版按录像单表存储，没有图片单元，也没有管道概念
type LegacyRecording struct {
	ID        int64    `gorm:"primaryKey"`
	CID       string   `gorm:"column:cid"`
	App       string   `gorm:"column:app"`
	Stream    string   `gorm:"column:stream"`
	StartedAt orm.Time `gorm:"column:started_at"`
	EndedAt   orm.Time `gorm:"column:ended_at"`
	Duration  float64  `gorm:"column:duration"`
	Path      string   `gorm:"column:path"`
	Size      int64    `gorm:"column:size"`
	CreatedAt orm.Time `gorm:"column:created_at"`
}

func (*LegacyRecording) TableName() string {
	return "recordings"
}

// MigrateLegacyRecordings 迁移旧版 recordings 表数据到 media_units 表
// 旧版 cid 直接作为管道 ID 写入，迁移完成后旧表数据保留，建议手动确认后删除
func MigrateLegacyRecordings(db *gorm.DB) error {
	ctx := context.Background()

	if !db.Migrator().HasTable("recordings") {
		slog.Info("没有需要迁移的旧表数据")
		return nil
	}

	var legacy []LegacyRecording
	if err := db.WithContext(ctx).Find(&legacy).Error; err != nil {
		slog.Error("查询 recordings 失败", "err", err)
		return err
	}

	migratedCount := 0
	for _, rec := range legacy {
		// 同管道同起点的单元视为已迁移
		var existing media.MediaUnit
		if err := db.WithContext(ctx).
			Where("pipeline_id = ? AND started_at = ?", rec.CID, rec.StartedAt).
			First(&existing).Error; err == nil {
			slog.Debug("媒体单元已存在，跳过", "pipeline_id", rec.CID, "started_at", rec.StartedAt)
			continue
		}

		endedAt := rec.EndedAt
		unit := media.MediaUnit{
			PipelineID: rec.CID,
			Kind:       media.KindVideo,
			StartedAt:  rec.StartedAt,
			EndedAt:    &endedAt,
			Duration:   rec.Duration,
			Path:       rec.Path,
			Size:       rec.Size,
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  orm.Now(),
		}
		if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
			slog.Error("迁移媒体单元失败", "err", err, "path", rec.Path)
			continue
		}
		migratedCount++
	}

	slog.Info("旧录像数据迁移完成，旧表数据已保留，请手动确认后删除。", "total", len(legacy), "migrated", migratedCount)
	return nil
}
