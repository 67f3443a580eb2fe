package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动定时清理协程
// 程序启动时执行一次清理，随后每 60 分钟执行一次
func (c Core) StartCleanupWorker() {
	if c.conf == nil || c.conf.Disabled {
		slog.Info("media cleanup disabled")
		return
	}

	slog.Info("media cleanup worker started",
		"retain_days", c.conf.RetainDays,
		"disk_threshold", c.conf.DiskUsageThreshold,
		"storage_dir", c.conf.StorageDir,
	)

	c.runCleanup()

	ticker := time.NewTicker(60 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.runCleanup()
	}
}

// runCleanup 先预标记即将过期的单元，再清理过期单元，最后处理磁盘空间
func (c Core) runCleanup() {
	c.markExpiringUnits()
	c.cleanupExpiredUnits()
	c.cleanupByDiskUsage()
}

// markExpiringUnits 预标记 1 小时内即将过期的单元
// 展示层据 delete_flag 提示用户该段内容即将不可回看
func (c Core) markExpiringUnits() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	expiryCutoff := time.Now().Add(time.Hour).AddDate(0, 0, -c.conf.RetainDays)

	err := c.store.Unit().Session(ctx, func(tx *gorm.DB) error {
		return tx.Model(&MediaUnit{}).
			Where("delete_flag = ?", false).
			Where("started_at < ?", orm.Time{Time: expiryCutoff}).
			Update("delete_flag", true).Error
	})
	if err != nil {
		slog.Warn("failed to mark expiring units", "err", err)
	}
}

// cleanupExpiredUnits 清理超过保留天数的单元
func (c Core) cleanupExpiredUnits() {
	if c.conf.RetainDays <= 0 {
		return
	}

	ctx := context.Background()
	cutoffTime := time.Now().AddDate(0, 0, -c.conf.RetainDays)

	totalDeleted, filesDeleted, failedFiles, freedBytes := c.batchDeleteUnits(ctx,
		orm.Where("started_at < ?", orm.Time{Time: cutoffTime}),
	)

	if totalDeleted > 0 || failedFiles > 0 {
		slog.Info("expired media cleanup completed",
			"reason", "retention_policy",
			"retain_days", c.conf.RetainDays,
			"cutoff_time", cutoffTime.Format(time.DateTime),
			"units_deleted", totalDeleted,
			"files_deleted", filesDeleted,
			"failed_files", failedFiles,
			"freed_bytes", freedBytes,
		)
	}
}

// cleanupByDiskUsage 磁盘使用率超过阈值时，删除最旧单元直到降回阈值以下
func (c Core) cleanupByDiskUsage() {
	if c.conf.DiskUsageThreshold <= 0 || c.conf.DiskUsageThreshold >= 100 {
		return
	}

	storageDir := c.conf.StorageDir
	if storageDir == "" {
		storageDir = "./footage"
	}

	absStorageDir := filepath.Join(system.Getwd(), storageDir)
	if _, err := os.Stat(absStorageDir); os.IsNotExist(err) {
		return
	}

	usage, err := getDiskUsage(absStorageDir)
	if err != nil {
		slog.Warn("failed to get disk usage", "err", err)
		return
	}
	if usage < c.conf.DiskUsageThreshold {
		return
	}

	ctx := context.Background()

	// 以最近一小时的入库总量估算需要释放的空间
	oneHourAgo := time.Now().Add(-1 * time.Hour)
	var recent []*MediaUnit
	_, _ = c.store.Unit().Find(ctx, &recent, nil,
		orm.Where("created_at >= ?", orm.Time{Time: oneHourAgo}),
	)

	var targetSize int64
	for _, u := range recent {
		targetSize += u.Size
	}
	// 至少清理 100MB
	if targetSize < 100*1024*1024 {
		targetSize = 100 * 1024 * 1024
	}

	var freedBytes int64
	var deletedCount, failedCount int
	batchSize := 50

	for freedBytes < targetSize {
		var oldest []*MediaUnit
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Unit().Find(ctx, &oldest, &pager,
			orm.OrderBy("started_at ASC"),
		)
		if err != nil || len(oldest) == 0 {
			break
		}

		var deleteIDs []int64
		var batchFreed int64
		var batchFailed int

		for _, u := range oldest {
			filePath := u.Path
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(system.Getwd(), filePath)
			}
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				batchFailed++
			} else {
				batchFreed += u.Size
			}
			deleteIDs = append(deleteIDs, u.ID)
		}

		if len(deleteIDs) > 0 {
			_ = c.store.Unit().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&MediaUnit{}).Error
			})
			deletedCount += len(deleteIDs)
		}

		freedBytes += batchFreed
		failedCount += batchFailed

		usage, err = getDiskUsage(absStorageDir)
		if err == nil && usage < c.conf.DiskUsageThreshold {
			break
		}
	}

	cleanupEmptyDirs(absStorageDir)

	if deletedCount > 0 || failedCount > 0 {
		slog.Info("disk usage cleanup completed",
			"reason", "disk_threshold_exceeded",
			"threshold", c.conf.DiskUsageThreshold,
			"units_deleted", deletedCount,
			"failed_files", failedCount,
			"freed_bytes", freedBytes,
		)
	}
}

// batchDeleteUnits 批量删除单元（文件+数据库记录）
func (c Core) batchDeleteUnits(ctx context.Context, conditions ...orm.QueryOption) (totalDeleted, filesDeleted, failedFiles int, freedBytes int64) {
	batchSize := 100

	for {
		var units []*MediaUnit
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Unit().Find(ctx, &units, &pager, conditions...)
		if err != nil || len(units) == 0 {
			break
		}

		var deleteIDs []int64
		var batchFreed int64
		var batchFilesDeleted, batchFailed int

		for _, u := range units {
			filePath := u.Path
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(system.Getwd(), filePath)
			}
			if err := os.Remove(filePath); err != nil {
				if !os.IsNotExist(err) {
					batchFailed++
				}
			} else {
				batchFilesDeleted++
				batchFreed += u.Size
			}
			deleteIDs = append(deleteIDs, u.ID)
		}

		if len(deleteIDs) > 0 {
			err = c.store.Unit().Session(ctx, func(tx *gorm.DB) error {
				return tx.Where("id IN ?", deleteIDs).Delete(&MediaUnit{}).Error
			})
			if err == nil {
				totalDeleted += len(deleteIDs)
			}
		}

		filesDeleted += batchFilesDeleted
		failedFiles += batchFailed
	}

	if c.conf != nil && c.conf.StorageDir != "" {
		cleanupEmptyDirs(filepath.Join(system.Getwd(), c.conf.StorageDir))
	}

	return
}

// getDiskUsage 获取指定路径所在磁盘的使用率（百分比）
func getDiskUsage(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	used := total - free

	if total == 0 {
		return 0, nil
	}
	return float64(used) / float64(total) * 100, nil
}

// cleanupEmptyDirs 递归删除空目录
func cleanupEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			cleanupEmptyDirs(subDir)
			subEntries, err := os.ReadDir(subDir)
			if err == nil && len(subEntries) == 0 {
				_ = os.Remove(subDir)
			}
		}
	}
}
