package api

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/conf"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

// WebHookAPI 流媒体服务与检测分析服务的回调入口
// 媒体单元与标注都从这里入库
type WebHookAPI struct {
	mediaCore    media.Core
	deviceCore   device.Core
	detectorCore detector.Core
	conf         *conf.Bootstrap
	log          *slog.Logger
	limiter      func(identifier string) bool
}

func NewWebHookAPI(mediaCore media.Core, deviceCore device.Core, detectorCore detector.Core, conf *conf.Bootstrap) WebHookAPI {
	return WebHookAPI{
		mediaCore:    mediaCore,
		deviceCore:   deviceCore,
		detectorCore: detectorCore,
		conf:         conf,
		log:          slog.With("hook", "ms"),
		limiter:      web.IDRateLimiter(5, 10, 3*time.Minute),
	}
}

func registerWebHookAPI(r gin.IRouter, api WebHookAPI, handler ...gin.HandlerFunc) {
	{
		group := r.Group("/webhook", handler...)
		group.POST("/on_server_started", web.WrapH(api.onServerStarted))
		group.POST("/on_server_keepalive", web.WrapH(api.onServerKeepalive))
		group.POST("/on_record_mp4", web.WrapH(api.onRecordMP4))
		group.POST("/on_snapshot", web.WrapH(api.onSnapshot))
	}
	{
		group := r.Group("/ai", handler...)
		group.POST("/keepalive", web.WrapH(api.onAIKeepalive))
		group.POST("/events", web.WrapH(api.onAIEvents))
	}
}

func (w WebHookAPI) onServerStarted(c *gin.Context, _ *struct{}) (DefaultOutput, error) {
	w.log.InfoContext(c.Request.Context(), "webhook onServerStarted")
	return newDefaultOutputOK(), nil
}

// onServerKeepalive 服务器定时上报，上报间隔可配置，默认 10s 一次
func (w WebHookAPI) onServerKeepalive(_ *gin.Context, in *onServerKeepaliveInput) (DefaultOutput, error) {
	_ = in
	return newDefaultOutputOK(), nil
}

// onRecordMP4 录制 mp4 切片完成回调，视频单元入库
func (w WebHookAPI) onRecordMP4(c *gin.Context, in *onRecordMP4Input) (DefaultOutput, error) {
	ctx := c.Request.Context()
	w.log.InfoContext(ctx, "webhook onRecordMP4",
		"app", in.App,
		"stream", in.Stream,
		"file_path", in.FilePath,
		"file_size", in.FileSize,
		"time_len", in.TimeLen,
		"start_time", in.StartTime,
	)

	if w.conf.Server.Storage.Disabled {
		return newDefaultOutputOK(), nil
	}

	pipeline, err := w.deviceCore.GetPipelineByStream(ctx, in.App, in.Stream)
	if err != nil {
		w.log.WarnContext(ctx, "未找到对应管道，丢弃切片回调", "app", in.App, "stream", in.Stream)
		// 仍返回成功，避免流媒体服务重试
		return newDefaultOutputOK(), nil
	}

	startTime := time.Unix(in.StartTime, 0).UTC()
	endTime := startTime.Add(time.Duration(in.TimeLen * float64(time.Second)))

	_, err = w.mediaCore.AddUnit(ctx, &media.AddMediaUnitInput{
		PipelineID: pipeline.ID,
		Kind:       media.KindVideo,
		StartedAt:  orm.Time{Time: startTime},
		EndedAt:    &orm.Time{Time: endTime},
		Duration:   in.TimeLen,
		Path:       filepath.Clean(w.relativePath(in.FilePath, in.URL)),
		Size:       in.FileSize,
	})
	if err != nil {
		w.log.ErrorContext(ctx, "视频单元入库失败", "err", err)
	}
	return newDefaultOutputOK(), nil
}

// onSnapshot 抓图完成回调，图片单元入库（无结束时间）
func (w WebHookAPI) onSnapshot(c *gin.Context, in *onSnapshotInput) (DefaultOutput, error) {
	ctx := c.Request.Context()
	w.log.InfoContext(ctx, "webhook onSnapshot",
		"app", in.App,
		"stream", in.Stream,
		"file_path", in.FilePath,
		"snap_time", in.SnapTime,
	)

	if w.conf.Server.Storage.Disabled {
		return newDefaultOutputOK(), nil
	}

	pipeline, err := w.deviceCore.GetPipelineByStream(ctx, in.App, in.Stream)
	if err != nil {
		w.log.WarnContext(ctx, "未找到对应管道，丢弃抓图回调", "app", in.App, "stream", in.Stream)
		return newDefaultOutputOK(), nil
	}

	_, err = w.mediaCore.AddUnit(ctx, &media.AddMediaUnitInput{
		PipelineID: pipeline.ID,
		Kind:       media.KindImage,
		StartedAt:  orm.Time{Time: time.Unix(in.SnapTime, 0).UTC()},
		Path:       filepath.Clean(w.relativePath(in.FilePath, in.URL)),
		Size:       in.FileSize,
	})
	if err != nil {
		w.log.ErrorContext(ctx, "图片单元入库失败", "err", err)
	}
	return newDefaultOutputOK(), nil
}

// relativePath 计算相对存储目录的路径，回调给的是绝对路径
func (w WebHookAPI) relativePath(fullPath, fallback string) string {
	dir := w.conf.Server.Storage.StorageDir
	if dir == "" {
		return fullPath
	}
	if idx := strings.Index(fullPath, dir); idx >= 0 {
		return strings.TrimPrefix(fullPath[idx+len(dir):], "/")
	}
	return fallback
}

func (w WebHookAPI) onAIKeepalive(c *gin.Context, in *aiKeepaliveInput) (DefaultOutput, error) {
	w.log.InfoContext(c.Request.Context(), "ai keepalive",
		"timestamp", in.Timestamp,
		"message", in.Message,
	)
	return newDefaultOutputOK(), nil
}

// onAIEvents 接收检测分析结果，逐条落为标注
func (w WebHookAPI) onAIEvents(c *gin.Context, in *aiEventsInput) (DefaultOutput, error) {
	ctx := c.Request.Context()
	if !w.limiter(in.DetectorID) {
		return newDefaultOutputOK(), nil
	}

	w.log.InfoContext(ctx, "ai events",
		"detector_id", in.DetectorID,
		"unit_id", in.UnitID,
		"detection_count", len(in.Detections),
	)

	ins := make([]detector.AddAnnotationInput, 0, len(in.Detections))
	for _, det := range in.Detections {
		ins = append(ins, detector.AddAnnotationInput{
			UnitID:     in.UnitID,
			DetectorID: in.DetectorID,
			Label:      det.Label,
			Score:      det.Confidence,
			Box:        detector.Box{X: det.Box.X, Y: det.Box.Y, W: det.Box.W, H: det.Box.H},
			At:         det.At,
		})
	}
	if err := w.detectorCore.AddAnnotations(ctx, ins); err != nil {
		w.log.ErrorContext(ctx, "标注入库失败", "err", err)
	}
	return newDefaultOutputOK(), nil
}
