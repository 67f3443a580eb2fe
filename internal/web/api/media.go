package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/conf"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/gowvp/replay/pkg/msapi"
	"github.com/grafov/m3u8"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// MediaAPI 媒体单元查询与播放列表接口
type MediaAPI struct {
	mediaCore  media.Core
	deviceCore device.Core
	ms         msapi.Engine
	conf       *conf.Bootstrap
}

func NewMediaAPI(core media.Core, deviceCore device.Core, ms msapi.Engine, conf *conf.Bootstrap) MediaAPI {
	return MediaAPI{mediaCore: core, deviceCore: deviceCore, ms: ms, conf: conf}
}

func registerMedia(g gin.IRouter, api MediaAPI, handler ...gin.HandlerFunc) {
	{
		group := g.Group("/media")
		group.GET("/units", web.WrapH(api.findUnits))
		group.GET("/summary", web.WrapH(api.hourSummary))
		group.GET("/units/:id", web.WrapH(api.getUnit))
		group.DELETE("/units/:id", append(handler, web.WrapH(api.delUnit))...)
		// HLS 播放列表（按管道 ID 和时间范围生成 m3u8）
		group.GET("/channels/:pipeline_id/index.m3u8", api.pipelinePlaylist)
		group.GET("/channels/:pipeline_id/snapshot", api.pipelineSnapshot)
		group.GET("/units/:id/download", api.downloadUnit)
	}

	// 静态文件服务，用于访问媒体文件
	// Gin Static 支持 HTTP Range 请求，实现边下载边播放（秒播）
	if api.conf != nil && api.conf.Server.Storage.StorageDir != "" {
		slog.Info("注册媒体静态文件服务", "path", "/static/footage", "dir", api.conf.Server.Storage.StorageDir)
		g.Static("/static/footage", api.conf.Server.Storage.StorageDir)
	}
}

// findUnits 分页查询媒体单元
func (a MediaAPI) findUnits(c *gin.Context, in *media.FindMediaUnitInput) (any, error) {
	items, total, err := a.mediaCore.FindUnits(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// hourSummary 小时内按分钟聚合的单元计数
// 路径: /media/summary?pipeline_id=xxx&start_ms=xxx&end_ms=xxx
func (a MediaAPI) hourSummary(c *gin.Context, _ *struct{}) (any, error) {
	pipelineID := c.Query("pipeline_id")
	startMs, _ := strconv.ParseInt(c.Query("start_ms"), 10, 64)
	endMs, _ := strconv.ParseInt(c.Query("end_ms"), 10, 64)
	if pipelineID == "" || startMs <= 0 || endMs <= 0 {
		return nil, reason.ErrBadRequest.Withf("pipeline_id, start_ms and end_ms are required")
	}

	items, err := a.mediaCore.HourSummary(c.Request.Context(), &media.HourSummaryInput{
		PipelineID: pipelineID,
		Start:      time.UnixMilli(startMs).UTC(),
		End:        time.UnixMilli(endMs).UTC(),
	})
	return gin.H{"items": items}, err
}

func (a MediaAPI) getUnit(c *gin.Context, _ *struct{}) (*media.MediaUnit, error) {
	unitID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.mediaCore.GetUnit(c.Request.Context(), unitID)
}

func (a MediaAPI) delUnit(c *gin.Context, _ *struct{}) (*media.MediaUnit, error) {
	unitID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.mediaCore.DelUnit(c.Request.Context(), unitID)
}

// pipelineSnapshot 实时抓取管道当前画面，图片管道的取景预览走这里
func (a MediaAPI) pipelineSnapshot(c *gin.Context) {
	pl, err := a.deviceCore.GetPipeline(c.Request.Context(), c.Param("pipeline_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": err.Error()})
		return
	}
	img, err := a.ms.GetSnapshot(c.Request.Context(), pl.App, pl.Stream)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": 1, "msg": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", img)
}

// downloadUnit 下载媒体文件
func (a MediaAPI) downloadUnit(c *gin.Context) {
	unitID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "invalid unit id"})
		return
	}

	unit, err := a.mediaCore.GetUnit(c.Request.Context(), unitID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	filePath := a.mediaCore.GetFullPath(unit.Path)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "media file not found"})
		return
	}

	fileName := filepath.Base(filePath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.File(filePath)
}

// pipelinePlaylist 生成 HLS m3u8 播放列表
// 按管道 ID 和 UTC 时间范围，动态生成包含多个视频单元的 m3u8 文件
// 路径: /media/channels/:pipeline_id/index.m3u8?start_ms=xxx&end_ms=xxx&token=xxx
func (a MediaAPI) pipelinePlaylist(c *gin.Context) {
	pipelineID := c.Param("pipeline_id")
	if pipelineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "pipeline_id is required"})
		return
	}

	startMs, _ := strconv.ParseInt(c.Query("start_ms"), 10, 64)
	endMs, _ := strconv.ParseInt(c.Query("end_ms"), 10, 64)
	token := c.Query("token")

	if startMs <= 0 || endMs <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "start_ms and end_ms are required"})
		return
	}

	units, err := a.mediaCore.Window(c.Request.Context(), &media.WindowInput{
		PipelineID: pipelineID,
		Start:      time.UnixMilli(startMs).UTC(),
		End:        time.UnixMilli(endMs).UTC(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	videos := make([]*media.MediaUnit, 0, len(units))
	for _, u := range units {
		if u.Kind == media.KindVideo {
			videos = append(videos, u)
		}
	}
	if len(videos) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "no recordings found in time range"})
		return
	}

	m3u8Content := a.generateM3U8WithToken(videos, token)

	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.Header("Cache-Control", "no-cache")
	c.String(http.StatusOK, m3u8Content)
}

// generateM3U8WithToken 根据视频单元列表生成 m3u8 播放列表（每个 URL 带 token）
func (a MediaAPI) generateM3U8WithToken(units []*media.MediaUnit, token string) string {
	count := len(units)
	if count == 0 {
		return ""
	}

	// winSize=0 表示 VOD，不使用滑动窗口
	pl, err := m3u8.NewMediaPlaylist(0, uint(count))
	if err != nil {
		return ""
	}
	pl.MediaType = m3u8.VOD

	sorted := make([]*media.MediaUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt.Time)
	})

	// 每个单元都是独立的 fMP4，DTS 从 0 开始，
	// 片段间必须加 EXT-X-DISCONTINUITY 让 HLS.js 重置解码器
	for i, unit := range sorted {
		if i > 0 {
			pl.SetDiscontinuity()
		}

		// 使用相对路径（不带域名），让浏览器根据当前页面域名访问
		relativePath := strings.TrimPrefix(unit.Path, "/")
		var uri string
		if token != "" {
			uri = fmt.Sprintf("/static/footage/%s?token=%s", relativePath, token)
		} else {
			uri = fmt.Sprintf("/static/footage/%s", relativePath)
		}
		_ = pl.Append(uri, unit.Duration, "")
	}

	// 关闭播放列表，添加 #EXT-X-ENDLIST 标签
	pl.Close()
	return pl.String()
}
