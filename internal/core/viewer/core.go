// Package viewer 回看会话引擎
//
// 会话把设备、管道、检测器、媒体窗口、标注组成一条有向取数链，
// 每个阶段持有独立的代数计数：键变化令代数 +1，
// 旧代数的结果在落地时被静默丢弃，保证快速切换下状态不串。
package viewer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gowvp/replay/internal/conf"
	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/gowvp/replay/pkg/msapi"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/reason"
)

// DeviceDirectory 设备目录
type DeviceDirectory interface {
	GetDevice(ctx context.Context, id string) (*device.Device, error)
	FindPipelines(ctx context.Context, in *device.FindPipelineInput) ([]*device.Pipeline, int64, error)
}

// MediaQuerier 媒体窗口查询
type MediaQuerier interface {
	Window(ctx context.Context, in *media.WindowInput) ([]*media.MediaUnit, error)
	HourSummary(ctx context.Context, in *media.HourSummaryInput) ([]media.MinuteBucket, error)
}

// DetectorDirectory 检测器目录与标注查询
type DetectorDirectory interface {
	FindDetectors(ctx context.Context, in *detector.FindDetectorInput) ([]*detector.Detector, int64, error)
	FindAnnotations(ctx context.Context, in *detector.FindAnnotationInput) ([]*detector.Annotation, int64, error)
	AnnotatedUnitIDs(ctx context.Context, detectorID string, unitIDs []int64) (map[int64]struct{}, error)
}

// LiveSessioner 直播会话签发
type LiveSessioner interface {
	GetLiveSession(ctx context.Context, app, stream string) (*msapi.LiveSession, error)
}

// Ports 会话引擎依赖的协作方
type Ports struct {
	Device   DeviceDirectory
	Media    MediaQuerier
	Detector DetectorDirectory
	Live     LiveSessioner
}

// Core business domain
type Core struct {
	ports    Ports
	notifier *clock.Notifier
	conf     *conf.Viewer
	sessions *conc.Map[string, *Session]
}

// NewCore create business domain
func NewCore(ports Ports, notifier *clock.Notifier, cfg *conf.Viewer) *Core {
	return &Core{
		ports:    ports,
		notifier: notifier,
		conf:     cfg,
		sessions: conc.NewMap[string, *Session](),
	}
}

// OpenSession 打开回看会话并按深链目标启动取数
func (c *Core) OpenSession(_ context.Context, deviceID string, target DeepLinkTarget) (*Session, error) {
	if deviceID == "" {
		return nil, reason.ErrBadRequest.Withf("device_id is required")
	}

	s := newSession(uuid.NewString(), deviceID, c.ports, c.notifier, c.conf)
	c.sessions.Store(s.ID, s)
	s.Start(target)
	return s, nil
}

// GetSession 查询会话，顺带刷新活跃时间
func (c *Core) GetSession(id string) (*Session, error) {
	s, ok := c.sessions.Load(id)
	if !ok {
		return nil, reason.ErrNotFound.Withf("session[%s] not found", id)
	}
	s.touch()
	return s, nil
}

// CloseSession 关闭并回收会话
func (c *Core) CloseSession(id string) {
	if s, ok := c.sessions.Load(id); ok {
		c.sessions.Delete(id)
		s.close()
	}
}

// StartIdleReaper 启动空闲会话回收协程
func (c *Core) StartIdleReaper(ctx context.Context) {
	timeout := 30 * time.Minute
	if c.conf != nil && c.conf.SessionIdleTimeoutS > 0 {
		timeout = time.Duration(c.conf.SessionIdleTimeoutS) * time.Second
	}
	interval := time.Minute

	go conc.Timer(ctx, interval, interval, func() {
		now := time.Now()
		c.sessions.Range(func(id string, s *Session) bool {
			if now.Sub(s.activeAt()) > timeout {
				slog.Info("reap idle session", "session_id", id)
				c.CloseSession(id)
			}
			return true
		})
	})
}
