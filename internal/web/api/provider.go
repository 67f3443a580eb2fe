package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/replay/internal/adapter/onvifadapter"
	"github.com/gowvp/replay/internal/conf"
	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/detector/store/detectordb"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/device/store/devicedb"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/gowvp/replay/internal/core/media/store/mediadb"
	"github.com/gowvp/replay/internal/data"
	"github.com/gowvp/replay/internal/core/viewer"
	"github.com/gowvp/replay/internal/rpc"
	"github.com/gowvp/replay/pkg/msapi"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewDeviceCore, NewDeviceAPI,
		NewMediaCore, NewMediaAPI,
		NewDetectorCore, NewDetectorAPI,
		NewMsEngine,
		NewClockNotifier,
		NewAnalysisClient,
		NewViewerCore, NewViewerAPI,
		NewWebHookAPI,
		NewUserAPI,
		onvifadapter.NewAdapter,
	)
)

type Usecase struct {
	Conf    *conf.Bootstrap
	DB      *gorm.DB
	Version versionapi.API

	DeviceAPI   DeviceAPI
	MediaAPI    MediaAPI
	DetectorAPI DetectorAPI
	ViewerAPI   ViewerAPI
	WebHookAPI  WebHookAPI
	UserAPI     UserAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

func NewDeviceCore(db *gorm.DB) device.Core {
	return device.NewCore(devicedb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()))
}

func NewMediaCore(db *gorm.DB, cfg *conf.Bootstrap) media.Core {
	core := media.NewCore(
		mediadb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()),
		media.WithConfig(&cfg.Server.Storage),
	)
	// 旧版 recordings 表并入 media_units，需在建表后执行
	if err := data.MigrateLegacyRecordings(db); err != nil {
		slog.Error("migrate legacy recordings", "err", err)
	}
	// 保留天数与磁盘水位清理
	go core.StartCleanupWorker()
	return core
}

func NewDetectorCore(db *gorm.DB) detector.Core {
	return detector.NewCore(detectordb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()))
}

// NewMsEngine 流媒体服务 API 客户端
func NewMsEngine(cfg *conf.Bootstrap) msapi.Engine {
	return msapi.NewEngine().SetConfig(msapi.Config{
		URL:    fmt.Sprintf("http://%s:%d", cfg.Media.IP, cfg.Media.HTTPPort),
		Secret: cfg.Media.Secret,
	})
}

// NewClockNotifier 展示时区变更通知器，会话订阅后跟随切换
func NewClockNotifier() *clock.Notifier {
	return clock.NewNotifier(nil)
}

// NewAnalysisClient 检测分析服务探针，地址未配置时返回空客户端
func NewAnalysisClient(cfg *conf.Bootstrap) *rpc.AnalysisClient {
	return rpc.NewAnalysisClient(cfg.Viewer.DetectorRPCAddr)
}

func NewViewerCore(
	cfg *conf.Bootstrap,
	deviceCore device.Core,
	mediaCore media.Core,
	detectorCore detector.Core,
	ms msapi.Engine,
	notifier *clock.Notifier,
) *viewer.Core {
	core := viewer.NewCore(viewer.Ports{
		Device:   deviceCore,
		Media:    mediaCore,
		Detector: detectorCore,
		Live:     &ms,
	}, notifier, &cfg.Viewer)
	core.StartIdleReaper(context.Background())
	return core
}
