package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/viewer"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// ViewerAPI 回看会话接口
// 深链参数在开会话时一次性消费，之后的切换走会话内的保留时钟
type ViewerAPI struct {
	core *viewer.Core
}

func NewViewerAPI(core *viewer.Core) ViewerAPI {
	return ViewerAPI{core: core}
}

func registerViewer(r gin.IRouter, api ViewerAPI, handler ...gin.HandlerFunc) {
	group := r.Group("/viewer/sessions", handler...)
	group.POST("", web.WrapH(api.openSession))
	group.GET("/:id", web.WrapH(api.getSession))
	group.DELETE("/:id", web.WrapH(api.closeSession))
	group.POST("/:id/mode", web.WrapH(api.switchMode))
	group.POST("/:id/pipeline", web.WrapH(api.switchPipeline))
	group.POST("/:id/detector", web.WrapH(api.selectDetector))
	group.POST("/:id/clock", web.WrapH(api.selectClock))
	group.POST("/:id/progress", web.WrapH(api.progress))
	group.POST("/:id/live/refresh", web.WrapH(api.refreshLive))
}

type sessionOutput struct {
	SessionID    string               `json:"session_id"`
	Timezone     string               `json:"timezone"`
	DisplayLocal string               `json:"display_local"` // 展示时区下的当前时刻
	DeepLink     string               `json:"deep_link"`     // 可分享的深链查询串
	State        viewer.PlaybackState `json:"state"`
}

func toSessionOutput(s *viewer.Session) sessionOutput {
	st := s.Snapshot()
	loc := s.Location()
	return sessionOutput{
		SessionID:    s.ID,
		Timezone:     st.Timezone(loc),
		DisplayLocal: clock.ToDisplay(st.DisplayClock, loc).Format(time.RFC3339),
		DeepLink:     viewer.FormatDeepLink(&st),
		State:        st,
	}
}

// openSession 打开回看会话
// 除 device_id 外的查询参数均为深链字段，独立可缺省，非法值按缺省降级
func (a ViewerAPI) openSession(c *gin.Context, _ *struct{}) (sessionOutput, error) {
	target := viewer.ParseDeepLink(c.Request.URL.Query())
	s, err := a.core.OpenSession(c.Request.Context(), c.Query("device_id"), target)
	if err != nil {
		return sessionOutput{}, err
	}
	return toSessionOutput(s), nil
}

func (a ViewerAPI) getSession(c *gin.Context, _ *struct{}) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}
	return toSessionOutput(s), nil
}

func (a ViewerAPI) closeSession(c *gin.Context, _ *struct{}) (gin.H, error) {
	a.core.CloseSession(c.Param("id"))
	return gin.H{"msg": "ok"}, nil
}

type switchModeInput struct {
	Mode string `json:"mode" binding:"required"` // live / video / image
}

func (a ViewerAPI) switchMode(c *gin.Context, in *switchModeInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}
	s.SwitchMode(viewer.Mode(in.Mode))
	return toSessionOutput(s), nil
}

type switchPipelineInput struct {
	PipelineID string `json:"pipeline_id" binding:"required"`
}

func (a ViewerAPI) switchPipeline(c *gin.Context, in *switchPipelineInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}
	s.SwitchPipeline(in.PipelineID)
	return toSessionOutput(s), nil
}

type selectDetectorInput struct {
	DetectorID string `json:"detector_id" binding:"required"` // 检测器 ID 或 none
}

func (a ViewerAPI) selectDetector(c *gin.Context, in *selectDetectorInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}
	s.SelectDetector(in.DetectorID)
	return toSessionOutput(s), nil
}

// selectClockInput 时分选择器与时间轴跳转
// 给 at（RFC3339）按时刻跳转，否则按展示时区的年月日时（分）跳转
type selectClockInput struct {
	At     string `json:"at"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Day    int    `json:"day"`
	Hour   int    `json:"hour"`
	Minute *int   `json:"minute"` // 缺省表示整点
}

func (a ViewerAPI) selectClock(c *gin.Context, in *selectClockInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}

	if in.At != "" {
		at, err := time.Parse(time.RFC3339, in.At)
		if err != nil {
			return sessionOutput{}, reason.ErrBadRequest.Withf("at: %s", err)
		}
		s.Seek(at)
		return toSessionOutput(s), nil
	}

	if in.Year <= 0 || in.Month < 1 || in.Month > 12 || in.Day <= 0 || in.Hour < 0 || in.Hour > 23 {
		return sessionOutput{}, reason.ErrBadRequest.Withf("invalid date fields")
	}
	minute := -1
	if in.Minute != nil {
		minute = *in.Minute
	}
	s.SelectHour(in.Year, time.Month(in.Month), in.Day, in.Hour, minute)
	return toSessionOutput(s), nil
}

// progressInput 播放进度上报
// ended=true 表示当前视频播完，触发窗口内无缝衔接
type progressInput struct {
	ElapsedS float64 `json:"elapsed_s"`
	Ended    bool    `json:"ended"`
	Paused   *bool   `json:"paused"`
}

func (a ViewerAPI) progress(c *gin.Context, in *progressInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}

	switch {
	case in.Ended:
		s.OnUnitEnded()
	case in.Paused != nil && *in.Paused:
		s.Pause()
	case in.Paused != nil:
		s.Resume()
	default:
		s.Progress(time.Duration(in.ElapsedS * float64(time.Second)))
	}
	return toSessionOutput(s), nil
}

// refreshLiveInput 直播会话刷新
// expired=true 是播放器的过期回调，静默续期；否则是用户显式重试
type refreshLiveInput struct {
	Expired bool `json:"expired"`
}

func (a ViewerAPI) refreshLive(c *gin.Context, in *refreshLiveInput) (sessionOutput, error) {
	s, err := a.core.GetSession(c.Param("id"))
	if err != nil {
		return sessionOutput{}, err
	}
	if in.Expired {
		s.OnLiveSessionExpired()
	} else {
		s.RefreshLive()
	}
	return toSessionOutput(s), nil
}
