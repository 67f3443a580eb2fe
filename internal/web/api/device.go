package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/adapter/onvifadapter"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/pkg/msapi"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// DeviceAPI 设备与管道管理接口
type DeviceAPI struct {
	deviceCore device.Core
	onvif      *onvifadapter.Adapter
	ms         msapi.Engine
}

func NewDeviceAPI(core device.Core, adapter *onvifadapter.Adapter, ms msapi.Engine) DeviceAPI {
	return DeviceAPI{deviceCore: core, onvif: adapter, ms: ms}
}

func registerDevice(g gin.IRouter, api DeviceAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/devices")
	group.GET("", web.WrapH(api.findDevices))
	group.GET("/discover", api.discover)
	group.GET("/:id", web.WrapH(api.getDevice))
	group.GET("/:id/pipelines", web.WrapH(api.findPipelines))
	group.POST("", append(handler, web.WrapH(api.addDevice))...)
	group.PUT("/:id", append(handler, web.WrapH(api.editDevice))...)
	group.DELETE("/:id", append(handler, web.WrapH(api.delDevice))...)
	group.POST("/:id/pipelines/sync", append(handler, web.WrapH(api.syncPipelines))...)
	group.POST("/:id/pipelines/:pipeline_id/pull", append(handler, web.WrapH(api.pullPipeline))...)
}

func (a DeviceAPI) findDevices(c *gin.Context, in *device.FindDeviceInput) (any, error) {
	items, total, err := a.deviceCore.FindDevices(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a DeviceAPI) getDevice(c *gin.Context, _ *struct{}) (*device.Device, error) {
	return a.deviceCore.GetDevice(c.Request.Context(), c.Param("id"))
}

// addDevice 添加设备并触发 ONVIF 校验与管道同步
func (a DeviceAPI) addDevice(c *gin.Context, in *device.AddDeviceInput) (*device.Device, error) {
	ctx := c.Request.Context()

	dev, err := a.deviceCore.AddDevice(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := a.onvif.ValidateDevice(ctx, dev); err != nil {
		// 设备暂时不可达也先入库，心跳协程后续拉起
		return dev, nil
	}
	_ = a.onvif.InitDevice(ctx, dev)
	return dev, nil
}

func (a DeviceAPI) editDevice(c *gin.Context, in *device.EditDeviceInput) (*device.Device, error) {
	return a.deviceCore.EditDevice(c.Request.Context(), in, c.Param("id"))
}

func (a DeviceAPI) delDevice(c *gin.Context, _ *struct{}) (*device.Device, error) {
	ctx := c.Request.Context()
	dev, err := a.deviceCore.DelDevice(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	_ = a.onvif.DeleteDevice(ctx, dev)
	return dev, nil
}

func (a DeviceAPI) findPipelines(c *gin.Context, in *device.FindPipelineInput) (any, error) {
	in.DeviceID = c.Param("id")
	items, total, err := a.deviceCore.FindPipelines(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// syncPipelines 从设备 ONVIF profile 增量同步管道
func (a DeviceAPI) syncPipelines(c *gin.Context, _ *struct{}) (any, error) {
	ctx := c.Request.Context()
	dev, err := a.deviceCore.GetDevice(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := a.onvif.SyncPipelines(ctx, dev); err != nil {
		return nil, err
	}
	var in device.FindPipelineInput
	in.DeviceID = dev.ID
	in.Page, in.Size = 1, 200
	items, total, err := a.deviceCore.FindPipelines(ctx, &in)
	return gin.H{"items": items, "total": total}, err
}

// pullPipeline 让流媒体服务代理拉取管道源流
// 直播会话签发前流不在线时调用，拉起后由流媒体服务按回调入库
func (a DeviceAPI) pullPipeline(c *gin.Context, _ *struct{}) (gin.H, error) {
	ctx := c.Request.Context()
	pl, err := a.deviceCore.GetPipeline(ctx, c.Param("pipeline_id"))
	if err != nil {
		return nil, err
	}
	uri, err := a.onvif.StreamURI(ctx, c.Param("id"), pl.Stream)
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	resp, err := a.ms.AddStreamProxy(ctx, msapi.AddStreamProxyRequest{
		App:    pl.App,
		Stream: pl.Stream,
		URL:    uri,
	})
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	return gin.H{"key": resp.Data.Key}, nil
}

// discover 以 SSE 推送局域网 ONVIF 设备发现结果
func (a DeviceAPI) discover(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	if err := a.onvif.Discover(c.Request.Context(), c.Writer); err != nil {
		web.Fail(c, err)
	}
}
