package msapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	sessionPath     = "/index/api/getLiveSession"
	streamProxyPath = "/index/api/addStreamProxy"
	snapshotPath    = "/index/api/getSnap"
)

// LiveSession 短时签名直播会话
type LiveSession struct {
	URI         string `json:"uri"`          // 带签名的播放地址
	ExpiresHint int    `json:"expires_hint"` // 预期有效期（秒），0 表示未知
}

// GetLiveSessionResponse 直播会话响应
type GetLiveSessionResponse struct {
	FixedHeader
	Data LiveSession `json:"data"`
}

// GetLiveSession 获取直播会话
// 会话过期后需要重新获取，播放地址不可长期缓存
func (e *Engine) GetLiveSession(ctx context.Context, app, stream string) (*LiveSession, error) {
	var resp GetLiveSessionResponse
	if err := e.post(ctx, sessionPath, map[string]any{
		"app":    app,
		"stream": stream,
	}, &resp); err != nil {
		return nil, err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AddStreamProxyRequest 拉流代理请求参数
type AddStreamProxyRequest struct {
	App    string `json:"app"`    // 应用名
	Stream string `json:"stream"` // 流 ID
	URL    string `json:"url"`    // 拉流地址，如 rtsp://
}

// AddStreamProxyResponse 拉流代理响应
type AddStreamProxyResponse struct {
	FixedHeader
	Data struct {
		Key string `json:"key"` // 代理标识，停止代理时使用
	} `json:"data"`
}

// AddStreamProxy 让流媒体服务代理拉取设备源流
// 直播会话建立时若流不在线，先通过该接口把设备流拉上来
func (e *Engine) AddStreamProxy(ctx context.Context, req AddStreamProxyRequest) (*AddStreamProxyResponse, error) {
	var resp AddStreamProxyResponse
	if err := e.post(ctx, streamProxyPath, map[string]any{
		"app":    req.App,
		"stream": req.Stream,
		"url":    req.URL,
	}, &resp); err != nil {
		return nil, err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSnapshot 获取流的快照图片
// 用法示例：
//
//	engine := msapi.NewEngine().SetConfig(msapi.Config{URL: "http://localhost:8080"})
//	imageData, err := engine.GetSnapshot(ctx, "live", "cam-1-main")
func (e *Engine) GetSnapshot(ctx context.Context, app, stream string) ([]byte, error) {
	url := fmt.Sprintf("%s%s?secret=%s&app=%s&stream=%s", e.cfg.URL, snapshotPath, e.cfg.Secret, app, stream)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := e.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
