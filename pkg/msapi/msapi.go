// Package msapi 流媒体服务 HTTP API 客户端
package msapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	URL    string // 流媒体服务地址，如 http://127.0.0.1:8080
	Secret string // API 密钥
}

type Engine struct {
	cfg Config
	cli *http.Client
}

func NewEngine() Engine {
	return Engine{
		cli: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        30,
				MaxIdleConnsPerHost: 30,
				MaxConnsPerHost:     100,
			},
		},
	}
}

func (e Engine) SetConfig(cfg Config) Engine {
	e.cfg = cfg
	return e
}

// FixedHeader 流媒体服务统一响应头
type FixedHeader struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ErrHandle 统一错误码处理
func (e *Engine) ErrHandle(code int, msg string) error {
	if code == CodeSuccess {
		return nil
	}
	if m, ok := codeMsgMap[code]; ok {
		return fmt.Errorf("%s(%d): %s", m, code, msg)
	}
	return fmt.Errorf("media server error(%d): %s", code, msg)
}

// post 发送 POST 请求到流媒体服务 API
// 用法示例：e.post(ctx, "/api/path", map[string]any{"key": "value"}, &response)
func (e *Engine) post(ctx context.Context, path string, data map[string]any, out any) error {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["secret"] = e.cfg.Secret
	body, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}
