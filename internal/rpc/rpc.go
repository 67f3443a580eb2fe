package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// AnalysisClient 封装检测分析服务的 gRPC 连接
// 标注由分析服务经 webhook 回推，这里只维护连接与健康探测
type AnalysisClient struct {
	conn   *grpc.ClientConn
	health grpc_health_v1.HealthClient
}

// NewAnalysisClient 创建检测分析服务客户端，addr 为空表示未接入
func NewAnalysisClient(addr string) *AnalysisClient {
	if addr == "" {
		return nil
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		slog.Error("NewAnalysisClient", "err", err)
		return nil
	}

	c := AnalysisClient{
		conn:   conn,
		health: grpc_health_v1.NewHealthClient(conn),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		if err != nil {
			slog.Error("HealthCheck", "err", err)
			return
		}
		if resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			slog.Info("HealthCheck OK", "resp", resp)
		} else {
			slog.Error("HealthCheck", "resp", resp)
		}
	}()

	return &c
}

// Check 探测分析服务健康状态
func (c *AnalysisClient) Check(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING, nil
}

// Close 关闭连接
func (c *AnalysisClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
