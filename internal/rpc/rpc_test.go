package rpc

import (
	"context"
	"log/slog"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// TestHealthCheck 需要本地运行分析服务
// 用法示例：go test -v -run TestHealthCheck ./internal/rpc/
func TestHealthCheck(t *testing.T) {
	addr := "localhost:50051"
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	cli := grpc_health_v1.NewHealthClient(conn)
	resp, err := cli.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Skipf("analysis service unavailable: %v", err)
	}
	slog.Info("HealthCheck", "resp", resp)
}
