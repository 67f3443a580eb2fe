package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gowvp/replay/internal/conf"
)

// Run 装配依赖并启动 HTTP 服务，阻塞到 ctx 取消后优雅退出
func Run(ctx context.Context, bc *conf.Bootstrap) error {
	handler, cleanup, err := wireApp(bc)
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}
	defer cleanup()

	svr := http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", svr.Addr)
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svr.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}
