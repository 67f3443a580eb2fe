package main

import (
	"context"
	"expvar"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gowvp/replay/internal/app"
	"github.com/gowvp/replay/internal/conf"
	"github.com/ixugo/goddd/pkg/system"
)

// 编译时经 -ldflags 注入
var (
	buildVersion = "dev"
	gitBranch    = "unknown"
	gitHash      = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "conf", filepath.Join(system.Getwd(), "configs", "config.toml"), "配置文件路径")
	flag.Parse()

	expvar.NewString("git_branch").Set(gitBranch)
	expvar.NewString("git_hash").Set(gitHash)

	bc, err := conf.Load(configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	setupLogger(bc.Debug)
	slog.Info("replay starting", "version", buildVersion, "branch", gitBranch, "hash", gitHash)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, bc); err != nil {
		slog.Error("run", "err", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
