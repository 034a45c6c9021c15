package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	timelinecmd "github.com/aliyun/tablestore-timeline-sub000/internal/cmd/timeline"
	cfgpkg "github.com/aliyun/tablestore-timeline-sub000/internal/config"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

func main() {
	// CLI logger; TIMELINE_LOG_LEVEL and TIMELINE_LOG_FORMAT apply.
	cfg := cfgpkg.Default()
	cfgpkg.FromEnv(&cfg)
	logger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect standard library logs to our logger
	logpkg.RedirectStdLog(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := timelinecmd.NewRoot(logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}
