package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/editor"
)

func main() {
	configPath := flag.String("config", "", "path to editor config file")
	flag.Parse()

	cfg, err := editor.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ed := editor.New(cfg, logger)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := ed.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error starting editor:", err)
		os.Exit(1)
	}

	<-stopCh
	cancel()
	if err := ed.Stop(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error stopping editor:", err)
	}
}
