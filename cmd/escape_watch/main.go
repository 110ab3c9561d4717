package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgnsrekt/webview_escape/internal/browser"
	"github.com/dgnsrekt/webview_escape/internal/config"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/watch"
)

// escape_watch attaches to a browser page and completes sentinel escape
// round-trips: whenever the page comes back carrying the escape sentinel
// it navigates once to the stripped canonical URL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.StartURL,
			ProfileDir: cfg.ProfileDir,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("browser launch failed", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	watcher := watch.NewWatcher(cfg.CDPURL(), cfg.PageURLFilter)
	watcher.OnTransition = func(from, to remedy.State, url string) {
		slog.Info("sentinel state changed", "from", from, "to", to, "url", url)
	}
	if err := watcher.Start(ctx); err != nil {
		slog.Error("watcher start failed", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("escape_watch shutting down")
}
