package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/webview_escape/internal/api"
	"github.com/dgnsrekt/webview_escape/internal/browserenv"
	"github.com/dgnsrekt/webview_escape/internal/config"
	"github.com/dgnsrekt/webview_escape/internal/controller"
	"github.com/dgnsrekt/webview_escape/internal/events"
	"github.com/dgnsrekt/webview_escape/internal/evidence"
	"github.com/dgnsrekt/webview_escape/internal/journal"
	"github.com/dgnsrekt/webview_escape/internal/netutil"
	"github.com/dgnsrekt/webview_escape/internal/signature"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("escape_controller config loaded",
		"bind_addr", cfg.BindAddr,
		"cdp_url", cfg.CDPURL(),
		"page_url_filter", cfg.PageURLFilter,
		"eval_timeout_ms", cfg.EvalTimeoutMS,
		"signature_overlay", cfg.SignatureOverlay,
		"journal_enabled", cfg.JournalEnabled,
		"evidence_dir", cfg.EvidenceDir,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	table := signature.NewTable()
	if cfg.SignatureOverlay != "" {
		table, err = signature.NewTableWithOverlay(cfg.SignatureOverlay)
		if err != nil {
			slog.Error("failed to load signature overlay", "path", cfg.SignatureOverlay, "error", err)
			os.Exit(1)
		}
	}

	cdpClient := browserenv.NewClient(cfg.CDPURL(), cfg.PageURLFilter, time.Duration(cfg.EvalTimeoutMS)*time.Millisecond)
	if err := cdpClient.Connect(context.Background()); err != nil {
		// A missing browser is not fatal: detect/decide/dialog endpoints
		// still work, only live-page operations will report errors.
		slog.Warn("CDP connect failed, running without a live page", "cdp_url", cfg.CDPURL(), "error", err)
	}
	defer func() {
		if err := cdpClient.Close(); err != nil {
			slog.Debug("CDP client close failed", "error", err)
		}
	}()

	var opts []controller.Option
	if cfg.JournalEnabled {
		jw := journal.NewWriter(cfg.JournalDir, cfg.JournalBufferSize, cfg.JournalMaxSizeMB)
		defer func() {
			if err := jw.Close(); err != nil {
				slog.Debug("journal close failed", "error", err)
			}
		}()
		opts = append(opts, controller.WithJournal(jw))
	}
	if cfg.NotifyEndpoint != "" {
		opts = append(opts, controller.WithNotifyEndpoint(cfg.NotifyEndpoint))
	}
	if cfg.EvidenceDir != "" {
		store, err := evidence.NewStore(cfg.EvidenceDir)
		if err != nil {
			slog.Warn("evidence store unavailable", "dir", cfg.EvidenceDir, "error", err)
		} else {
			opts = append(opts, controller.WithEvidence(store))
		}
	}
	broker := events.NewBroker()
	opts = append(opts, controller.WithEvents(broker))

	svc := controller.NewService(table, cdpClient, opts...)
	h := api.NewServer(svc, broker)

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("escape_controller listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("escape_controller server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("escape_controller shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
