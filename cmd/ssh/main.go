package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"finndex/internal/config"
	"finndex/internal/tui"
	"finndex/internal/widget"
	"finndex/pkg/logger"
	"finndex/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "finndex-ssh"

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initLoggerFunc     = logger.Init
	initTracerFunc     = tracing.InitTracer
	newFetchClientFunc = func(tracer trace.Tracer, timeout time.Duration) widget.Fetcher {
		return widget.NewFetchClient(tracer, timeout)
	}
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}
	log := logger.Get().With("component", "ssh")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Errorf("error shutting down tracer provider: %v", err)
		}
	}()

	deps := tui.Deps{
		Tracer:          tracer,
		Log:             log,
		Fetcher:         newFetchClientFunc(tracer, time.Duration(cfg.WidgetHTTPTimeoutSecs)*time.Second),
		APIBaseURL:      cfg.WidgetAPIBaseURL,
		StartOffsetDays: cfg.WidgetStartOffsetDays,
		WindowDays:      cfg.WidgetWindowDays,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			log.Infow("ssh session accepted", "user", ctx.User(), "fingerprint", gossh.FingerprintSHA256(key))
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(sessionHandler(deps)),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Infow("ssh server listening", "addr", addr, "api", cfg.WidgetAPIBaseURL)
			if err := srv.ListenAndServe(); err != nil {
				log.Infof("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("SSH server shutdown error: %v", err)
		}
	}

	log.Info("SSH server exited")
}

// sessionHandler starts one dashboard per session. `ssh host dual` opens the
// sentiment and price view.
func sessionHandler(deps tui.Deps) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		variant := widget.SingleSeries
		if cmd := s.Command(); len(cmd) > 0 {
			variant = widget.ParseVariant(cmd[0])
		}

		sessionDeps := deps
		sessionDeps.Log = deps.Log.With("user", s.User(), "variant", variant.String())

		model := tui.NewModel(sessionDeps, variant)
		if pty, _, ok := s.Pty(); ok {
			model.SetSize(pty.Window.Width, pty.Window.Height)
		}
		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
