// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/auth"
	"github.com/record-harvest/harvest/internal/browser"
	"github.com/record-harvest/harvest/internal/config"
	"github.com/record-harvest/harvest/internal/detect"
	"github.com/record-harvest/harvest/internal/harvest"
	"github.com/record-harvest/harvest/internal/paginate"
	"github.com/record-harvest/harvest/internal/ratelimit"
	"github.com/record-harvest/harvest/internal/retry"
	"github.com/record-harvest/harvest/internal/session"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/internal/transform"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Sessions *session.Store
	Limiter  ratelimit.Limiter

	// AuthPrompt is the human-in-the-loop fallback used when a gated site
	// needs a login but no credentials are configured. The CLI installs a
	// terminal prompt here; nil disables the fallback.
	AuthPrompt auth.ManualFunc

	browserMu sync.Mutex
	browser   *browser.Manager

	startTime time.Time
}

// New creates and initializes a new Application. The browser process is
// started lazily so commands that never navigate (session listing, help)
// stay browser-free.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
		})
	}
	logger := zerolog.New(logWriter).Level(logLevel).With().Timestamp().Logger()

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Sessions:  session.NewStore(),
		Limiter:   ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		startTime: time.Now(),
	}

	logger.Debug().Msg("Application initialized")
	return app, nil
}

// EnsureBrowser lazily starts the shared browser process.
func (a *Application) EnsureBrowser(ctx context.Context) (*browser.Manager, error) {
	a.browserMu.Lock()
	defer a.browserMu.Unlock()

	if a.browser != nil {
		return a.browser, nil
	}

	mgr := browser.NewManager(browser.Options{
		Headless:   a.Config.Headless,
		ChromePath: a.Config.ChromePath,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Config.Proxy,
	}, a.Logger)

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	a.browser = mgr
	a.Logger.Info().Bool("headless", a.Config.Headless).Msg("Browser started")
	return mgr, nil
}

// Pipeline bundles everything one harvest run needs. Close releases the
// tab pool but leaves the shared browser running for later runs.
type Pipeline struct {
	Orchestrator *harvest.Orchestrator
	Pool         *browser.Pool
}

func (p *Pipeline) Close() error {
	return p.Pool.Close()
}

// NewPipeline wires the harvest pipeline for one site. When sessionName
// names a stored session its cookies prime every tab in the pool.
func (a *Application) NewPipeline(ctx context.Context, profile *sites.Profile, sessionName, transformPath string) (*Pipeline, error) {
	mgr, err := a.EnsureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	var state *session.State
	if sessionName != "" {
		state, err = a.Sessions.Load(sessionName)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %q: %w", sessionName, err)
		}
		a.Logger.Info().Str("session", sessionName).Int("cookies", len(state.Cookies)).Msg("Session loaded")
	}

	pool, err := browser.NewPool(ctx, a.Config.PoolSize, func(ctx context.Context) (browser.Surface, error) {
		return mgr.NewTab(ctx, state)
	}, a.Logger)
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		MaxRetries:    a.Config.MaxRetries,
		InitialDelay:  a.Config.RetryInitialDelay,
		BackoffFactor: a.Config.RetryBackoffFactor,
	}
	detector := detect.New(a.Config.MinContentLength, a.Logger)
	controller := paginate.NewController(profile, detector, policy, a.Limiter, paginate.Config{
		MaxRecords:     a.Config.MaxPerTerm,
		EmptyThreshold: a.Config.EmptyThreshold,
		PageDelayMin:   a.Config.PageDelayMin,
		PageDelayMax:   a.Config.PageDelayMax,
		WaitTimeout:    a.Config.WaitTimeout,
	}, a.Logger)

	orch := harvest.NewOrchestrator(profile, pool, controller,
		harvest.NewEnricher(profile, a.Logger),
		harvest.Config{
			TermDelayMin: a.Config.TermDelayMin,
			TermDelayMax: a.Config.TermDelayMax,
		}, a.Logger)

	if profile.RequiresAuth {
		authenticator := auth.NewAuthenticator(profile, auth.Credentials{
			Username: a.Config.Username,
			Password: a.Config.Password,
		}, a.Logger).WithManual(a.AuthPrompt)
		orch.WithAuth(authenticator.EnsureSession)
	}

	if transformPath != "" {
		hook, err := transform.Load(transformPath, a.Logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		orch.WithTransform(hook.Apply)
	}

	return &Pipeline{Orchestrator: orch, Pool: pool}, nil
}

// Browser returns the shared manager, or nil before EnsureBrowser.
func (a *Application) Browser() *browser.Manager {
	a.browserMu.Lock()
	defer a.browserMu.Unlock()
	return a.browser
}

// Close gracefully shuts down the application and all its resources.
// Errors during shutdown are logged but do not stop later steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	a.browserMu.Lock()
	mgr := a.browser
	a.browser = nil
	a.browserMu.Unlock()

	if mgr != nil {
		if err := mgr.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser")
		}
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
