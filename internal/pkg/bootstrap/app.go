// Package bootstrap holds the startup and shutdown sequence shared by all
// storefront services.
package bootstrap

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/tracing"
)

var currentConfig *config.Config

// Init loads the deployment configuration. Must be called before
// StartService; mains call it first so they can wire backends from config.
func Init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	currentConfig = cfg
}

// GetCurrentConfig returns the configuration loaded by Init.
func GetCurrentConfig() *config.Config {
	if currentConfig == nil {
		Init()
	}
	return currentConfig
}

// Task is a supervised background job (e.g. a message consumer). Run blocks
// until ctx is cancelled; it must recover from transient failures itself and
// only return when asked to stop.
type Task interface {
	Name() string
	Run(ctx context.Context)
}

// AppCtx is handed to RegisterHandlers so a service can attach routes and
// background tasks.
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config

	tasks *[]Task
}

// AddTask registers a background task to be supervised alongside the HTTP
// server. Tasks start before the server accepts traffic but must never block
// registration.
func (a AppCtx) AddTask(t Task) {
	*a.tasks = append(*a.tasks, t)
}

// AppInfo describes one service to StartService.
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
}

// StartService runs the common lifecycle: tracing, route registration,
// background tasks, HTTP serving, and graceful shutdown on SIGINT/SIGTERM.
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	var tasks []Task
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg, tasks: &tasks})
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}

	g, gctx := errgroup.WithContext(rootCtx)
	for _, t := range tasks {
		task := t
		g.Go(func() error {
			log.Info().Str("task", task.Name()).Msg("background task started")
			task.Run(gctx)
			log.Info().Str("task", task.Name()).Msg("background task stopped")
			return nil
		})
	}
	g.Go(func() error {
		log.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down http server")
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msgf("%s exited with error", info.ServiceName)
	}
	log.Info().Msgf("%s gracefully shut down", info.ServiceName)
}
