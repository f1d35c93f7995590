package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"wisfind/internal/action"
	"wisfind/internal/broker"
	"wisfind/internal/config"
	"wisfind/internal/constants"
	"wisfind/internal/constraint"
	"wisfind/internal/logger"
	"wisfind/internal/pipeline"
	"wisfind/pkg/metrics"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	predicate constraint.Predicate
	act       action.Action

	consumer broker.Consumer
	driver   *pipeline.Driver
	server   *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger, predicate constraint.Predicate, act action.Action) *App {
	return &App{
		cfg:       cfg,
		logger:    log,
		predicate: predicate,
		act:       act,
	}
}

func (a *App) Initialize() error {
	consumer, err := broker.NewConsumer(a.cfg.Broker, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	a.consumer = consumer

	a.driver = pipeline.NewDriver(consumer, a.predicate, a.act, a.cfg.Validation.Strict, a.logger)

	metrics.RegisterPipelineMetrics()
	metrics.RegisterBrokerMetrics()

	if a.cfg.Metrics.Port > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.server = &http.Server{
			Addr:    fmt.Sprintf(":%d", a.cfg.Metrics.Port),
			Handler: mux,
		}
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.logger.Infow("Metrics server starting", "port", a.cfg.Metrics.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer a.consumer.Close()
		return a.driver.Run(gCtx)
	})

	return g.Wait()
}
