/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/carverauto/discovery-handler/pkg/config"
	"github.com/carverauto/discovery-handler/pkg/handler"
	"github.com/carverauto/discovery-handler/pkg/lifecycle"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/pkg/version"
)

const serviceName = "discovery-handler"

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("Fatal error")
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file (optional, environment is always applied)")
	listenAddr := flag.String("listen", "", "Override listen address (host:port or unix socket path)")
	flag.Parse()

	ctx := context.Background()

	var cfg models.HandlerConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	if err := lifecycle.InitializeLogger(ctx, logConfig); err != nil {
		return err
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	log, err := lifecycle.CreateComponentLogger(ctx, serviceName, logConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	shutdownTracing := initTelemetry(ctx, &cfg, logConfig, log)
	defer shutdownTracing()

	h, err := handler.New(ctx, &cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create discovery handler: %w", err)
	}

	log.Info().
		Str("version", version.GetFullVersion()).
		Str("name", cfg.Name).
		Str("backend", cfg.Backend).
		Msg("Starting discovery handler")

	opts := &lifecycle.ServerOptions{
		ListenAddr:           h.ListenAddr(),
		ServiceName:          serviceName,
		Service:              h,
		RegisterGRPCServices: []lifecycle.GRPCServiceRegistrar{h.RegisterServices},
		EnableHealthCheck:    true,
		Security:             cfg.Security,
		Logger:               log,
	}

	if err := lifecycle.RunServer(ctx, opts); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Discovery handler stopped")

	return nil
}

// initTelemetry starts metric export and tracing when enabled. The returned
// func flushes the tracer provider.
func initTelemetry(ctx context.Context, cfg *models.HandlerConfig, logConfig *logger.Config, log logger.Logger) func() {
	noop := func() {}

	if cfg.Metrics == nil || !cfg.Metrics.Enabled {
		return noop
	}

	_, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    serviceName,
		OTel:           &logConfig.OTel,
		ExportInterval: time.Duration(cfg.Metrics.ExportInterval),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Metrics export not started")
	}

	if !cfg.Metrics.Tracing {
		return noop
	}

	tp, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName: serviceName,
		Logger:      log,
		OTel:        &logConfig.OTel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Tracing not started")

		return noop
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = tp.Shutdown(shutdownCtx)
	}
}
