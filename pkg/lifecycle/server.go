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

// Package lifecycle runs a service behind a gRPC server and handles shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	ggrpc "github.com/carverauto/discovery-handler/pkg/grpc"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const shutdownTimeout = 10 * time.Second

var errServiceRequired = errors.New("service is required")

// Service is the long-running part of a binary. Start must return once the
// service is running; Stop must release everything Start acquired.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// GRPCServiceRegistrar registers services on the server before it starts.
type GRPCServiceRegistrar func(*grpc.Server) error

// ServerOptions configures RunServer.
type ServerOptions struct {
	ListenAddr           string
	ServiceName          string
	Service              Service
	RegisterGRPCServices []GRPCServiceRegistrar
	EnableHealthCheck    bool
	Security             *models.SecurityConfig
	Logger               logger.Logger
	ServerOptions        []ggrpc.ServerOption
}

// RunServer starts opts.Service and serves gRPC on opts.ListenAddr until ctx
// ends or the process receives SIGINT or SIGTERM.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, provider, err := setupGRPCServer(ctx, opts, log)
	if err != nil {
		return err
	}

	defer func() { _ = provider.Close() }()

	for _, register := range opts.RegisterGRPCServices {
		if err := register(srv.GetGRPCServer()); err != nil {
			return fmt.Errorf("failed to register gRPC service: %w", err)
		}
	}

	if opts.EnableHealthCheck {
		if err := srv.RegisterHealthServer(); err != nil {
			return fmt.Errorf("failed to register health server: %w", err)
		}

		if opts.ServiceName != "" {
			srv.GetHealthCheck().SetServingStatus(opts.ServiceName, healthpb.HealthCheckResponse_SERVING)
		}

		for name := range srv.GetGRPCServer().GetServiceInfo() {
			srv.GetHealthCheck().SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
		}
	}

	lis, err := srv.Listen(ctx)
	if err != nil {
		return err
	}

	if err := opts.Service.Start(ctx); err != nil {
		_ = lis.Close()

		return fmt.Errorf("failed to start service: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(lis)
	}()

	log.Info().Str("addr", opts.ListenAddr).Str("service", opts.ServiceName).Msg("Service started")

	var serveErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown requested")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("gRPC server exited")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	srv.Stop(shutdownCtx)

	if err := opts.Service.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Service stop failed")

		return errors.Join(serveErr, err)
	}

	return serveErr
}

func setupGRPCServer(ctx context.Context, opts *ServerOptions, log logger.Logger) (*ggrpc.Server, ggrpc.SecurityProvider, error) {
	var provider ggrpc.SecurityProvider = ggrpc.NoSecurityProvider{}

	if !ggrpc.IsUnixAddress(opts.ListenAddr) {
		var err error

		provider, err = ggrpc.NewSecurityProvider(ctx, opts.Security, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create security provider: %w", err)
		}
	}

	creds, err := provider.GetServerCredentials(ctx)
	if err != nil {
		_ = provider.Close()

		return nil, nil, fmt.Errorf("failed to get server credentials: %w", err)
	}

	serverOpts := append([]ggrpc.ServerOption{ggrpc.WithServerOptions(creds)}, opts.ServerOptions...)

	return ggrpc.NewServer(opts.ListenAddr, log, serverOpts...), provider, nil
}
