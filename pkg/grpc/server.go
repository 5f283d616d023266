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

// Package grpc wraps the gRPC server and client plumbing shared by the
// discovery handler binaries.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	grpcstats "google.golang.org/grpc/stats"
	"google.golang.org/grpc/status"

	"github.com/carverauto/discovery-handler/pkg/logger"
	discoverypb "github.com/carverauto/discovery-handler/proto"
)

const (
	shutdownTimer  = 5 * time.Second
	unixScheme     = "unix://"
	socketDirPerms = 0o755
)

// ServerOption is a function type that modifies Server configuration.
type ServerOption func(*Server)

type loggerKey struct{}

// Server wraps a gRPC server with health, reflection and telemetry.
type Server struct {
	srv               *grpc.Server
	healthCheck       *health.Server
	addr              string
	logger            logger.Logger
	mu                sync.RWMutex
	services          map[string]struct{}
	serverOpts        []grpc.ServerOption
	healthRegistered  bool
	telemetryDisabled bool
	telemetryFilter   TelemetryFilter
	socketPath        string
}

// NewServer creates a server for addr. An address that starts with "unix://"
// or "/" is a unix socket path, anything else is a TCP host:port.
func NewServer(addr string, log logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		addr:     addr,
		logger:   log,
		services: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	defaultOpts := []grpc.ServerOption{
		grpc.ForceServerCodec(discoverypb.Codec{}),
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(log),
			RecoveryInterceptor(log),
		),
		grpc.ChainStreamInterceptor(
			StreamLoggingInterceptor(log),
			StreamRecoveryInterceptor(log),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 10 * time.Minute,
			Time:              120 * time.Second,
			Timeout:           20 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	if !s.telemetryDisabled {
		var handlerOpts []otelgrpc.Option
		if s.telemetryFilter != nil {
			handlerOpts = append(handlerOpts, otelgrpc.WithFilter(func(info *grpcstats.RPCTagInfo) bool {
				return s.telemetryFilter(info)
			}))
		}

		defaultOpts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler(handlerOpts...))}, defaultOpts...)
	}

	s.serverOpts = append(defaultOpts, s.serverOpts...)
	s.srv = grpc.NewServer(s.serverOpts...)
	s.healthCheck = health.NewServer()

	reflection.Register(s.srv)

	return s
}

// WithServerOptions adds gRPC server options.
func WithServerOptions(opt ...grpc.ServerOption) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, opt...)
	}
}

// TelemetryFilter allows callers to suppress traces for matching RPCs.
type TelemetryFilter func(*grpcstats.RPCTagInfo) bool

// WithTelemetryFilter configures which RPCs emit telemetry.
func WithTelemetryFilter(filter TelemetryFilter) ServerOption {
	return func(s *Server) {
		s.telemetryFilter = filter
	}
}

// WithTelemetryDisabled disables the OpenTelemetry stats handler.
func WithTelemetryDisabled() ServerOption {
	return func(s *Server) {
		s.telemetryDisabled = true
	}
}

// WithMaxRecvSize sets the maximum receive message size.
func WithMaxRecvSize(size int) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, grpc.MaxRecvMsgSize(size))
	}
}

// WithMaxSendSize sets the maximum send message size.
func WithMaxSendSize(size int) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, grpc.MaxSendMsgSize(size))
	}
}

// GetGRPCServer returns the underlying gRPC server.
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.srv
}

// GetHealthCheck returns the health server instance.
func (s *Server) GetHealthCheck() *health.Server {
	return s.healthCheck
}

// RegisterHealthServer registers the health service once.
func (s *Server) RegisterHealthServer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.healthRegistered {
		return errHealthServerRegistered
	}

	healthpb.RegisterHealthServer(s.srv, s.healthCheck)
	s.healthRegistered = true

	return nil
}

// RegisterService registers a service and marks it SERVING.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[desc.ServiceName] = struct{}{}
	s.srv.RegisterService(desc, impl)
	s.healthCheck.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// SplitAddress returns the listen network and address for addr.
func SplitAddress(addr string) (network, address string) {
	switch {
	case strings.HasPrefix(addr, unixScheme):
		return "unix", strings.TrimPrefix(addr, unixScheme)
	case strings.HasPrefix(addr, "/"):
		return "unix", addr
	default:
		return "tcp", addr
	}
}

// IsUnixAddress reports whether addr names a unix socket.
func IsUnixAddress(addr string) bool {
	network, _ := SplitAddress(addr)

	return network == "unix"
}

// Listen opens the server's listener. A stale socket file left by a previous
// run is removed first.
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	network, address := SplitAddress(s.addr)
	if address == "" {
		return nil, errEmptyAddress
	}

	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(address), socketDirPerms); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}

		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}

		s.mu.Lock()
		s.socketPath = address
		s.mu.Unlock()
	}

	lc := &net.ListenConfig{}

	lis, err := lc.Listen(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	return lis, nil
}

// Start listens on the configured address and serves until stopped.
func (s *Server) Start() error {
	lis, err := s.Listen(context.Background())
	if err != nil {
		return err
	}

	return s.Serve(lis)
}

// Serve serves on lis until the server is stopped.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.RegisterHealthServer(); err != nil && !errors.Is(err, errHealthServerRegistered) {
		return err
	}

	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server listening")

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop marks services NOT_SERVING and stops gracefully, forcing the stop
// after a timeout or when ctx ends.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for service := range s.services {
		s.healthCheck.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	s.healthCheck.Shutdown()

	stopped := make(chan struct{})

	go func() {
		s.srv.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(shutdownTimer)
	defer timer.Stop()

	select {
	case <-stopped:
		s.logger.Info().Msg("gRPC server stopped gracefully")
	case <-timer.C:
		s.logger.Warn().Msg("gRPC server shutdown timed out, forcing stop")
		s.srv.Stop()
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown context ended, forcing stop")
		s.srv.Stop()
	}

	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("socket", s.socketPath).Msg("Failed to remove socket")
		}
	}
}

// requestLogger adds trace and span ids when ctx carries a sampled span.
func requestLogger(ctx context.Context, log logger.Logger) logger.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return log
	}

	return &loggerWrapper{logger: log.WithFields(map[string]interface{}{
		"trace_id": spanCtx.TraceID().String(),
		"span_id":  spanCtx.SpanID().String(),
	})}
}

// LoggingInterceptor logs unary calls and injects a trace-aware logger into the context.
func LoggingInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		reqLog := requestLogger(ctx, log)

		resp, err := handler(context.WithValue(ctx, loggerKey{}, reqLog), req)

		reqLog.Debug().
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("gRPC call")

		return resp, err
	}
}

// StreamLoggingInterceptor is the streaming counterpart of LoggingInterceptor.
func StreamLoggingInterceptor(log logger.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		reqLog := requestLogger(ss.Context(), log)

		reqLog.Debug().Str("method", info.FullMethod).Msg("gRPC stream opened")

		err := handler(srv, &contextStream{
			ServerStream: ss,
			ctx:          context.WithValue(ss.Context(), loggerKey{}, reqLog),
		})

		reqLog.Debug().
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("gRPC stream closed")

		return err
	}
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (c *contextStream) Context() context.Context {
	return c.ctx
}

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("method", info.FullMethod).Interface("panic", r).Msg("Recovered from panic")

				err = status.Error(codes.Internal, errInternalError.Error())
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor turns stream handler panics into Internal errors.
func StreamRecoveryInterceptor(log logger.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("method", info.FullMethod).Interface("panic", r).Msg("Recovered from panic")

				err = status.Error(codes.Internal, errInternalError.Error())
			}
		}()

		return handler(srv, ss)
	}
}

// FromContext returns the request logger set by the interceptors, or a
// discarding logger.
func FromContext(ctx context.Context) logger.Logger {
	return GetLogger(ctx, logger.NewTestLogger())
}

// GetLogger returns the request logger set by the interceptors, or defaultLogger.
func GetLogger(ctx context.Context, defaultLogger logger.Logger) logger.Logger {
	if l, ok := ctx.Value(loggerKey{}).(logger.Logger); ok {
		return l
	}

	return defaultLogger
}

// loggerWrapper adapts a zerolog.Logger to logger.Logger.
type loggerWrapper struct {
	logger zerolog.Logger
}

func (l *loggerWrapper) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *loggerWrapper) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *loggerWrapper) Info() *zerolog.Event  { return l.logger.Info() }
func (l *loggerWrapper) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *loggerWrapper) Error() *zerolog.Event { return l.logger.Error() }
func (l *loggerWrapper) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *loggerWrapper) Panic() *zerolog.Event { return l.logger.Panic() }
func (l *loggerWrapper) With() zerolog.Context { return l.logger.With() }

func (l *loggerWrapper) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *loggerWrapper) WithFields(fields map[string]interface{}) zerolog.Logger {
	return l.logger.With().Fields(fields).Logger()
}

func (l *loggerWrapper) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *loggerWrapper) SetDebug(debug bool) {
	if debug {
		l.logger = l.logger.Level(zerolog.DebugLevel)
	} else {
		l.logger = l.logger.Level(zerolog.InfoLevel)
	}
}
