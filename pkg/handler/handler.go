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

// Package handler assembles a discovery handler process from its configuration.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/carverauto/discovery-handler/pkg/discovery"
	"github.com/carverauto/discovery-handler/pkg/echo"
	dhgrpc "github.com/carverauto/discovery-handler/pkg/grpc"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/pkg/natsutil"
	"github.com/carverauto/discovery-handler/pkg/onvif"
	"github.com/carverauto/discovery-handler/pkg/registration"
	"github.com/carverauto/discovery-handler/pkg/sandbox"
	"github.com/carverauto/discovery-handler/pkg/wsdiscovery"
	"github.com/carverauto/discovery-handler/proto"
)

var errConfigRequired = errors.New("handler config is required")

// Handler owns the discovery service and the background work around it.
type Handler struct {
	config  *models.HandlerConfig
	logger  logger.Logger
	service *discovery.Service
	root    *sandbox.Root
	nc      *nats.Conn

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds the backend, the optional NATS publisher and the discovery service.
// cfg must already be validated.
func New(ctx context.Context, cfg *models.HandlerConfig, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	h := &Handler{config: cfg, logger: log}

	backend, err := h.buildBackend()
	if err != nil {
		return nil, err
	}

	opts := []discovery.Option{
		discovery.WithPollInterval(time.Duration(cfg.PollInterval)),
		discovery.WithHandlerName(cfg.Name),
	}

	if cfg.NATS != nil && cfg.NATS.URL != "" {
		publisher, nc, err := natsutil.Connect(ctx, cfg.NATS, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect NATS publisher: %w", err)
		}

		h.nc = nc
		opts = append(opts, discovery.WithPublisher(publisher))
	}

	h.service, err = discovery.NewService(backend, log, opts...)
	if err != nil {
		h.closeNATS()

		return nil, err
	}

	return h, nil
}

func (h *Handler) buildBackend() (discovery.DiscoveryBackend, error) {
	switch h.config.Backend {
	case models.BackendEcho:
		root, err := sandbox.NewRoot(h.config.Sandbox.RootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare sandbox root: %w", err)
		}

		h.root = root

		return discovery.NewEchoBackend(root, h.logger), nil
	case models.BackendOnvif:
		var wsOpts []wsdiscovery.Option
		if h.config.Onvif.MulticastInterface != "" {
			wsOpts = append(wsOpts, wsdiscovery.WithInterface(h.config.Onvif.MulticastInterface))
		}

		transport := onvif.NewHTTPTransport(time.Duration(h.config.Onvif.HTTPTimeout))
		filter := onvif.NewFilter(onvif.NewClient(transport, h.logger), h.logger,
			onvif.WithMaxConcurrency(h.config.Onvif.MaxConcurrentQueries),
			onvif.WithStreamURIResolution(h.config.Onvif.ResolveStreamURI),
		)

		return discovery.NewOnvifBackend(wsdiscovery.NewClient(h.logger, wsOpts...), filter, h.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", discovery.ErrBackendRequired, h.config.Backend)
	}
}

// ListenAddr is the explicit listen address or the handler socket path.
func (h *Handler) ListenAddr() string {
	if h.config.ListenAddr != "" {
		return h.config.ListenAddr
	}

	return h.config.SocketPath()
}

// RegisterServices installs the DiscoveryHandler service on s.
func (h *Handler) RegisterServices(s *grpc.Server) error {
	proto.RegisterDiscoveryHandlerServer(s, h.service)

	return nil
}

// RegistrationRequest describes this handler to the agent.
func (h *Handler) RegistrationRequest() *proto.RegisterDiscoveryHandlerRequest {
	network, endpoint := dhgrpc.SplitAddress(h.ListenAddr())

	endpointType := proto.EndpointType_NETWORK
	if network == "unix" {
		endpointType = proto.EndpointType_UDS
	}

	return &proto.RegisterDiscoveryHandlerRequest{
		Name:         h.config.Name,
		Endpoint:     endpoint,
		EndpointType: endpointType,
		Shared:       h.config.Shared,
	}
}

// Start launches registration and the embedded echo worker. Both stop with Stop.
func (h *Handler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	if h.config.Registration.IsEnabled() {
		conn, err := dhgrpc.NewClient(ctx, h.config.AgentSocketPath(), nil)
		if err != nil {
			cancel()

			return fmt.Errorf("failed to dial agent: %w", err)
		}

		registrar, err := registration.NewRegistrar(conn, h.RegistrationRequest(), h.logger,
			registration.WithRetryDelays(
				time.Duration(h.config.Registration.InitialDelay),
				time.Duration(h.config.Registration.MaxDelay)),
		)
		if err != nil {
			_ = conn.Close()

			cancel()

			return err
		}

		group.Go(func() error {
			defer func() { _ = conn.Close() }()

			if err := registrar.Run(groupCtx, h.service.Reregister()); err != nil {
				h.logger.Error().Err(err).Msg("Registration with agent abandoned")

				return err
			}

			return nil
		})
	}

	if h.root != nil && h.config.Echo.EmbeddedWorker {
		worker := echo.NewWorker(h.root, time.Duration(h.config.Echo.WorkerInterval), h.logger)

		group.Go(func() error { return worker.Run(groupCtx) })
	}

	h.cancel = cancel
	h.group = group

	h.logger.Info().
		Str("name", h.config.Name).
		Str("backend", h.config.Backend).
		Str("listen", h.ListenAddr()).
		Msg("Discovery handler started")

	return nil
}

// Stop ends background work, waits for open sessions and closes NATS.
func (h *Handler) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}

	var err error

	if h.group != nil {
		done := make(chan error, 1)

		go func() { done <- h.group.Wait() }()

		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	h.service.Wait()
	h.closeNATS()

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (h *Handler) closeNATS() {
	if h.nc == nil {
		return
	}

	if err := h.nc.Drain(); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to drain NATS connection")
		h.nc.Close()
	}
}
