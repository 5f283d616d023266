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

// Package discovery implements the Akri v0 DiscoveryHandler service. Each
// Discover call bootstraps a backend session and streams its poll results to
// the agent until the agent goes away.
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/marshaller"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/proto"
)

const (
	defaultPollInterval = 4 * time.Second
	publishTimeout      = 5 * time.Second

	// responseChannelCapacity matches the agent's discovered-devices channel.
	responseChannelCapacity = 4
	reregisterCapacity      = 2
)

// Service serves v0.DiscoveryHandler on top of a DiscoveryBackend.
type Service struct {
	backend    DiscoveryBackend
	handler    string
	interval   time.Duration
	publisher  Publisher
	reregister chan struct{}
	logger     logger.Logger
	sessions   sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithPollInterval sets how often a session polls its backend.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithPublisher forwards every emitted response to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithHandlerName sets the name reported in published events.
func WithHandlerName(name string) Option {
	return func(s *Service) {
		s.handler = name
	}
}

// NewService creates a Service for backend.
func NewService(backend DiscoveryBackend, log logger.Logger, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}

	s := &Service{
		backend:    backend,
		handler:    backend.Name(),
		interval:   defaultPollInterval,
		reregister: make(chan struct{}, reregisterCapacity),
		logger:     log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Reregister delivers a signal each time a session ends because the agent
// went away.
func (s *Service) Reregister() <-chan struct{} {
	return s.reregister
}

// Wait blocks until every session's poll goroutine has exited.
func (s *Service) Wait() {
	s.sessions.Wait()
}

// Discover implements proto.DiscoveryHandlerServer.
func (s *Service) Discover(req *proto.DiscoverRequest, stream proto.DiscoveryHandler_DiscoverServer) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	backend := s.backend.Name()

	poller, err := s.backend.Bootstrap(ctx, req.GetDiscoveryDetails())
	if err != nil {
		if errors.Is(err, models.ErrInvalidDetails) {
			s.logger.Warn().Err(err).Str("backend", backend).Msg("Rejecting discovery details")

			return status.Error(codes.InvalidArgument, err.Error())
		}

		s.logger.Error().Err(err).Str("backend", backend).Msg("Failed to bootstrap discovery session")

		return status.Error(codes.Internal, err.Error())
	}

	sessionID := uuid.NewString()
	log := s.logger.With().Str("session", sessionID).Str("backend", backend).Logger()

	log.Info().Msg("Discovery session started")
	recordSession(ctx, backend, 1)

	responses := make(chan *models.DiscoverResponse, responseChannelCapacity)
	pollDone := make(chan struct{})

	s.sessions.Add(1)

	go func() {
		defer s.sessions.Done()
		defer close(pollDone)

		s.poll(ctx, poller, responses)
	}()

	err = s.forward(ctx, sessionID, stream, responses)

	cancel()
	<-pollDone

	if closeErr := poller.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to clean up discovery session")
	}

	recordSession(context.WithoutCancel(ctx), backend, -1)
	s.signalReregister()

	log.Info().Err(err).Msg("Discovery session terminated")

	return err
}

// poll ticks on the interval and pushes ready responses until ctx ends.
func (s *Service) poll(ctx context.Context, poller Poller, out chan<- *models.DiscoverResponse) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		resp, ok := poller.Poll(ctx)
		if !ok {
			continue
		}

		select {
		case out <- resp:
		case <-ctx.Done():
			return
		}
	}
}

// forward drains responses onto the stream. It returns when the agent
// disconnects or a send fails.
func (s *Service) forward(
	ctx context.Context, sessionID string, stream proto.DiscoveryHandler_DiscoverServer, responses <-chan *models.DiscoverResponse) error {
	backend := s.backend.Name()

	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case resp := <-responses:
			if err := stream.Send(marshaller.ToProto(resp)); err != nil {
				return err
			}

			recordResponse(ctx, backend, len(resp.Devices))
			s.publish(ctx, sessionID, resp)
		}
	}
}

func (s *Service) publish(ctx context.Context, sessionID string, resp *models.DiscoverResponse) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event := &models.DevicesDiscoveredEventData{
		Handler:     s.handler,
		Backend:     s.backend.Name(),
		SessionID:   sessionID,
		DeviceCount: len(resp.Devices),
		Devices:     resp.Devices,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.publisher.PublishDevices(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("Failed to publish discovered devices")
	}
}

// signalReregister never blocks; pending signals already cover this one.
func (s *Service) signalReregister() {
	select {
	case s.reregister <- struct{}{}:
	default:
	}
}
