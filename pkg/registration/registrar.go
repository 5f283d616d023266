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

// Package registration announces the discovery handler to the Akri agent and
// re-announces it whenever the agent drops a Discover stream.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/proto"
)

const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
	attemptTimeout      = 5 * time.Second
)

var (
	errNameRequired     = errors.New("handler name is required")
	errEndpointRequired = errors.New("handler endpoint is required")
)

// Registrar calls v0.Registration/RegisterDiscoveryHandler on the agent.
type Registrar struct {
	client       proto.RegistrationClient
	request      *proto.RegisterDiscoveryHandlerRequest
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       logger.Logger
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithRetryDelays bounds the exponential retry delay.
func WithRetryDelays(initial, maxDelay time.Duration) Option {
	return func(r *Registrar) {
		if initial > 0 {
			r.initialDelay = initial
		}

		if maxDelay >= r.initialDelay {
			r.maxDelay = maxDelay
		}
	}
}

// NewRegistrar creates a registrar that sends req over conn.
func NewRegistrar(
	conn grpc.ClientConnInterface, req *proto.RegisterDiscoveryHandlerRequest, log logger.Logger, opts ...Option) (*Registrar, error) {
	if req.GetName() == "" {
		return nil, errNameRequired
	}

	if req.GetEndpoint() == "" {
		return nil, errEndpointRequired
	}

	r := &Registrar{
		client:       proto.NewRegistrationClient(conn),
		request:      req,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		logger:       log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Register makes a single registration attempt.
func (r *Registrar) Register(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	if _, err := r.client.RegisterDiscoveryHandler(ctx, r.request); err != nil {
		return fmt.Errorf("register %s: %w", r.request.GetName(), err)
	}

	return nil
}

// RegisterWithBackoff retries until the agent accepts the registration, the
// agent rejects it as invalid, or ctx ends.
func (r *Registrar) RegisterWithBackoff(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialDelay
	bo.MaxInterval = r.maxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.1

	operation := func() (struct{}, error) {
		err := r.Register(ctx)
		if err == nil {
			return struct{}{}, nil
		}

		if status.Code(err) == codes.InvalidArgument {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	}

	notify := func(err error, next time.Duration) {
		r.logger.Warn().Err(err).Dur("retry_in", next).Msg("Agent registration failed")
	}

	// a zero max elapsed time keeps retrying until ctx ends
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithNotify(notify),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return err
	}

	r.logger.Info().
		Str("name", r.request.GetName()).
		Str("endpoint", r.request.GetEndpoint()).
		Str("endpoint_type", r.request.GetEndpointType().String()).
		Bool("shared", r.request.GetShared()).
		Msg("Registered with agent")

	return nil
}

// Run registers once and then again for every value received on signals.
// It returns nil when ctx ends.
func (r *Registrar) Run(ctx context.Context, signals <-chan struct{}) error {
	for {
		if err := r.RegisterWithBackoff(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-signals:
			r.logger.Info().Msg("Discover stream ended, re-registering with agent")
		}
	}
}
