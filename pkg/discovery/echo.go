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

package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/marshaller"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/pkg/sandbox"
)

// EchoBackend hands each session to an out-of-process worker through a
// sandbox bridge and relays whatever the worker writes back.
type EchoBackend struct {
	root   *sandbox.Root
	logger logger.Logger
}

// NewEchoBackend creates an echo backend whose sessions live under root.
func NewEchoBackend(root *sandbox.Root, log logger.Logger) *EchoBackend {
	return &EchoBackend{root: root, logger: log}
}

func (*EchoBackend) Name() string {
	return models.BackendEcho
}

// Bootstrap publishes the details for the worker and marks the session ONLINE.
func (e *EchoBackend) Bootstrap(_ context.Context, details string) (Poller, error) {
	parsed, err := models.ParseEchoDiscoveryDetails(details)
	if err != nil {
		return nil, err
	}

	bridge, err := e.root.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSessionAllocation, err)
	}

	if err := bridge.PublishRequest(parsed); err != nil {
		_ = bridge.Remove()

		return nil, fmt.Errorf("%w: %w", errPublishDetails, err)
	}

	if err := bridge.SetAvailability(sandbox.Online); err != nil {
		_ = bridge.Remove()

		return nil, fmt.Errorf("%w: %w", errPublishDetails, err)
	}

	e.logger.Debug().
		Str("session_dir", bridge.Dir()).
		Strs("descriptions", parsed.Descriptions).
		Msg("Published echo discovery request")

	return &echoPoller{bridge: bridge, logger: e.logger}, nil
}

type echoPoller struct {
	bridge *sandbox.Bridge
	logger logger.Logger
}

func (p *echoPoller) Poll(ctx context.Context) (*models.DiscoverResponse, bool) {
	resp, err := p.bridge.TryConsumeResponse()
	if err != nil {
		reason := "io"
		if errors.Is(err, marshaller.ErrMalformedResponse) {
			reason = "malformed"
		}

		p.logger.Warn().Err(err).Str("session_dir", p.bridge.Dir()).Msg("Discarding worker response")
		recordPollError(ctx, models.BackendEcho, reason)

		return nil, false
	}

	if resp == nil {
		return nil, false
	}

	return resp, true
}

// Close removes the session directory, which also tells the worker the
// session is gone.
func (p *echoPoller) Close() error {
	return p.bridge.Remove()
}
