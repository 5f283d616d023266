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

// Package echo is the worker side of the echo backend. It answers every live
// sandbox session with one device per requested description.
package echo

import (
	"context"
	"time"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/pkg/sandbox"
)

const defaultInterval = 2 * time.Second

// Worker polls the sandbox root and writes responses for each session.
type Worker struct {
	root     *sandbox.Root
	interval time.Duration
	logger   logger.Logger
}

// NewWorker creates a worker over root. A non-positive interval uses the default.
func NewWorker(root *sandbox.Root, interval time.Duration, log logger.Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Worker{root: root, interval: interval, logger: log}
}

// Run processes every session immediately and then once per interval until
// ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("root", w.root.Dir()).Dur("interval", w.interval).Msg("Echo worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Step()

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Echo worker stopped")

			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one pass over the live sessions.
func (w *Worker) Step() {
	sessions, err := w.root.Sessions()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to list sessions")

		return
	}

	for _, bridge := range sessions {
		w.process(bridge)
	}
}

// process answers one session unless its previous response is still pending.
// Errors are expected when the handler removes a session mid-pass.
func (w *Worker) process(bridge *sandbox.Bridge) {
	var details models.EchoDiscoveryDetails

	ok, err := bridge.ReadRequest(&details)
	if err != nil {
		w.logger.Debug().Err(err).Str("session", bridge.ID()).Msg("Skipping session with unreadable request")

		return
	}

	if !ok || bridge.HasPendingResponse() {
		return
	}

	availability, err := bridge.Availability()
	if err != nil {
		w.logger.Debug().Err(err).Str("session", bridge.ID()).Msg("Skipping session with unreadable availability")

		return
	}

	resp := Respond(&details, availability)

	if err := bridge.WriteResponse(resp); err != nil {
		w.logger.Debug().Err(err).Str("session", bridge.ID()).Msg("Failed to write response")

		return
	}

	w.logger.Debug().
		Str("session", bridge.ID()).
		Str("availability", string(availability)).
		Int("devices", len(resp.Devices)).
		Msg("Wrote echo response")
}

// Respond builds the echo reply: one device per description while online and
// nothing while offline.
func Respond(details *models.EchoDiscoveryDetails, availability sandbox.Availability) *models.DiscoverResponse {
	devices := []models.Device{}

	if availability == sandbox.Online {
		for _, d := range details.Descriptions {
			devices = append(devices, models.NewDevice(d, map[string]string{
				models.DebugEchoDescriptionLabel: d,
			}))
		}
	}

	return &models.DiscoverResponse{Devices: devices}
}
