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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const tracerName = "github.com/carverauto/discovery-handler/pkg/discovery"

// OnvifBackend probes for ONVIF cameras each cycle and reports the filtered
// device set whenever it changes.
type OnvifBackend struct {
	prober Prober
	filter DeviceFilter
	logger logger.Logger
}

// NewOnvifBackend wires a WS-Discovery prober to a device filter.
func NewOnvifBackend(prober Prober, filter DeviceFilter, log logger.Logger) *OnvifBackend {
	return &OnvifBackend{prober: prober, filter: filter, logger: log}
}

func (*OnvifBackend) Name() string {
	return models.BackendOnvif
}

// Bootstrap parses the details; nothing is probed until the first poll.
func (o *OnvifBackend) Bootstrap(_ context.Context, details string) (Poller, error) {
	parsed, err := models.ParseOnvifDiscoveryDetails(details)
	if err != nil {
		return nil, err
	}

	return &onvifPoller{backend: o, details: parsed}, nil
}

type onvifPoller struct {
	backend *OnvifBackend
	details *models.OnvifDiscoveryDetails
	last    *models.DiscoverResponse
}

// Poll runs one probe, query and filter cycle. The first cycle always emits.
func (p *onvifPoller) Poll(ctx context.Context) (*models.DiscoverResponse, bool) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "onvif.poll")
	defer span.End()

	log := p.backend.logger
	timeout := time.Duration(p.details.DiscoveryTimeoutSeconds) * time.Second

	urls, err := p.backend.prober.Probe(ctx, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		log.Warn().Err(err).Msg("WS-Discovery probe failed, retrying next cycle")
		recordPollError(ctx, models.BackendOnvif, "probe")

		return nil, false
	}

	devices := p.backend.filter.Apply(ctx, p.details, urls)
	if devices == nil {
		devices = []models.Device{}
	}

	span.SetAttributes(
		attribute.Int("onvif.candidates", len(urls)),
		attribute.Int("onvif.devices", len(devices)),
	)

	resp := &models.DiscoverResponse{Devices: devices}
	if p.last != nil && p.last.Equal(resp) {
		return nil, false
	}

	log.Info().Int("candidates", len(urls)).Int("devices", len(devices)).Msg("ONVIF device set changed")

	p.last = resp

	return resp, true
}

func (*onvifPoller) Close() error {
	return nil
}
