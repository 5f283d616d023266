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

	"github.com/carverauto/discovery-handler/pkg/models"
)

//go:generate mockgen -destination=mock_backend.go -package=discovery github.com/carverauto/discovery-handler/pkg/discovery DiscoveryBackend,Poller,Prober,DeviceFilter,Publisher

// DiscoveryBackend turns a details blob into a Poller for one Discover call.
// Bootstrap wraps models.ErrInvalidDetails when the blob does not parse.
type DiscoveryBackend interface {
	Name() string
	Bootstrap(ctx context.Context, details string) (Poller, error)
}

// Poller yields at most one response per call. It reports false when there
// is nothing to emit this cycle.
type Poller interface {
	Poll(ctx context.Context) (*models.DiscoverResponse, bool)
	Close() error
}

// Prober finds candidate device service URLs.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) ([]string, error)
}

// DeviceFilter interrogates candidates and returns the accepted devices.
type DeviceFilter interface {
	Apply(ctx context.Context, details *models.OnvifDiscoveryDetails, urls []string) []models.Device
}

// Publisher receives every response sent to the agent.
type Publisher interface {
	PublishDevices(ctx context.Context, event *models.DevicesDiscoveredEventData) error
}
