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

package onvif

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const defaultMaxConcurrency = 8

// Filter turns probed device service URLs into approved devices.
type Filter struct {
	querier          DeviceQuerier
	logger           logger.Logger
	maxConcurrency   int
	resolveStreamURI bool
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithMaxConcurrency bounds the number of devices queried at once.
func WithMaxConcurrency(n int) FilterOption {
	return func(f *Filter) {
		if n > 0 {
			f.maxConcurrency = n
		}
	}
}

// WithStreamURIResolution adds the first profile's RTSP URI to accepted devices.
func WithStreamURIResolution(enabled bool) FilterOption {
	return func(f *Filter) {
		f.resolveStreamURI = enabled
	}
}

func NewFilter(querier DeviceQuerier, log logger.Logger, opts ...FilterOption) *Filter {
	f := &Filter{
		querier:        querier,
		logger:         log,
		maxConcurrency: defaultMaxConcurrency,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Apply queries every candidate and returns the accepted devices in candidate
// order. Candidates that fail a query or a filter are skipped, and a device
// id already produced by an earlier candidate is dropped.
func (f *Filter) Apply(ctx context.Context, details *models.OnvifDiscoveryDetails, urls []string) []models.Device {
	if details == nil {
		details = &models.OnvifDiscoveryDetails{}
	}

	results := make([]*models.Device, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrency)

	for i, url := range urls {
		g.Go(func() error {
			results[i] = f.evaluate(gctx, details, url)

			return nil
		})
	}

	_ = g.Wait()

	devices := make([]models.Device, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))

	for _, d := range results {
		if d == nil {
			continue
		}

		if _, dup := seen[d.ID]; dup {
			f.logger.Debug().Str("device_id", d.ID).Msg("Dropping duplicate device")

			continue
		}

		seen[d.ID] = struct{}{}
		devices = append(devices, *d)
	}

	return devices
}

func (f *Filter) evaluate(ctx context.Context, details *models.OnvifDiscoveryDetails, url string) *models.Device {
	ip, mac, err := f.querier.GetIPAndMAC(ctx, url)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("Failed to get ip and mac, skipping device")

		return nil
	}

	if details.IPAddresses.Rejects([]string{ip}) {
		f.logger.Debug().Str("url", url).Str("ip", ip).Msg("Device rejected by ip filter")

		return nil
	}

	if details.MACAddresses.Rejects([]string{mac}) {
		f.logger.Debug().Str("url", url).Str("mac", mac).Msg("Device rejected by mac filter")

		return nil
	}

	scopes, err := f.querier.GetScopes(ctx, url)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("Failed to get scopes, skipping device")

		return nil
	}

	if details.Scopes.Rejects(scopes) {
		f.logger.Debug().Str("url", url).Strs("scopes", scopes).Msg("Device rejected by scopes filter")

		return nil
	}

	device := models.NewDevice(ip+"-"+mac, map[string]string{
		models.OnvifDeviceServiceURLLabel: url,
		models.OnvifDeviceIPAddressLabel:  ip,
		models.OnvifDeviceMACAddressLabel: mac,
	})

	if f.resolveStreamURI {
		if uri, err := f.streamURI(ctx, url); err != nil {
			f.logger.Warn().Err(err).Str("url", url).Msg("Failed to resolve stream uri")
		} else {
			device.Properties[models.OnvifDeviceStreamURILabel] = uri
		}
	}

	return &device
}

func (f *Filter) streamURI(ctx context.Context, url string) (string, error) {
	mediaURL, err := f.querier.GetServiceURI(ctx, url, MediaWSDL)
	if err != nil {
		return "", err
	}

	profiles, err := f.querier.GetProfiles(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	if len(profiles) == 0 {
		return "", ErrElementNotFound
	}

	return f.querier.GetProfileStreamingURI(ctx, mediaURL, profiles[0])
}
