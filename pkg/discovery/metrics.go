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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName             = "github.com/carverauto/discovery-handler/pkg/discovery"
	metricSessionsActive  = "discovery_sessions_active"
	metricResponsesSent   = "discovery_responses_sent_total"
	metricPollErrors      = "discovery_poll_errors_total"
	metricDevicesReported = "discovery_devices_discovered"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	sessionsGauge metric.Int64UpDownCounter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	responsesCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	pollErrorCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	devicesHistogram metric.Int64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	sessionsGauge, err = meter.Int64UpDownCounter(
		metricSessionsActive,
		metric.WithDescription("Discover calls currently streaming to the agent"),
	)
	if err != nil {
		otel.Handle(err)
	}

	responsesCounter, err = meter.Int64Counter(
		metricResponsesSent,
		metric.WithDescription("Discover responses sent to the agent"),
	)
	if err != nil {
		otel.Handle(err)
	}

	pollErrorCounter, err = meter.Int64Counter(
		metricPollErrors,
		metric.WithDescription("Poll cycles that failed to produce a result"),
	)
	if err != nil {
		otel.Handle(err)
	}

	devicesHistogram, err = meter.Int64Histogram(
		metricDevicesReported,
		metric.WithDescription("Devices per Discover response"),
		metric.WithUnit("{device}"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordSession(ctx context.Context, backend string, delta int64) {
	meterOnce.Do(initMeter)
	if sessionsGauge == nil {
		return
	}

	sessionsGauge.Add(ctx, delta, metric.WithAttributes(attribute.String("backend", backend)))
}

func recordResponse(ctx context.Context, backend string, devices int) {
	meterOnce.Do(initMeter)

	attrs := metric.WithAttributes(attribute.String("backend", backend))

	if responsesCounter != nil {
		responsesCounter.Add(ctx, 1, attrs)
	}

	if devicesHistogram != nil {
		devicesHistogram.Record(ctx, int64(devices), attrs)
	}
}

func recordPollError(ctx context.Context, backend, reason string) {
	meterOnce.Do(initMeter)
	if pollErrorCounter == nil {
		return
	}

	pollErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("reason", reason),
	))
}
