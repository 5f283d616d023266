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

// Package natsutil publishes discovery events to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const (
	eventSourcePrefix = "discovery-handler/"
	devicesEventType  = "com.carverauto.discovery.devices"
	connectionName    = "discovery-handler"
)

var errNATSURLRequired = errors.New("nats url is required")

// EventPublisher publishes CloudEvents describing discovered devices.
type EventPublisher struct {
	js            jetstream.JetStream
	stream        string
	subjectPrefix string
	logger        logger.Logger
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName, subjectPrefix string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:            js,
		stream:        streamName,
		subjectPrefix: strings.TrimSuffix(subjectPrefix, "."),
		logger:        log,
	}
}

// Subject is the subject events for handler are published on.
func (p *EventPublisher) Subject(handler string) string {
	return p.subjectPrefix + "." + subjectToken(handler)
}

// subjectToken collapses a handler name into a single subject token.
func subjectToken(name string) string {
	if name == "" {
		return "_"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		default:
			return r
		}
	}, name)
}

// PublishDevices publishes one devices-discovered event.
func (p *EventPublisher) PublishDevices(ctx context.Context, data *models.DevicesDiscoveredEventData) error {
	subject := p.Subject(data.Handler)

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSourcePrefix + data.Handler,
		Type:            devicesEventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &data.Timestamp,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal devices event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish devices event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Int("devices", data.DeviceCount).
		Msg("Published devices event")

	return nil
}

// Connect dials NATS and prepares a publisher for cfg.
func Connect(ctx context.Context, cfg *models.NATSConfig, log logger.Logger) (*EventPublisher, *nats.Conn, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil, errNATSURLRequired
	}

	nc, err := ConnectWithSecurity(ctx, cfg.URL, cfg.Security, log)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := CreateEventPublisherWithDomain(ctx, nc, cfg.Domain, cfg.Stream, cfg.SubjectPrefix, log)
	if err != nil {
		nc.Close()

		return nil, nil, err
	}

	return publisher, nc, nil
}

// ConnectWithSecurity creates a NATS connection with security configuration.
func ConnectWithSecurity(
	ctx context.Context, natsURL string, security *models.SecurityConfig, log logger.Logger, extraOpts ...nats.Option,
) (*nats.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []nats.Option{nats.Name(connectionName)}

	if security != nil && security.Mode != "" && security.Mode != models.SecurityModeNone {
		tlsConf, err := TLSConfig(security)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// CreateEventPublisherWithDomain creates an EventPublisher with optional NATS domain support.
// The stream is created when missing and extended when it does not cover the prefix.
func CreateEventPublisherWithDomain(
	ctx context.Context, nc *nats.Conn, domain, streamName, subjectPrefix string, log logger.Logger,
) (*EventPublisher, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", domain, err)
		}
	} else {
		js, err = jetstream.New(nc)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
	}

	publisher := NewEventPublisher(js, streamName, subjectPrefix, log)
	wildcard := publisher.subjectPrefix + ".*"

	stream, err := js.Stream(ctx, streamName)

	switch {
	case err == nil:
		info := stream.CachedInfo()
		subjects := ensureSubjectList(append([]string(nil), info.Config.Subjects...), wildcard)

		if len(subjects) != len(info.Config.Subjects) {
			cfg := info.Config
			cfg.Subjects = subjects

			if _, err = js.UpdateStream(ctx, cfg); err != nil {
				return nil, fmt.Errorf("failed to add %s to stream %s: %w", wildcard, streamName, err)
			}

			log.Info().Str("stream", streamName).Str("subject", wildcard).Msg("Extended JetStream stream subjects")
		}
	case isStreamMissingErr(err):
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{wildcard},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}

		log.Info().Str("stream", streamName).Str("domain", domain).Msg("Created NATS JetStream stream")
	default:
		return nil, fmt.Errorf("failed to look up stream %s: %w", streamName, err)
	}

	return publisher, nil
}

// ensureSubjectList appends subject unless an existing pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject applies NATS wildcard rules of pattern to subject.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
