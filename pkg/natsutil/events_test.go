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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dhgrpc "github.com/carverauto/discovery-handler/pkg/grpc"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

var errTestFixture = errors.New("fixture error")

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{"adds subject when list empty", nil, "discovery.devices.*", []string{"discovery.devices.*"}},
		{"keeps list when wildcard covers", []string{"discovery.>"}, "discovery.devices.*", []string{"discovery.>"}},
		{"keeps list when identical", []string{"discovery.devices.*"}, "discovery.devices.*", []string{"discovery.devices.*"}},
		{
			"appends when unmatched", []string{"events.poller.*"}, "discovery.devices.*",
			[]string{"events.poller.*", "discovery.devices.*"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject))
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern  string
		subject  string
		expected bool
	}{
		{"discovery.devices.onvif", "discovery.devices.onvif", true},
		{"discovery.*.onvif", "discovery.devices.onvif", true},
		{"discovery.>", "discovery.devices.onvif", true},
		{"discovery.>", "discovery", false},
		{"discovery.*", "discovery.devices.onvif", false},
		{"events.poller.*", "discovery.devices.onvif", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject), "%s vs %s", tc.pattern, tc.subject)
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	assert.True(t, isStreamMissingErr(jetstream.ErrStreamNotFound))
	assert.True(t, isStreamMissingErr(jetstream.ErrNoStreamResponse))
	assert.True(t, isStreamMissingErr(nats.ErrStreamNotFound))
	assert.True(t, isStreamMissingErr(nats.ErrNoResponders))
	assert.False(t, isStreamMissingErr(errTestFixture))
}

func TestSubjectCollapsesHandlerName(t *testing.T) {
	t.Parallel()

	p := NewEventPublisher(nil, "devices", "discovery.devices.", logger.NewTestLogger())

	assert.Equal(t, "discovery.devices.onvif", p.Subject("onvif"))
	assert.Equal(t, "discovery.devices.lab_cams_east", p.Subject("lab.cams east"))
	assert.Equal(t, "discovery.devices._", p.Subject(""))
}

func TestTLSConfigRequiresMTLS(t *testing.T) {
	t.Parallel()

	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{Mode: models.SecurityModeSpiffe})
	require.ErrorIs(t, err, ErrMTLSRequired)
}

func TestTLSConfigLoadsDevCertificates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, dhgrpc.GenerateDevCertificates(dir, "localhost"))

	sec := &models.SecurityConfig{
		Mode:       models.SecurityModeMTLS,
		CertDir:    dir,
		ServerName: "localhost",
		TLS: models.TLSConfig{
			CertFile: dhgrpc.DevClientCertFile,
			KeyFile:  dhgrpc.DevClientKeyFile,
			CAFile:   dhgrpc.DevCAFile,
		},
	}

	conf, err := TLSConfig(sec)
	require.NoError(t, err)
	assert.Len(t, conf.Certificates, 1)
	assert.Equal(t, "localhost", conf.ServerName)
	assert.Equal(t, dhgrpc.DevClientCertFile, sec.TLS.CertFile, "caller config must stay untouched")
}

func TestPublishDevicesToJetStream(t *testing.T) {
	srv := runJetStreamServer(t)
	log := logger.NewTestLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	publisher, nc, err := Connect(ctx, &models.NATSConfig{
		URL:           srv.ClientURL(),
		Stream:        "devices",
		SubjectPrefix: "discovery.devices",
	}, log)
	require.NoError(t, err)

	defer nc.Close()

	stamp := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	devices := []models.Device{models.NewDevice("cam-1", map[string]string{models.OnvifDeviceIPAddressLabel: "10.0.0.5"})}

	require.NoError(t, publisher.PublishDevices(ctx, &models.DevicesDiscoveredEventData{
		Handler:     "onvif",
		Backend:     models.BackendOnvif,
		SessionID:   "session-1",
		DeviceCount: len(devices),
		Devices:     devices,
		Timestamp:   stamp,
	}))

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "devices")
	require.NoError(t, err)

	msg, err := stream.GetLastMsgForSubject(ctx, "discovery.devices.onvif")
	require.NoError(t, err)

	var event struct {
		models.CloudEvent
		Data models.DevicesDiscoveredEventData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &event))

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, devicesEventType, event.Type)
	assert.Equal(t, "discovery-handler/onvif", event.Source)
	assert.Equal(t, "discovery.devices.onvif", event.Subject)
	assert.Equal(t, "session-1", event.Data.SessionID)
	require.Len(t, event.Data.Devices, 1)
	assert.Equal(t, "cam-1", event.Data.Devices[0].ID)
	assert.True(t, stamp.Equal(event.Data.Timestamp))
}

func TestCreateEventPublisherExtendsExistingStream(t *testing.T) {
	srv := runJetStreamServer(t)
	log := logger.NewTestLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	nc, err := ConnectWithSecurity(ctx, srv.ClientURL(), nil, log)
	require.NoError(t, err)

	defer nc.Close()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{Name: "events", Subjects: []string{"events.poller.*"}})
	require.NoError(t, err)

	_, err = CreateEventPublisherWithDomain(ctx, nc, "", "events", "discovery.devices", log)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "events")
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"events.poller.*", "discovery.devices.*"}, info.Config.Subjects)

	// A second call finds the subject covered and leaves the stream alone.
	_, err = CreateEventPublisherWithDomain(ctx, nc, "", "events", "discovery.devices", log)
	require.NoError(t, err)

	info, err = stream.Info(ctx)
	require.NoError(t, err)
	assert.Len(t, info.Config.Subjects, 2)
}

func TestConnectRequiresURL(t *testing.T) {
	t.Parallel()

	_, _, err := Connect(context.Background(), &models.NATSConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNATSURLRequired)
}

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	t.Cleanup(srv.Shutdown)

	if !srv.ReadyForConnections(10 * time.Second) {
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, srv.JetStreamEnabled, 5*time.Second, 50*time.Millisecond,
		"embedded NATS server not ready for JetStream")

	return srv
}
