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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerConfigDefaults(t *testing.T) {
	var cfg HandlerConfig

	require.NoError(t, json.Unmarshal([]byte(`{"backend":"echo"}`), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "echo", cfg.Name)
	assert.Equal(t, "/var/lib/akri", cfg.DiscoveryHandlersDirectory)
	assert.Equal(t, Duration(4*time.Second), cfg.PollInterval)
	assert.Equal(t, "/tmp/wde-dir", cfg.Sandbox.RootDir)
	assert.Equal(t, 8, cfg.Onvif.MaxConcurrentQueries)
	assert.True(t, cfg.Registration.IsEnabled())
	assert.Equal(t, "/var/lib/akri/echo.sock", cfg.SocketPath())
	assert.Equal(t, "/var/lib/akri/agent-registration.sock", cfg.AgentSocketPath())
}

func TestHandlerConfigApplyEnvironment(t *testing.T) {
	cfg := HandlerConfig{Backend: BackendOnvif}
	require.NoError(t, cfg.Validate())

	env := map[string]string{
		EnvDiscoveryHandlerName:       "onvif-lab",
		EnvDiscoveryHandlersDirectory: "/run/akri",
	}
	cfg.ApplyEnvironment(func(key string) string { return env[key] })

	assert.Equal(t, "onvif-lab", cfg.Name)
	assert.Equal(t, "/run/akri/onvif-lab.sock", cfg.SocketPath())
	assert.Equal(t, "/run/akri/agent-registration.sock", cfg.AgentSocketPath())
}

func TestHandlerConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"unknown backend", `{"backend":"udev"}`, errUnknownBackend},
		{"negative poll interval", `{"poll_interval":"-1s"}`, errInvalidPollInterval},
		{"negative query limit", `{"onvif":{"max_concurrent_queries":-1}}`, errInvalidQueryLimit},
		{"inverted backoff", `{"registration":{"initial_delay":"10s","max_delay":"2s"}}`, errInvalidRetryInterval},
		{"nats without stream", `{"nats":{"url":"nats://127.0.0.1:4222"}}`, errNATSStreamRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg HandlerConfig

			require.NoError(t, json.Unmarshal([]byte(tt.raw), &cfg))
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestDurationUnmarshalJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, Duration(90*time.Second), d)

	require.NoError(t, json.Unmarshal([]byte(`4000000000`), &d))
	assert.Equal(t, Duration(4*time.Second), d)

	require.ErrorIs(t, json.Unmarshal([]byte(`"soon"`), &d), errInvalidDuration)
	require.ErrorIs(t, json.Unmarshal([]byte(`true`), &d), errInvalidDuration)

	out, err := json.Marshal(Duration(4 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"4s"`, string(out))
}
