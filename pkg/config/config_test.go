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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateFileAppliesEnvironmentAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")
	t.Setenv(models.EnvDiscoveryHandlerName, "echo-a")
	t.Setenv(models.EnvDiscoveryHandlersDirectory, "/run/akri")

	path := writeConfig(t, `{"backend":"echo","poll_interval":"2s","name":"ignored"}`)

	var cfg models.HandlerConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "echo-a", cfg.Name)
	assert.Equal(t, "/run/akri", cfg.DiscoveryHandlersDirectory)
	assert.Equal(t, models.Duration(2*time.Second), cfg.PollInterval)
	assert.Equal(t, "/run/akri/echo-a.sock", cfg.SocketPath())
	assert.Equal(t, "/run/akri/agent-registration.sock", cfg.AgentSocketPath())
}

func TestLoadAndValidateEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")
	t.Setenv(models.EnvDiscoveryHandlerName, "")
	t.Setenv(models.EnvDiscoveryHandlersDirectory, "")

	var cfg models.HandlerConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, models.BackendOnvif, cfg.Backend)
	assert.Equal(t, models.BackendOnvif, cfg.Name)
	assert.Nil(t, cfg.NATS)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	var cfg models.HandlerConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAndValidateRejectsUnknownSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg models.HandlerConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestLoadAndValidateRunsValidation(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeConfig(t, `{"backend":"carrier-pigeon"}`)

	var cfg models.HandlerConfig
	require.Error(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))
}

func TestLoadAndValidateNormalizesNestedSecurity(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeConfig(t, `{
		"backend": "onvif",
		"security": {"mode": "mtls", "cert_dir": "/etc/certs", "tls": {"cert_file": "server.pem", "key_file": "/abs/key.pem", "ca_file": "root.pem"}},
		"nats": {"url": "nats://localhost:4222", "stream": "devices",
			"security": {"mode": "mtls", "cert_dir": "/etc/nats", "tls": {"cert_file": "client.pem", "ca_file": "ca.pem", "client_ca_file": "other.pem"}}}
	}`)

	var cfg models.HandlerConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	require.NotNil(t, cfg.Security)
	assert.Equal(t, "/etc/certs/server.pem", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/abs/key.pem", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/etc/certs/root.pem", cfg.Security.TLS.ClientCAFile)

	require.NotNil(t, cfg.NATS)
	require.NotNil(t, cfg.NATS.Security)
	assert.Equal(t, "/etc/nats/client.pem", cfg.NATS.Security.TLS.CertFile)
	assert.Equal(t, "/etc/nats/other.pem", cfg.NATS.Security.TLS.ClientCAFile)
	assert.Equal(t, "discovery.devices", cfg.NATS.SubjectPrefix)
}

func TestEnvSourceLoadsPrefixedVariables(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv(models.EnvDiscoveryHandlerName, "")
	t.Setenv(models.EnvDiscoveryHandlersDirectory, "")
	t.Setenv("DISCOVERY_HANDLER_BACKEND", "echo")
	t.Setenv("DISCOVERY_HANDLER_POLL_INTERVAL", "750ms")
	t.Setenv("DISCOVERY_HANDLER_SHARED", "true")
	t.Setenv("DISCOVERY_HANDLER_ONVIF_MAX_CONCURRENT_QUERIES", "3")
	t.Setenv("DISCOVERY_HANDLER_REGISTRATION_ENABLED", "false")
	t.Setenv("DISCOVERY_HANDLER_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("DISCOVERY_HANDLER_NATS_STREAM", "devices")

	var cfg models.HandlerConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, models.BackendEcho, cfg.Backend)
	assert.Equal(t, models.Duration(750*time.Millisecond), cfg.PollInterval)
	assert.True(t, cfg.Shared)
	assert.Equal(t, 3, cfg.Onvif.MaxConcurrentQueries)
	assert.False(t, cfg.Registration.IsEnabled())
	require.NotNil(t, cfg.NATS)
	assert.Equal(t, "devices", cfg.NATS.Stream)
	assert.Nil(t, cfg.Metrics)
	assert.Nil(t, cfg.Security)
}

func TestEnvLoaderOverlaysConfigJSON(t *testing.T) {
	t.Setenv("TEST_CONFIG_JSON", `{"backend":"onvif","poll_interval":"9s","onvif":{"resolve_stream_uri":true}}`)
	t.Setenv("TEST_POLL_INTERVAL", "1s")

	var cfg models.HandlerConfig
	require.NoError(t, NewEnvConfigLoader(nil, "TEST_").Load(context.Background(), "", &cfg))

	assert.Equal(t, models.BackendOnvif, cfg.Backend)
	assert.True(t, cfg.Onvif.ResolveStreamURI)
	assert.Equal(t, models.Duration(time.Second), cfg.PollInterval)
}

func TestEnvLoaderReportsBadValues(t *testing.T) {
	t.Setenv("BAD_SHARED", "sometimes")

	var cfg models.HandlerConfig
	err := NewEnvConfigLoader(nil, "BAD_").Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_SHARED")
}

func TestEnvLoaderRejectsNonPointer(t *testing.T) {
	loader := NewEnvConfigLoader(nil, "X_")

	require.ErrorIs(t, loader.Load(context.Background(), "", models.HandlerConfig{}), ErrDstMustBeNonNilPointer)

	s := "text"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}

func TestNormalizeTLSPaths(t *testing.T) {
	tls := models.TLSConfig{CertFile: "a.pem", KeyFile: "a-key.pem", CAFile: "ca.pem"}
	NormalizeTLSPaths(&tls, "/certs")

	assert.Equal(t, models.TLSConfig{
		CertFile:     "/certs/a.pem",
		KeyFile:      "/certs/a-key.pem",
		CAFile:       "/certs/ca.pem",
		ClientCAFile: "/certs/ca.pem",
	}, tls)
}
