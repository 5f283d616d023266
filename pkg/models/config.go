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
	"fmt"
	"path/filepath"
	"time"

	"github.com/carverauto/discovery-handler/pkg/logger"
)

// Backend names accepted in HandlerConfig.Backend.
const (
	BackendEcho  = "echo"
	BackendOnvif = "onvif"
)

// Environment variables set by the Akri agent for discovery handlers.
const (
	EnvDiscoveryHandlerName       = "DISCOVERY_HANDLER_NAME"
	EnvDiscoveryHandlersDirectory = "DISCOVERY_HANDLERS_DIRECTORY"
)

const (
	defaultHandlersDirectory    = "/var/lib/akri"
	defaultAgentSocketName      = "agent-registration.sock"
	defaultSandboxRoot          = "/tmp/wde-dir"
	defaultPollInterval         = 4 * time.Second
	defaultWorkerInterval       = 2 * time.Second
	defaultHTTPTimeout          = 5 * time.Second
	defaultMaxConcurrentQueries = 8
	defaultRegisterDelay        = time.Second
	defaultRegisterMaxDelay     = 30 * time.Second
	defaultNATSSubjectPrefix    = "discovery.devices"
)

// Duration is a time.Duration that unmarshals from "4s" style strings or nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// HandlerConfig is the discovery handler process configuration.
type HandlerConfig struct {
	Name                       string             `json:"name"`
	DiscoveryHandlersDirectory string             `json:"discovery_handlers_directory"`
	ListenAddr                 string             `json:"listen_addr,omitempty"`
	Backend                    string             `json:"backend"`
	Shared                     bool               `json:"shared"`
	PollInterval               Duration           `json:"poll_interval"`
	Sandbox                    SandboxConfig      `json:"sandbox"`
	Echo                       EchoConfig         `json:"echo"`
	Onvif                      OnvifConfig        `json:"onvif"`
	Registration               RegistrationConfig `json:"registration"`
	NATS                       *NATSConfig        `json:"nats,omitempty"`
	Logging                    *logger.Config     `json:"logging,omitempty"`
	Metrics                    *MetricsConfig     `json:"metrics,omitempty"`
	Security                   *SecurityConfig    `json:"security,omitempty"`
}

// SandboxConfig locates the file-based worker channel.
type SandboxConfig struct {
	RootDir string `json:"root_dir"`
}

// EchoConfig tunes the echo backend.
type EchoConfig struct {
	EmbeddedWorker bool     `json:"embedded_worker"`
	WorkerInterval Duration `json:"worker_interval"`
}

// OnvifConfig tunes the ONVIF backend.
type OnvifConfig struct {
	HTTPTimeout          Duration `json:"http_timeout"`
	MaxConcurrentQueries int      `json:"max_concurrent_queries"`
	MulticastInterface   string   `json:"multicast_interface,omitempty"`
	ResolveStreamURI     bool     `json:"resolve_stream_uri"`
}

// RegistrationConfig controls registration with the Akri agent.
type RegistrationConfig struct {
	Enabled      *bool    `json:"enabled,omitempty"`
	AgentSocket  string   `json:"agent_socket,omitempty"`
	InitialDelay Duration `json:"initial_delay"`
	MaxDelay     Duration `json:"max_delay"`
}

// IsEnabled defaults to true when unset.
func (r *RegistrationConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// NATSConfig enables publishing discovered devices to JetStream.
type NATSConfig struct {
	URL           string          `json:"url"`
	Stream        string          `json:"stream"`
	SubjectPrefix string          `json:"subject_prefix,omitempty"`
	Domain        string          `json:"domain,omitempty"`
	Security      *SecurityConfig `json:"security,omitempty"`
}

// MetricsConfig enables OTLP metrics and traces export.
type MetricsConfig struct {
	Enabled        bool     `json:"enabled"`
	ExportInterval Duration `json:"export_interval"`
	Tracing        bool     `json:"tracing"`
}

// ApplyEnvironment overrides name and directory from the Akri agent environment.
func (c *HandlerConfig) ApplyEnvironment(getenv func(string) string) {
	if name := getenv(EnvDiscoveryHandlerName); name != "" {
		c.Name = name
	}

	if dir := getenv(EnvDiscoveryHandlersDirectory); dir != "" {
		c.DiscoveryHandlersDirectory = dir
	}
}

// SocketPath is the unix socket the handler serves on when no listen address is set.
func (c *HandlerConfig) SocketPath() string {
	return filepath.Join(c.DiscoveryHandlersDirectory, c.Name+".sock")
}

// AgentSocketPath is the Akri agent registration socket.
func (c *HandlerConfig) AgentSocketPath() string {
	if c.Registration.AgentSocket != "" {
		return c.Registration.AgentSocket
	}

	return filepath.Join(c.DiscoveryHandlersDirectory, defaultAgentSocketName)
}

// Validate applies defaults and checks the configuration.
func (c *HandlerConfig) Validate() error {
	c.applyDefaults()

	switch c.Backend {
	case BackendEcho, BackendOnvif:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}

	if c.PollInterval <= 0 {
		return errInvalidPollInterval
	}

	if c.Onvif.MaxConcurrentQueries <= 0 {
		return errInvalidQueryLimit
	}

	if c.Registration.MaxDelay < c.Registration.InitialDelay {
		return errInvalidRetryInterval
	}

	if c.NATS != nil && c.NATS.URL != "" && c.NATS.Stream == "" {
		return errNATSStreamRequired
	}

	return nil
}

func (c *HandlerConfig) applyDefaults() {
	if c.DiscoveryHandlersDirectory == "" {
		c.DiscoveryHandlersDirectory = defaultHandlersDirectory
	}

	if c.Backend == "" {
		c.Backend = BackendOnvif
	}

	if c.Name == "" {
		c.Name = c.Backend
	}

	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}

	if c.Sandbox.RootDir == "" {
		c.Sandbox.RootDir = defaultSandboxRoot
	}

	if c.Echo.WorkerInterval <= 0 {
		c.Echo.WorkerInterval = Duration(defaultWorkerInterval)
	}

	if c.Onvif.HTTPTimeout <= 0 {
		c.Onvif.HTTPTimeout = Duration(defaultHTTPTimeout)
	}

	if c.Onvif.MaxConcurrentQueries == 0 {
		c.Onvif.MaxConcurrentQueries = defaultMaxConcurrentQueries
	}

	if c.Registration.InitialDelay <= 0 {
		c.Registration.InitialDelay = Duration(defaultRegisterDelay)
	}

	if c.Registration.MaxDelay <= 0 {
		c.Registration.MaxDelay = Duration(defaultRegisterMaxDelay)
	}

	if c.NATS != nil && c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = defaultNATSSubjectPrefix
	}
}
