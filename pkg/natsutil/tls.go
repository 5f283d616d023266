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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/carverauto/discovery-handler/pkg/config"
	"github.com/carverauto/discovery-handler/pkg/models"
)

var (
	// ErrMTLSRequired is returned for any security mode other than mtls.
	ErrMTLSRequired = errors.New("mtls security required")
	// ErrCAParsingFailed is returned when the CA bundle holds no certificates.
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

// TLSConfig builds a client tls.Config for NATS from an mtls SecurityConfig.
// Relative file names resolve against CertDir; sec itself is not modified.
func TLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	if sec == nil || sec.Mode != models.SecurityModeMTLS {
		return nil, ErrMTLSRequired
	}

	files := sec.TLS
	config.NormalizeTLSPaths(&files, sec.CertDir)

	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load NATS client certificate: %w", err)
	}

	pem, err := os.ReadFile(files.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read NATS CA %s: %w", files.CAFile, err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(pem) {
		return nil, ErrCAParsingFailed
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      roots,
		ServerName:   sec.ServerName,
		MinVersion:   tls.VersionTLS13,
	}, nil
}
