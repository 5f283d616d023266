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

package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const defaultWorkloadSocket = "unix:/run/spire/sockets/agent.sock"

// SecurityProvider supplies transport credentials for servers and clients.
type SecurityProvider interface {
	GetClientCredentials(ctx context.Context) (grpc.DialOption, error)
	GetServerCredentials(ctx context.Context) (grpc.ServerOption, error)
	Close() error
}

// NoSecurityProvider uses plaintext transport. The agent registration socket
// and the handler's own unix socket always use it.
type NoSecurityProvider struct{}

func (NoSecurityProvider) GetClientCredentials(context.Context) (grpc.DialOption, error) {
	return grpc.WithTransportCredentials(insecure.NewCredentials()), nil
}

func (NoSecurityProvider) GetServerCredentials(context.Context) (grpc.ServerOption, error) {
	return grpc.Creds(insecure.NewCredentials()), nil
}

func (NoSecurityProvider) Close() error {
	return nil
}

// roleNeeds lists which side of a connection each role terminates TLS on.
var roleNeeds = map[models.ServiceRole]struct{ client, server bool }{ //nolint:gochecknoglobals // static table
	models.RoleDiscoveryHandler: {client: true, server: true},
}

// MTLSProvider implements SecurityProvider with certificate files.
type MTLSProvider struct {
	clientCreds credentials.TransportCredentials
	serverCreds credentials.TransportCredentials
}

// NewMTLSProvider loads the key pair and CA bundle named in config.TLS.
func NewMTLSProvider(config *models.SecurityConfig, log logger.Logger) (*MTLSProvider, error) {
	if config == nil {
		return nil, errSecurityConfigRequired
	}

	if config.TLS.CertFile == "" || config.TLS.KeyFile == "" || config.TLS.CAFile == "" {
		return nil, fmt.Errorf("%w: tls.cert_file, tls.key_file and tls.ca_file are required", errSecurityConfigRequired)
	}

	role := config.Role
	if role == "" {
		role = models.RoleDiscoveryHandler
	}

	needs, ok := roleNeeds[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errInvalidServiceRole, role)
	}

	files := resolveTLSFiles(config)

	log.Info().
		Str("role", string(role)).
		Str("cert", files.cert).
		Str("ca", files.ca).
		Msg("Loading mTLS credentials")

	cert, err := tls.LoadX509KeyPair(files.cert, files.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadKeyPair, err)
	}

	p := &MTLSProvider{}

	if needs.client {
		roots, poolErr := loadCertPool(files.ca)
		if poolErr != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToLoadClientCreds, poolErr)
		}

		p.clientCreds = credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      roots,
			ServerName:   config.ServerName,
			MinVersion:   tls.VersionTLS13,
		})
	}

	if needs.server {
		clientCAs, poolErr := loadCertPool(files.clientCA)
		if poolErr != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToLoadServerCreds, poolErr)
		}

		p.serverCreds = credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientCAs:    clientCAs,
			ClientAuth:   tls.RequireAndVerifyClientCert,
			MinVersion:   tls.VersionTLS13,
		})
	}

	return p, nil
}

type tlsFiles struct {
	cert, key, ca, clientCA string
}

// resolveTLSFiles joins relative paths onto cert_dir. The client CA falls
// back to the CA file.
func resolveTLSFiles(config *models.SecurityConfig) tlsFiles {
	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) || config.CertDir == "" {
			return path
		}

		return filepath.Join(config.CertDir, path)
	}

	files := tlsFiles{
		cert:     resolve(config.TLS.CertFile),
		key:      resolve(config.TLS.KeyFile),
		ca:       resolve(config.TLS.CAFile),
		clientCA: resolve(config.TLS.ClientCAFile),
	}

	if files.clientCA == "" {
		files.clientCA = files.ca
	}

	return files
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToReadCA, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: %s", errFailedToAppendCA, path)
	}

	return pool, nil
}

func (p *MTLSProvider) GetClientCredentials(context.Context) (grpc.DialOption, error) {
	if p.clientCreds == nil {
		return nil, errServiceNotClient
	}

	return grpc.WithTransportCredentials(p.clientCreds), nil
}

func (p *MTLSProvider) GetServerCredentials(context.Context) (grpc.ServerOption, error) {
	if p.serverCreds == nil {
		return nil, errServiceNotServer
	}

	return grpc.Creds(p.serverCreds), nil
}

func (*MTLSProvider) Close() error {
	return nil
}

// SpiffeProvider implements SecurityProvider using the SPIFFE workload API.
type SpiffeProvider struct {
	client    *workloadapi.Client
	source    *workloadapi.X509Source
	serverID  *spiffeid.ID
	domain    *spiffeid.TrustDomain
	closeOnce sync.Once
	logger    logger.Logger
}

// NewSpiffeProvider connects to the workload API and waits for the first SVID.
func NewSpiffeProvider(ctx context.Context, config *models.SecurityConfig, log logger.Logger) (*SpiffeProvider, error) {
	socket := config.WorkloadSocket
	if socket == "" {
		socket = defaultWorkloadSocket
	}

	domain, serverID, err := parseSpiffeIdentity(config)
	if err != nil {
		return nil, err
	}

	client, err := workloadapi.New(ctx, workloadapi.WithAddr(socket))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedWorkloadAPIClient, err)
	}

	source, err := workloadapi.NewX509Source(ctx, workloadapi.WithClient(client))
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: %w", errFailedToCreateX509Source, err)
	}

	return &SpiffeProvider{
		client:   client,
		source:   source,
		serverID: serverID,
		domain:   domain,
		logger:   log,
	}, nil
}

// parseSpiffeIdentity reads trust_domain and server_spiffe_id. A server ID
// without a scheme is taken as a path inside the trust domain.
func parseSpiffeIdentity(config *models.SecurityConfig) (*spiffeid.TrustDomain, *spiffeid.ID, error) {
	var domain *spiffeid.TrustDomain

	if td := strings.TrimSpace(config.TrustDomain); td != "" {
		var (
			parsed spiffeid.TrustDomain
			err    error
		)

		if strings.Contains(td, "://") {
			var id spiffeid.ID

			id, err = spiffeid.FromString(td)
			parsed = id.TrustDomain()
		} else {
			parsed, err = spiffeid.TrustDomainFromString(td)
		}

		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errInvalidTrustDomain, err)
		}

		domain = &parsed
	}

	raw := strings.TrimSpace(config.ServerSPIFFEID)
	if raw == "" {
		return domain, nil, nil
	}

	if !strings.Contains(raw, "://") {
		if domain == nil {
			return nil, nil, fmt.Errorf("%w: %q", errMissingTrustDomain, raw)
		}

		raw = "spiffe://" + domain.String() + "/" + strings.TrimPrefix(raw, "/")
	}

	id, err := spiffeid.FromString(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errInvalidServerSPIFFEID, err)
	}

	return domain, &id, nil
}

func (p *SpiffeProvider) GetClientCredentials(context.Context) (grpc.DialOption, error) {
	authorizer := tlsconfig.AuthorizeAny()

	switch {
	case p.serverID != nil:
		authorizer = tlsconfig.AuthorizeID(*p.serverID)
	case p.domain != nil:
		authorizer = tlsconfig.AuthorizeMemberOf(*p.domain)
	default:
		p.logger.Warn().Msg("No server_spiffe_id or trust_domain set, accepting any SPIFFE peer")
	}

	return grpc.WithTransportCredentials(credentials.NewTLS(tlsconfig.MTLSClientConfig(p.source, p.source, authorizer))), nil
}

func (p *SpiffeProvider) GetServerCredentials(context.Context) (grpc.ServerOption, error) {
	authorizer := tlsconfig.AuthorizeAny()
	if p.domain != nil {
		authorizer = tlsconfig.AuthorizeMemberOf(*p.domain)
	}

	return grpc.Creds(credentials.NewTLS(tlsconfig.MTLSServerConfig(p.source, p.source, authorizer))), nil
}

func (p *SpiffeProvider) Close() error {
	var err error

	p.closeOnce.Do(func() {
		if e := p.source.Close(); e != nil {
			err = e
		}

		if e := p.client.Close(); e != nil && err == nil {
			err = e
		}
	})

	return err
}

// NewSecurityProvider returns the provider for config.Mode. A nil config or
// empty mode yields plaintext.
func NewSecurityProvider(ctx context.Context, config *models.SecurityConfig, log logger.Logger) (SecurityProvider, error) {
	if config == nil || config.Mode == "" {
		return NoSecurityProvider{}, nil
	}

	mode := models.SecurityMode(strings.ToLower(string(config.Mode)))

	log.Info().Str("mode", string(mode)).Msg("Creating security provider")

	switch mode {
	case models.SecurityModeNone:
		return NoSecurityProvider{}, nil
	case models.SecurityModeMTLS:
		provider, err := NewMTLSProvider(config, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToCreateMTLSProvider, err)
		}

		return provider, nil
	case models.SecurityModeSpiffe:
		return NewSpiffeProvider(ctx, config, log)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownSecurityMode, config.Mode)
	}
}
