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
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewClient creates a client connection to addr. Unix socket targets always
// use plaintext; TCP targets take their credentials from provider.
func NewClient(ctx context.Context, addr string, provider SecurityProvider, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	network, address := SplitAddress(addr)
	if address == "" {
		return nil, errEmptyAddress
	}

	target := address
	if network == "unix" {
		target = unixScheme + address
		provider = NoSecurityProvider{}
	}

	if provider == nil {
		provider = NoSecurityProvider{}
	}

	creds, err := provider.GetClientCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get client credentials: %w", err)
	}

	dialOpts := append([]grpc.DialOption{
		creds,
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}

	return conn, nil
}
