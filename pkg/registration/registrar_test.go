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

package registration

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	ggrpc "github.com/carverauto/discovery-handler/pkg/grpc"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/proto"
)

type fakeAgent struct {
	mu       sync.Mutex
	failures int
	code     codes.Code
	requests []*proto.RegisterDiscoveryHandlerRequest
	calls    chan struct{}
}

func (f *fakeAgent) RegisterDiscoveryHandler(_ context.Context, req *proto.RegisterDiscoveryHandlerRequest) (*proto.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	select {
	case f.calls <- struct{}{}:
	default:
	}

	if f.failures > 0 {
		f.failures--

		return nil, status.Error(f.code, "agent not ready")
	}

	return &proto.Empty{}, nil
}

func (f *fakeAgent) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

func dialAgent(t *testing.T, agent *fakeAgent) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 16)

	srv := ggrpc.NewServer("bufnet", logger.NewTestLogger(), ggrpc.WithTelemetryDisabled())
	proto.RegisterRegistrationServer(srv.GetGRPCServer(), agent)

	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop(context.Background())
	})

	return conn
}

func onvifRequest() *proto.RegisterDiscoveryHandlerRequest {
	return &proto.RegisterDiscoveryHandlerRequest{
		Name:         "onvif",
		Endpoint:     "/var/lib/akri/onvif.sock",
		EndpointType: proto.EndpointType_UDS,
		Shared:       true,
	}
}

func TestRegisterWithBackoffRetries(t *testing.T) {
	agent := &fakeAgent{failures: 2, code: codes.Unavailable, calls: make(chan struct{}, 16)}
	conn := dialAgent(t, agent)

	r, err := NewRegistrar(conn, onvifRequest(), logger.NewTestLogger(), WithRetryDelays(5*time.Millisecond, 20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.RegisterWithBackoff(ctx))
	require.Equal(t, 3, agent.count())

	got := agent.requests[2]
	assert.Equal(t, "onvif", got.GetName())
	assert.Equal(t, "/var/lib/akri/onvif.sock", got.GetEndpoint())
	assert.Equal(t, proto.EndpointType_UDS, got.GetEndpointType())
	assert.True(t, got.GetShared())
}

func TestRegisterWithBackoffStopsOnInvalidArgument(t *testing.T) {
	agent := &fakeAgent{failures: 10, code: codes.InvalidArgument, calls: make(chan struct{}, 16)}
	conn := dialAgent(t, agent)

	r, err := NewRegistrar(conn, onvifRequest(), logger.NewTestLogger(), WithRetryDelays(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	err = r.RegisterWithBackoff(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, 1, agent.count())
}

func TestRegisterWithBackoffHonoursContext(t *testing.T) {
	agent := &fakeAgent{failures: 1 << 20, code: codes.Unavailable, calls: make(chan struct{}, 16)}
	conn := dialAgent(t, agent)

	r, err := NewRegistrar(conn, onvifRequest(), logger.NewTestLogger(), WithRetryDelays(10*time.Millisecond, 10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.Error(t, r.RegisterWithBackoff(ctx))
}

func TestRunReregistersOnSignal(t *testing.T) {
	agent := &fakeAgent{calls: make(chan struct{}, 16)}
	conn := dialAgent(t, agent)

	r, err := NewRegistrar(conn, onvifRequest(), logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan struct{}, 2)
	done := make(chan error, 1)

	go func() { done <- r.Run(ctx, signals) }()

	waitCall := func() {
		select {
		case <-agent.calls:
		case <-time.After(5 * time.Second):
			t.Fatal("agent was not called")
		}
	}

	waitCall()

	signals <- struct{}{}

	waitCall()
	assert.Equal(t, 2, agent.count())

	cancel()
	require.NoError(t, <-done)
}

func TestNewRegistrarValidates(t *testing.T) {
	_, err := NewRegistrar(nil, &proto.RegisterDiscoveryHandlerRequest{Endpoint: "/x.sock"}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNameRequired)

	_, err = NewRegistrar(nil, &proto.RegisterDiscoveryHandlerRequest{Name: "onvif"}, logger.NewTestLogger())
	require.ErrorIs(t, err, errEndpointRequired)
}
