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

package proto

import (
	"context"

	"google.golang.org/grpc"
)

const (
	DiscoveryHandler_Discover_FullMethodName = "/v0.DiscoveryHandler/Discover" //nolint:revive,stylecheck // protoc naming
)

// DiscoveryHandlerClient is the client API for the DiscoveryHandler service.
type DiscoveryHandlerClient interface {
	Discover(ctx context.Context, in *DiscoverRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiscoverResponse], error)
}

type discoveryHandlerClient struct {
	cc grpc.ClientConnInterface
}

func NewDiscoveryHandlerClient(cc grpc.ClientConnInterface) DiscoveryHandlerClient {
	return &discoveryHandlerClient{cc}
}

func (c *discoveryHandlerClient) Discover(
	ctx context.Context, in *DiscoverRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[DiscoverResponse], error) {
	cOpts := append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)

	stream, err := c.cc.NewStream(ctx, &DiscoveryHandler_ServiceDesc.Streams[0], DiscoveryHandler_Discover_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[DiscoverRequest, DiscoverResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

// DiscoveryHandlerServer is the server API for the DiscoveryHandler service.
type DiscoveryHandlerServer interface {
	Discover(*DiscoverRequest, grpc.ServerStreamingServer[DiscoverResponse]) error
}

// DiscoveryHandler_DiscoverServer is the server-side stream of Discover.
type DiscoveryHandler_DiscoverServer = grpc.ServerStreamingServer[DiscoverResponse] //nolint:revive,stylecheck // protoc naming

func RegisterDiscoveryHandlerServer(s grpc.ServiceRegistrar, srv DiscoveryHandlerServer) {
	s.RegisterService(&DiscoveryHandler_ServiceDesc, srv)
}

func _DiscoveryHandler_Discover_Handler(srv interface{}, stream grpc.ServerStream) error { //nolint:revive,stylecheck // protoc naming
	m := new(DiscoverRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}

	return srv.(DiscoveryHandlerServer).Discover(m, &grpc.GenericServerStream[DiscoverRequest, DiscoverResponse]{ServerStream: stream})
}

// DiscoveryHandler_ServiceDesc is the grpc.ServiceDesc for the DiscoveryHandler service.
var DiscoveryHandler_ServiceDesc = grpc.ServiceDesc{ //nolint:revive,stylecheck,gochecknoglobals // protoc naming
	ServiceName: "v0.DiscoveryHandler",
	HandlerType: (*DiscoveryHandlerServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Discover",
			Handler:       _DiscoveryHandler_Discover_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "discovery.proto",
}
