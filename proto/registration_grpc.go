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
	Registration_RegisterDiscoveryHandler_FullMethodName = "/v0.Registration/RegisterDiscoveryHandler" //nolint:revive,stylecheck // protoc naming
)

// RegistrationClient is the client API for the agent's Registration service.
type RegistrationClient interface {
	RegisterDiscoveryHandler(ctx context.Context, in *RegisterDiscoveryHandlerRequest, opts ...grpc.CallOption) (*Empty, error)
}

type registrationClient struct {
	cc grpc.ClientConnInterface
}

func NewRegistrationClient(cc grpc.ClientConnInterface) RegistrationClient {
	return &registrationClient{cc}
}

func (c *registrationClient) RegisterDiscoveryHandler(
	ctx context.Context, in *RegisterDiscoveryHandlerRequest, opts ...grpc.CallOption) (*Empty, error) {
	cOpts := append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	out := new(Empty)

	if err := c.cc.Invoke(ctx, Registration_RegisterDiscoveryHandler_FullMethodName, in, out, cOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

// RegistrationServer is the server API for the Registration service.
// The agent implements it; handlers only need it in tests.
type RegistrationServer interface {
	RegisterDiscoveryHandler(context.Context, *RegisterDiscoveryHandlerRequest) (*Empty, error)
}

func RegisterRegistrationServer(s grpc.ServiceRegistrar, srv RegistrationServer) {
	s.RegisterService(&Registration_ServiceDesc, srv)
}

func _Registration_RegisterDiscoveryHandler_Handler( //nolint:revive,stylecheck // protoc naming
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterDiscoveryHandlerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(RegistrationServer).RegisterDiscoveryHandler(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Registration_RegisterDiscoveryHandler_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegistrationServer).RegisterDiscoveryHandler(ctx, req.(*RegisterDiscoveryHandlerRequest))
	}

	return interceptor(ctx, in, info, handler)
}

// Registration_ServiceDesc is the grpc.ServiceDesc for the Registration service.
var Registration_ServiceDesc = grpc.ServiceDesc{ //nolint:revive,stylecheck,gochecknoglobals // protoc naming
	ServiceName: "v0.Registration",
	HandlerType: (*RegistrationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RegisterDiscoveryHandler",
			Handler:    _Registration_RegisterDiscoveryHandler_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "discovery.proto",
}
