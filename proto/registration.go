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
	"google.golang.org/protobuf/encoding/protowire"
)

// EndpointType says how the agent reaches a registered handler.
type EndpointType int32

const (
	EndpointType_UDS     EndpointType = 0 //nolint:revive,stylecheck // protoc naming
	EndpointType_NETWORK EndpointType = 1 //nolint:revive,stylecheck // protoc naming
)

func (e EndpointType) String() string {
	switch e {
	case EndpointType_UDS:
		return "UDS"
	case EndpointType_NETWORK:
		return "NETWORK"
	default:
		return "UNKNOWN"
	}
}

// RegisterDiscoveryHandlerRequest announces a handler to the agent.
type RegisterDiscoveryHandlerRequest struct {
	Name         string
	Endpoint     string
	EndpointType EndpointType
	Shared       bool
}

func (x *RegisterDiscoveryHandlerRequest) GetName() string {
	if x != nil {
		return x.Name
	}

	return ""
}

func (x *RegisterDiscoveryHandlerRequest) GetEndpoint() string {
	if x != nil {
		return x.Endpoint
	}

	return ""
}

func (x *RegisterDiscoveryHandlerRequest) GetEndpointType() EndpointType {
	if x != nil {
		return x.EndpointType
	}

	return EndpointType_UDS
}

func (x *RegisterDiscoveryHandlerRequest) GetShared() bool {
	if x != nil {
		return x.Shared
	}

	return false
}

func (x *RegisterDiscoveryHandlerRequest) Marshal() ([]byte, error) {
	var b []byte

	b = appendString(b, 1, x.Name)
	b = appendString(b, 2, x.Endpoint)
	b = appendVarint(b, 3, uint64(x.EndpointType)) //nolint:gosec // enum values are non-negative

	return appendBool(b, 4, x.Shared), nil
}

func (x *RegisterDiscoveryHandlerRequest) Unmarshal(b []byte) error {
	*x = RegisterDiscoveryHandlerRequest{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			x.Name = v

			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			x.Endpoint = v

			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			x.EndpointType = EndpointType(int32(v)) //nolint:gosec // enum is int32 on the wire

			return n, err
		case 4:
			v, n, err := consumeVarint(typ, b)
			x.Shared = protowire.DecodeBool(v)

			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// Empty is the registration reply.
type Empty struct{}

func (*Empty) Marshal() ([]byte, error) {
	return nil, nil
}

func (*Empty) Unmarshal(b []byte) error {
	return consumeFields(b, skipField)
}
