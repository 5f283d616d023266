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
	"fmt"

	protobuf "google.golang.org/protobuf/proto"
)

// Message is implemented by every type in this package.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Codec is a gRPC codec named "proto". It encodes the messages in this package
// and hands generated protobuf messages (health, reflection) to the protobuf runtime,
// so a server forced onto it keeps serving the standard services.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.Marshal()
	case protobuf.Message:
		return protobuf.Marshal(m)
	default:
		return nil, fmt.Errorf("%w: %T", errUnsupportedMessage, v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.Unmarshal(data)
	case protobuf.Message:
		return protobuf.Unmarshal(data, m)
	default:
		return fmt.Errorf("%w: %T", errUnsupportedMessage, v)
	}
}

func (Codec) Name() string {
	return "proto"
}
