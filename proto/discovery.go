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

// Package proto holds the Akri discovery v0 messages and service descriptors.
// Field numbers follow discovery.proto; messages are encoded with protowire.
package proto

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// DiscoverRequest carries the opaque discovery details blob.
type DiscoverRequest struct {
	DiscoveryDetails string
}

func (x *DiscoverRequest) GetDiscoveryDetails() string {
	if x != nil {
		return x.DiscoveryDetails
	}

	return ""
}

func (x *DiscoverRequest) Marshal() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *DiscoverRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, x.DiscoveryDetails)
}

func (x *DiscoverRequest) Unmarshal(b []byte) error {
	*x = DiscoverRequest{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeString(typ, b)
			x.DiscoveryDetails = v

			return n, err
		}

		return skipField(num, typ, b)
	})
}

// DiscoverResponse is one snapshot of discovered devices.
type DiscoverResponse struct {
	Devices []*Device
}

func (x *DiscoverResponse) GetDevices() []*Device {
	if x != nil {
		return x.Devices
	}

	return nil
}

func (x *DiscoverResponse) Marshal() ([]byte, error) {
	var b []byte

	for _, d := range x.Devices {
		b = appendMessage(b, 1, d.appendWire(nil))
	}

	return b, nil
}

func (x *DiscoverResponse) Unmarshal(b []byte) error {
	*x = DiscoverResponse{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}

			d := &Device{}
			if err := d.Unmarshal(raw); err != nil {
				return n, err
			}

			x.Devices = append(x.Devices, d)

			return n, nil
		}

		return skipField(num, typ, b)
	})
}

// Device is a discovered device.
type Device struct {
	Id          string //nolint:revive // matches protoc naming
	Properties  map[string]string
	Mounts      []*Mount
	DeviceSpecs []*DeviceSpec
}

func (x *Device) GetId() string {
	if x != nil {
		return x.Id
	}

	return ""
}

func (x *Device) GetProperties() map[string]string {
	if x != nil {
		return x.Properties
	}

	return nil
}

func (x *Device) GetMounts() []*Mount {
	if x != nil {
		return x.Mounts
	}

	return nil
}

func (x *Device) GetDeviceSpecs() []*DeviceSpec {
	if x != nil {
		return x.DeviceSpecs
	}

	return nil
}

func (x *Device) Marshal() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *Device) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Id)

	// map entries are written in key order so encoding is deterministic
	keys := make([]string, 0, len(x.Properties))
	for k := range x.Properties {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, x.Properties[k])
		b = appendMessage(b, 2, entry)
	}

	for _, m := range x.Mounts {
		b = appendMessage(b, 3, m.appendWire(nil))
	}

	for _, s := range x.DeviceSpecs {
		b = appendMessage(b, 4, s.appendWire(nil))
	}

	return b
}

func (x *Device) Unmarshal(b []byte) error {
	*x = Device{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			x.Id = v

			return n, err
		case 2:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}

			return n, x.unmarshalProperty(raw)
		case 3:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}

			m := &Mount{}
			if err := m.Unmarshal(raw); err != nil {
				return n, err
			}

			x.Mounts = append(x.Mounts, m)

			return n, nil
		case 4:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}

			s := &DeviceSpec{}
			if err := s.Unmarshal(raw); err != nil {
				return n, err
			}

			x.DeviceSpecs = append(x.DeviceSpecs, s)

			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
}

func (x *Device) unmarshalProperty(b []byte) error {
	var key, value string

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			key = v

			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			value = v

			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return err
	}

	if x.Properties == nil {
		x.Properties = make(map[string]string)
	}

	x.Properties[key] = value

	return nil
}

// Mount is passed through to the container runtime.
type Mount struct {
	ContainerPath string
	HostPath      string
	ReadOnly      bool
}

func (x *Mount) Marshal() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *Mount) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.ContainerPath)
	b = appendString(b, 2, x.HostPath)

	return appendBool(b, 3, x.ReadOnly)
}

func (x *Mount) Unmarshal(b []byte) error {
	*x = Mount{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			x.ContainerPath = v

			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			x.HostPath = v

			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			x.ReadOnly = protowire.DecodeBool(v)

			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// DeviceSpec is passed through to the container runtime.
type DeviceSpec struct {
	ContainerPath string
	HostPath      string
	Permissions   string
}

func (x *DeviceSpec) Marshal() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *DeviceSpec) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.ContainerPath)
	b = appendString(b, 2, x.HostPath)

	return appendString(b, 3, x.Permissions)
}

func (x *DeviceSpec) Unmarshal(b []byte) error {
	*x = DeviceSpec{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			x.ContainerPath = v

			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			x.HostPath = v

			return n, err
		case 3:
			v, n, err := consumeString(typ, b)
			x.Permissions = v

			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}
