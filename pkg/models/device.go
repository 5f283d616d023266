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

// Package models pkg/models/device.go
package models

import (
	"maps"
	"slices"
)

// Property labels attached to discovered devices.
const (
	OnvifDeviceServiceURLLabel = "ONVIF_DEVICE_SERVICE_URL"
	OnvifDeviceIPAddressLabel  = "ONVIF_DEVICE_IP_ADDRESS"
	OnvifDeviceMACAddressLabel = "ONVIF_DEVICE_MAC_ADDRESS"
	OnvifDeviceStreamURILabel  = "ONVIF_DEVICE_STREAM_URI"
	DebugEchoDescriptionLabel  = "DEBUG_ECHO_DESCRIPTION"
)

// Device is a single discovered device as reported to the orchestrator.
type Device struct {
	ID          string            `json:"id"`
	Properties  map[string]string `json:"properties"`
	Mounts      []Mount           `json:"mounts"`
	DeviceSpecs []DeviceSpec      `json:"device_specs"`
}

// Mount is passed through to the orchestrator untouched.
type Mount struct {
	ContainerPath string `json:"container_path"`
	HostPath      string `json:"host_path"`
	ReadOnly      bool   `json:"read_only"`
}

// DeviceSpec is passed through to the orchestrator untouched.
type DeviceSpec struct {
	ContainerPath string `json:"container_path"`
	HostPath      string `json:"host_path"`
	Permissions   string `json:"permissions"`
}

// DiscoverResponse is the device list produced by one poll cycle.
type DiscoverResponse struct {
	Devices []Device `json:"devices"`
}

// NewDevice returns a device with empty pass-through collections.
func NewDevice(id string, properties map[string]string) Device {
	if properties == nil {
		properties = make(map[string]string)
	}

	return Device{
		ID:          id,
		Properties:  properties,
		Mounts:      []Mount{},
		DeviceSpecs: []DeviceSpec{},
	}
}

// Equal reports whether two devices carry the same id, properties, mounts and specs.
func (d *Device) Equal(other *Device) bool {
	return d.ID == other.ID &&
		maps.Equal(d.Properties, other.Properties) &&
		slices.Equal(d.Mounts, other.Mounts) &&
		slices.Equal(d.DeviceSpecs, other.DeviceSpecs)
}

// Equal reports whether both responses list the same devices in the same order.
func (r *DiscoverResponse) Equal(other *DiscoverResponse) bool {
	if r == nil || other == nil {
		return r == other
	}

	if len(r.Devices) != len(other.Devices) {
		return false
	}

	for i := range r.Devices {
		if !r.Devices[i].Equal(&other.Devices[i]) {
			return false
		}
	}

	return true
}
