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

// Package marshaller converts discovery responses between the worker JSON
// format, the in-memory models and the gRPC messages.
package marshaller

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/carverauto/discovery-handler/pkg/models"
)

type rawResponse struct {
	Devices *[]rawDevice `json:"devices"`
}

type rawDevice struct {
	ID          json.RawMessage            `json:"id"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Mounts      []models.Mount             `json:"mounts"`
	DeviceSpecs []models.DeviceSpec        `json:"device_specs"`
}

// DecodeResponse parses a worker response. Ids and property values are
// stringified: JSON strings are unquoted, anything else keeps its compact JSON text.
func DecodeResponse(data []byte) (*models.DiscoverResponse, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if raw.Devices == nil {
		return nil, fmt.Errorf("%w: devices is required", ErrMalformedResponse)
	}

	resp := &models.DiscoverResponse{Devices: make([]models.Device, 0, len(*raw.Devices))}

	for i, rd := range *raw.Devices {
		id, err := stringify(rd.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: device %d id: %w", ErrMalformedResponse, i, err)
		}

		props := make(map[string]string, len(rd.Properties))

		for k, v := range rd.Properties {
			s, err := stringify(v)
			if err != nil {
				return nil, fmt.Errorf("%w: device %d property %q: %w", ErrMalformedResponse, i, k, err)
			}

			props[k] = s
		}

		device := models.NewDevice(id, props)

		if rd.Mounts != nil {
			device.Mounts = rd.Mounts
		}

		if rd.DeviceSpecs != nil {
			device.DeviceSpecs = rd.DeviceSpecs
		}

		resp.Devices = append(resp.Devices, device)
	}

	return resp, nil
}

func stringify(v json.RawMessage) (string, error) {
	if len(v) == 0 {
		return "", nil
	}

	// Only JSON strings are unquoted; null stays the literal "null".
	if trimmed := bytes.TrimSpace(v); len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}

		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// EncodeResponse renders a response in the worker JSON format.
// Nil collections are written as empty arrays and objects.
func EncodeResponse(resp *models.DiscoverResponse) ([]byte, error) {
	out := models.DiscoverResponse{Devices: []models.Device{}}

	if resp != nil {
		for i := range resp.Devices {
			out.Devices = append(out.Devices, normalize(resp.Devices[i]))
		}
	}

	return json.Marshal(out)
}

func normalize(d models.Device) models.Device {
	n := models.NewDevice(d.ID, d.Properties)

	if d.Mounts != nil {
		n.Mounts = d.Mounts
	}

	if d.DeviceSpecs != nil {
		n.DeviceSpecs = d.DeviceSpecs
	}

	return n
}

// EncodeDetails renders discovery details for the worker input artifact.
func EncodeDetails(details any) ([]byte, error) {
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode discovery details: %w", err)
	}

	return b, nil
}
