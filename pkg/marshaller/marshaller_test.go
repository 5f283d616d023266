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

package marshaller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/discovery-handler/pkg/models"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *models.DiscoverResponse
		wantErr bool
	}{
		{
			name:  "string values are unquoted",
			input: `{"devices":[{"id":"foo","properties":{"DEBUG_ECHO_DESCRIPTION":"foo"}}]}`,
			want: &models.DiscoverResponse{Devices: []models.Device{
				models.NewDevice("foo", map[string]string{"DEBUG_ECHO_DESCRIPTION": "foo"}),
			}},
		},
		{
			name:  "non-string values keep compact json",
			input: `{"devices":[{"id":7,"properties":{"port":554,"tags":[ "a", "b" ],"on":true}}]}`,
			want: &models.DiscoverResponse{Devices: []models.Device{
				models.NewDevice("7", map[string]string{"port": "554", "tags": `["a","b"]`, "on": "true"}),
			}},
		},
		{
			name:  "null keeps its json text",
			input: `{"devices":[{"id":null,"properties":{"a":null,"n":1.5,"b":false,"s":""}}]}`,
			want: &models.DiscoverResponse{Devices: []models.Device{
				models.NewDevice("null", map[string]string{"a": "null", "n": "1.5", "b": "false", "s": ""}),
			}},
		},
		{
			name:  "mounts and specs pass through",
			input: `{"devices":[{"id":"cam","properties":{},"mounts":[{"container_path":"/c","host_path":"/h","read_only":true}],"device_specs":[{"container_path":"/dev/x","host_path":"/dev/x","permissions":"rw"}]}]}`,
			want: &models.DiscoverResponse{Devices: []models.Device{{
				ID:          "cam",
				Properties:  map[string]string{},
				Mounts:      []models.Mount{{ContainerPath: "/c", HostPath: "/h", ReadOnly: true}},
				DeviceSpecs: []models.DeviceSpec{{ContainerPath: "/dev/x", HostPath: "/dev/x", Permissions: "rw"}},
			}}},
		},
		{
			name:  "empty device list",
			input: `{"devices":[]}`,
			want:  &models.DiscoverResponse{Devices: []models.Device{}},
		},
		{name: "missing devices", input: `{}`, wantErr: true},
		{name: "not json", input: `{"devices":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponse([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeResponseEmitsEmptyCollections(t *testing.T) {
	out, err := EncodeResponse(&models.DiscoverResponse{Devices: []models.Device{{ID: "a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"devices":[{"id":"a","properties":{},"mounts":[],"device_specs":[]}]}`, string(out))

	out, err = EncodeResponse(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"devices":[]}`, string(out))
}

func TestEncodeThenDecode(t *testing.T) {
	in := &models.DiscoverResponse{Devices: []models.Device{
		models.NewDevice("10.0.0.5-AA:BB", map[string]string{models.OnvifDeviceIPAddressLabel: "10.0.0.5"}),
	}}

	raw, err := EncodeResponse(in)
	require.NoError(t, err)

	out, err := DecodeResponse(raw)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}

func TestEncodeDetails(t *testing.T) {
	out, err := EncodeDetails(models.EchoDiscoveryDetails{Descriptions: []string{"foo", "bar"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"descriptions":["foo","bar"]}`, string(out))

	_, err = EncodeDetails(make(chan int))
	require.Error(t, err)
}

func TestProtoConversion(t *testing.T) {
	in := &models.DiscoverResponse{Devices: []models.Device{
		{
			ID:          "cam",
			Properties:  map[string]string{"k": "v"},
			Mounts:      []models.Mount{{ContainerPath: "/c", HostPath: "/h"}},
			DeviceSpecs: []models.DeviceSpec{{ContainerPath: "/d", HostPath: "/d", Permissions: "r"}},
		},
		models.NewDevice("bare", nil),
	}}

	msg := ToProto(in)
	require.Len(t, msg.GetDevices(), 2)
	assert.Equal(t, "cam", msg.GetDevices()[0].GetId())
	assert.Equal(t, "v", msg.GetDevices()[0].GetProperties()["k"])
	assert.Empty(t, msg.GetDevices()[1].GetMounts())

	assert.True(t, in.Equal(FromProto(msg)))
	assert.Empty(t, ToProto(nil).GetDevices())
}
