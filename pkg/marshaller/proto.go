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
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/proto"
)

// ToProto converts a response into its gRPC message.
func ToProto(resp *models.DiscoverResponse) *proto.DiscoverResponse {
	out := &proto.DiscoverResponse{}
	if resp == nil {
		return out
	}

	out.Devices = make([]*proto.Device, 0, len(resp.Devices))

	for i := range resp.Devices {
		d := &resp.Devices[i]

		pd := &proto.Device{
			Id:         d.ID,
			Properties: make(map[string]string, len(d.Properties)),
		}

		for k, v := range d.Properties {
			pd.Properties[k] = v
		}

		for _, m := range d.Mounts {
			pd.Mounts = append(pd.Mounts, &proto.Mount{
				ContainerPath: m.ContainerPath,
				HostPath:      m.HostPath,
				ReadOnly:      m.ReadOnly,
			})
		}

		for _, s := range d.DeviceSpecs {
			pd.DeviceSpecs = append(pd.DeviceSpecs, &proto.DeviceSpec{
				ContainerPath: s.ContainerPath,
				HostPath:      s.HostPath,
				Permissions:   s.Permissions,
			})
		}

		out.Devices = append(out.Devices, pd)
	}

	return out
}

// FromProto converts a gRPC message back into the model.
func FromProto(resp *proto.DiscoverResponse) *models.DiscoverResponse {
	out := &models.DiscoverResponse{Devices: make([]models.Device, 0, len(resp.GetDevices()))}

	for _, pd := range resp.GetDevices() {
		props := make(map[string]string, len(pd.GetProperties()))
		for k, v := range pd.GetProperties() {
			props[k] = v
		}

		d := models.NewDevice(pd.GetId(), props)

		for _, m := range pd.GetMounts() {
			d.Mounts = append(d.Mounts, models.Mount{
				ContainerPath: m.ContainerPath,
				HostPath:      m.HostPath,
				ReadOnly:      m.ReadOnly,
			})
		}

		for _, s := range pd.GetDeviceSpecs() {
			d.DeviceSpecs = append(d.DeviceSpecs, models.DeviceSpec{
				ContainerPath: s.ContainerPath,
				HostPath:      s.HostPath,
				Permissions:   s.Permissions,
			})
		}

		out.Devices = append(out.Devices, d)
	}

	return out
}
