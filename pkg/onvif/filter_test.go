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

package onvif

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
)

func newMockFilter(t *testing.T, opts ...FilterOption) (*Filter, *MockDeviceQuerier) {
	t.Helper()

	ctrl := gomock.NewController(t)
	querier := NewMockDeviceQuerier(ctrl)

	return NewFilter(querier, logger.NewTestLogger(), opts...), querier
}

func TestFilterApplyAcceptsMatchingDevice(t *testing.T) {
	filter, querier := newMockFilter(t)

	querier.EXPECT().GetIPAndMAC(gomock.Any(), deviceURL).Return("10.0.0.5", "AA:BB", nil)
	querier.EXPECT().GetScopes(gomock.Any(), deviceURL).Return([]string{"onvif://www.onvif.org/name/lobby"}, nil)

	details := &models.OnvifDiscoveryDetails{
		IPAddresses: &models.FilterList{Items: []string{"10.0.0.5"}, Action: models.FilterInclude},
		Scopes:      &models.FilterList{Items: []string{"lobby"}, Action: models.FilterInclude},
	}

	devices := filter.Apply(context.Background(), details, []string{deviceURL})
	require.Len(t, devices, 1)
	assert.Equal(t, "10.0.0.5-AA:BB", devices[0].ID)
	assert.Equal(t, map[string]string{
		models.OnvifDeviceServiceURLLabel: deviceURL,
		models.OnvifDeviceIPAddressLabel:  "10.0.0.5",
		models.OnvifDeviceMACAddressLabel: "AA:BB",
	}, devices[0].Properties)
	assert.Empty(t, devices[0].Mounts)
}

func TestFilterRejectedIPSkipsScopesQuery(t *testing.T) {
	filter, querier := newMockFilter(t)

	querier.EXPECT().GetIPAndMAC(gomock.Any(), deviceURL).Return("10.0.0.5", "AA:BB", nil)
	querier.EXPECT().GetScopes(gomock.Any(), gomock.Any()).Times(0)

	details := &models.OnvifDiscoveryDetails{
		IPAddresses: &models.FilterList{Items: []string{"10.0.0.5"}, Action: models.FilterExclude},
	}

	assert.Empty(t, filter.Apply(context.Background(), details, []string{deviceURL}))
}

func TestFilterRejectedMACSkipsScopesQuery(t *testing.T) {
	filter, querier := newMockFilter(t)

	querier.EXPECT().GetIPAndMAC(gomock.Any(), deviceURL).Return("10.0.0.5", "AA:BB", nil)
	querier.EXPECT().GetScopes(gomock.Any(), gomock.Any()).Times(0)

	details := &models.OnvifDiscoveryDetails{
		MACAddresses: &models.FilterList{Items: []string{"CC:DD"}, Action: models.FilterInclude},
	}

	assert.Empty(t, filter.Apply(context.Background(), details, []string{deviceURL}))
}

func TestFilterEmptyIncludeRejectsEverything(t *testing.T) {
	filter, querier := newMockFilter(t)

	querier.EXPECT().GetIPAndMAC(gomock.Any(), gomock.Any()).Return("10.0.0.5", "AA:BB", nil).Times(2)

	details := &models.OnvifDiscoveryDetails{
		IPAddresses: &models.FilterList{Items: []string{}, Action: models.FilterInclude},
	}

	assert.Empty(t, filter.Apply(context.Background(), details, []string{"http://a", "http://b"}))
}

func TestFilterSkipsFailedCandidatesAndKeepsOrder(t *testing.T) {
	filter, querier := newMockFilter(t, WithMaxConcurrency(2))

	urls := []string{"http://a/onvif", "http://b/onvif", "http://c/onvif", "http://d/onvif"}

	querier.EXPECT().GetIPAndMAC(gomock.Any(), urls[0]).Return("10.0.0.1", "01", nil)
	querier.EXPECT().GetIPAndMAC(gomock.Any(), urls[1]).Return("", "", errors.New("timeout"))
	querier.EXPECT().GetIPAndMAC(gomock.Any(), urls[2]).Return("10.0.0.3", "03", nil)
	querier.EXPECT().GetIPAndMAC(gomock.Any(), urls[3]).Return("10.0.0.4", "04", nil)
	querier.EXPECT().GetScopes(gomock.Any(), urls[0]).Return([]string{}, nil)
	querier.EXPECT().GetScopes(gomock.Any(), urls[2]).Return(nil, ErrMalformedXML)
	querier.EXPECT().GetScopes(gomock.Any(), urls[3]).Return([]string{}, nil)

	devices := filter.Apply(context.Background(), &models.OnvifDiscoveryDetails{}, urls)

	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}

	assert.Equal(t, []string{"10.0.0.1-01", "10.0.0.4-04"}, ids)
}

func TestFilterDropsDuplicateIDs(t *testing.T) {
	filter, querier := newMockFilter(t)

	urls := []string{"http://10.0.0.5/onvif/device_service", "https://10.0.0.5/onvif/device_service"}

	querier.EXPECT().GetIPAndMAC(gomock.Any(), gomock.Any()).Return("10.0.0.5", "AA:BB", nil).Times(2)
	querier.EXPECT().GetScopes(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	devices := filter.Apply(context.Background(), nil, urls)
	require.Len(t, devices, 1)
	assert.Equal(t, urls[0], devices[0].Properties[models.OnvifDeviceServiceURLLabel])
}

func TestFilterResolvesStreamURI(t *testing.T) {
	filter, querier := newMockFilter(t, WithStreamURIResolution(true))
	mediaURL := "http://10.0.0.5/onvif/media_service"

	querier.EXPECT().GetIPAndMAC(gomock.Any(), deviceURL).Return("10.0.0.5", "AA:BB", nil)
	querier.EXPECT().GetScopes(gomock.Any(), deviceURL).Return(nil, nil)
	querier.EXPECT().GetServiceURI(gomock.Any(), deviceURL, MediaWSDL).Return(mediaURL, nil)
	querier.EXPECT().GetProfiles(gomock.Any(), mediaURL).Return([]string{"profile_1", "profile_2"}, nil)
	querier.EXPECT().GetProfileStreamingURI(gomock.Any(), mediaURL, "profile_1").Return("rtsp://10.0.0.5/stream1", nil)

	devices := filter.Apply(context.Background(), nil, []string{deviceURL})
	require.Len(t, devices, 1)
	assert.Equal(t, "rtsp://10.0.0.5/stream1", devices[0].Properties[models.OnvifDeviceStreamURILabel])
}

func TestFilterStreamURIFailureKeepsDevice(t *testing.T) {
	filter, querier := newMockFilter(t, WithStreamURIResolution(true))

	querier.EXPECT().GetIPAndMAC(gomock.Any(), deviceURL).Return("10.0.0.5", "AA:BB", nil)
	querier.EXPECT().GetScopes(gomock.Any(), deviceURL).Return(nil, nil)
	querier.EXPECT().GetServiceURI(gomock.Any(), deviceURL, MediaWSDL).Return("", ErrElementNotFound)

	devices := filter.Apply(context.Background(), nil, []string{deviceURL})
	require.Len(t, devices, 1)
	assert.NotContains(t, devices[0].Properties, models.OnvifDeviceStreamURILabel)
}
