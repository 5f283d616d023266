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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/antchfx/xpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/discovery-handler/pkg/logger"
)

const deviceURL = "http://10.0.0.5/onvif/device_service"

const networkInterfacesReply = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:tds="http://www.onvif.org/ver10/device/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
  <env:Body>
    <tds:GetNetworkInterfacesResponse>
      <tds:NetworkInterfaces token="eth0">
        <tt:Enabled>true</tt:Enabled>
        <tt:Info><tt:Name>eth0</tt:Name><tt:HwAddress>AA:BB</tt:HwAddress><tt:MTU>1500</tt:MTU></tt:Info>
        <tt:IPv4>
          <tt:Enabled>true</tt:Enabled>
          <tt:Config>
            <tt:Manual><tt:Address>10.0.0.5</tt:Address><tt:PrefixLength>24</tt:PrefixLength></tt:Manual>
            <tt:DHCP>false</tt:DHCP>
          </tt:Config>
        </tt:IPv4>
      </tds:NetworkInterfaces>
    </tds:GetNetworkInterfacesResponse>
  </env:Body>
</env:Envelope>`

const noAddressReply = `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:tds="http://www.onvif.org/ver10/device/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
  <env:Body><tds:GetNetworkInterfacesResponse><tds:NetworkInterfaces token="eth0">
    <tt:Info><tt:HwAddress>AA:BB</tt:HwAddress></tt:Info>
  </tds:NetworkInterfaces></tds:GetNetworkInterfacesResponse></env:Body>
</env:Envelope>`

const scopesReply = `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:tds="http://www.onvif.org/ver10/device/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
  <env:Body><tds:GetScopesResponse>
    <tds:Scopes><tt:ScopeDef>Fixed</tt:ScopeDef><tt:ScopeItem>onvif://www.onvif.org/name/lobby</tt:ScopeItem></tds:Scopes>
    <tds:Scopes><tt:ScopeDef>Fixed</tt:ScopeDef><tt:ScopeItem>onvif://www.onvif.org/location/building1</tt:ScopeItem></tds:Scopes>
  </tds:GetScopesResponse></env:Body>
</env:Envelope>`

const servicesReply = `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
  <env:Body><tds:GetServicesResponse>
    <tds:Service><tds:Namespace>http://www.onvif.org/ver10/device/wsdl</tds:Namespace><tds:XAddr>http://10.0.0.5/onvif/device_service</tds:XAddr></tds:Service>
    <tds:Service><tds:Namespace>http://www.onvif.org/ver10/media/wsdl</tds:Namespace><tds:XAddr>http://10.0.0.5/onvif/media_service</tds:XAddr></tds:Service>
  </tds:GetServicesResponse></env:Body>
</env:Envelope>`

const profilesReply = `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:trt="http://www.onvif.org/ver10/media/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
  <env:Body><trt:GetProfilesResponse>
    <trt:Profiles token="profile_1" fixed="true"><tt:Name>main</tt:Name></trt:Profiles>
    <trt:Profiles token="profile_2" fixed="true"><tt:Name>sub</tt:Name></trt:Profiles>
  </trt:GetProfilesResponse></env:Body>
</env:Envelope>`

const streamURIReply = `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"
    xmlns:trt="http://www.onvif.org/ver10/media/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
  <env:Body><trt:GetStreamUriResponse><trt:MediaUri>
    <tt:Uri>rtsp://10.0.0.5:554/stream1</tt:Uri><tt:InvalidAfterConnect>false</tt:InvalidAfterConnect>
  </trt:MediaUri></trt:GetStreamUriResponse></env:Body>
</env:Envelope>`

func newMockClient(t *testing.T) (*Client, *MockTransport) {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := NewMockTransport(ctrl)

	return NewClient(transport, logger.NewTestLogger()), transport
}

func TestGetIPAndMAC(t *testing.T) {
	client, transport := newMockClient(t)

	transport.EXPECT().
		Post(gomock.Any(), deviceURL, DeviceWSDL+"/GetNetworkInterfaces", []byte(getNetworkInterfacesRequest)).
		Return([]byte(networkInterfacesReply), nil)

	ip, mac, err := client.GetIPAndMAC(context.Background(), deviceURL)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)
	assert.Equal(t, "AA:BB", mac)
}

func TestGetIPAndMACErrors(t *testing.T) {
	errRefused := errors.New("connection refused")

	tests := []struct {
		name    string
		reply   string
		postErr error
		wantErr error
	}{
		{name: "missing address", reply: noAddressReply, wantErr: ErrElementNotFound},
		{name: "malformed xml", reply: `<env:Envelope><env:Body></env:Envelope>`, wantErr: ErrMalformedXML},
		{name: "transport error", postErr: errRefused, wantErr: errRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newMockClient(t)

			transport.EXPECT().Post(gomock.Any(), deviceURL, gomock.Any(), gomock.Any()).
				Return([]byte(tt.reply), tt.postErr)

			_, _, err := client.GetIPAndMAC(context.Background(), deviceURL)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetScopes(t *testing.T) {
	client, transport := newMockClient(t)

	transport.EXPECT().Post(gomock.Any(), deviceURL, DeviceWSDL+"/GetScopes", gomock.Any()).
		Return([]byte(scopesReply), nil)

	scopes, err := client.GetScopes(context.Background(), deviceURL)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"onvif://www.onvif.org/name/lobby",
		"onvif://www.onvif.org/location/building1",
	}, scopes)
}

func TestGetServiceURI(t *testing.T) {
	client, transport := newMockClient(t)

	transport.EXPECT().Post(gomock.Any(), deviceURL, DeviceWSDL+"/GetServices", gomock.Any()).
		Return([]byte(servicesReply), nil).Times(2)

	uri, err := client.GetServiceURI(context.Background(), deviceURL, MediaWSDL)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5/onvif/media_service", uri)

	_, err = client.GetServiceURI(context.Background(), deviceURL, "http://www.onvif.org/ver20/ptz/wsdl")
	require.ErrorIs(t, err, ErrElementNotFound)

	_, err = client.GetServiceURI(context.Background(), deviceURL, "x' or '1'='1")
	require.ErrorIs(t, err, errInvalidNamespace)
}

func TestGetProfilesAndStreamURI(t *testing.T) {
	client, transport := newMockClient(t)
	mediaURL := "http://10.0.0.5/onvif/media_service"

	transport.EXPECT().Post(gomock.Any(), mediaURL, MediaWSDL+"/GetProfiles", gomock.Any()).
		Return([]byte(profilesReply), nil)
	transport.EXPECT().Post(gomock.Any(), mediaURL, MediaWSDL+"/GetStreamUri", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, body []byte) ([]byte, error) {
			assert.Contains(t, string(body), "<wsdl:ProfileToken>profile_1</wsdl:ProfileToken>")
			assert.Contains(t, string(body), "<sch:Protocol>RTSP</sch:Protocol>")

			return []byte(streamURIReply), nil
		})

	profiles, err := client.GetProfiles(context.Background(), mediaURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile_1", "profile_2"}, profiles)

	uri, err := client.GetProfileStreamingURI(context.Background(), mediaURL, profiles[0])
	require.NoError(t, err)
	assert.Equal(t, "rtsp://10.0.0.5:554/stream1", uri)
}

func TestXPathResultKinds(t *testing.T) {
	doc, err := parseDocument([]byte(networkInterfacesReply))
	require.NoError(t, err)

	_, err = firstString(doc, xpath.MustCompile("count(//*)"), "count")
	require.ErrorIs(t, err, ErrUnexpectedXPathType)

	_, err = firstString(doc, xpath.MustCompile("boolean(//*)"), "bool")
	require.ErrorIs(t, err, ErrUnexpectedXPathType)

	s, err := firstString(doc, xpath.MustCompile("string(//*[local-name()='Name'])"), "name")
	require.NoError(t, err)
	assert.Equal(t, "eth0", s)

	_, err = allStrings(doc, xpath.MustCompile("string(//*[local-name()='Name'])"), "name")
	require.ErrorIs(t, err, ErrUnexpectedXPathType)

	_, err = stringValue(doc, xpath.MustCompile("//*[local-name()='Missing']/text()"), "missing")
	require.ErrorIs(t, err, ErrElementNotFound)
}

func TestHTTPTransportPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t,
			`application/soap+xml; charset=utf-8; action="http://www.onvif.org/ver10/device/wsdl/GetScopes"`,
			r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, getScopesRequest, string(body))

		_, _ = w.Write([]byte(scopesReply))
	}))
	defer srv.Close()

	transport := NewHTTPTransport(time.Second)

	data, err := transport.Post(context.Background(), srv.URL, action(DeviceWSDL, "GetScopes"), []byte(getScopesRequest))
	require.NoError(t, err)
	assert.Equal(t, scopesReply, string(data))
}

func TestHTTPTransportRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewHTTPTransportWithClient(srv.Client()).Post(context.Background(), srv.URL, "a", nil)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}
