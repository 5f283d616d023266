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

// Package onvif queries ONVIF devices over SOAP and filters discovered
// candidates into the device list reported to the orchestrator.
package onvif

import (
	"context"
	"fmt"

	"github.com/antchfx/xmlquery"

	"github.com/carverauto/discovery-handler/pkg/logger"
)

//go:generate mockgen -destination=mock_querier.go -package=onvif github.com/carverauto/discovery-handler/pkg/onvif DeviceQuerier

// DeviceQuerier reads the properties of one ONVIF device service.
type DeviceQuerier interface {
	GetIPAndMAC(ctx context.Context, url string) (ip, mac string, err error)
	GetScopes(ctx context.Context, url string) ([]string, error)
	GetServiceURI(ctx context.Context, url, namespace string) (string, error)
	GetProfiles(ctx context.Context, url string) ([]string, error)
	GetProfileStreamingURI(ctx context.Context, url, token string) (string, error)
}

// Client implements DeviceQuerier over a Transport. It does not retry.
type Client struct {
	transport Transport
	logger    logger.Logger
}

var _ DeviceQuerier = (*Client)(nil)

func NewClient(transport Transport, log logger.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    log,
	}
}

func (c *Client) call(ctx context.Context, url, wsdl, operation string, body []byte) (*xmlquery.Node, error) {
	data, err := c.transport.Post(ctx, url, action(wsdl, operation), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return doc, nil
}

// GetIPAndMAC reads the first IPv4 address and hardware address of the device.
func (c *Client) GetIPAndMAC(ctx context.Context, url string) (ip, mac string, err error) {
	doc, err := c.call(ctx, url, DeviceWSDL, "GetNetworkInterfaces", []byte(getNetworkInterfacesRequest))
	if err != nil {
		return "", "", err
	}

	ip, err = firstString(doc, ipAddressExpr, "ip address")
	if err != nil {
		return "", "", err
	}

	mac, err = firstString(doc, macAddressExpr, "mac address")
	if err != nil {
		return "", "", err
	}

	c.logger.Trace().Str("url", url).Str("ip", ip).Str("mac", mac).Msg("Read network interfaces")

	return ip, mac, nil
}

// GetScopes lists the device scope URIs.
func (c *Client) GetScopes(ctx context.Context, url string) ([]string, error) {
	doc, err := c.call(ctx, url, DeviceWSDL, "GetScopes", []byte(getScopesRequest))
	if err != nil {
		return nil, err
	}

	return allStrings(doc, scopesExpr, "scopes")
}

// GetServiceURI returns the XAddr of the service registered under namespace.
func (c *Client) GetServiceURI(ctx context.Context, url, namespace string) (string, error) {
	expr, err := serviceExpr(namespace)
	if err != nil {
		return "", err
	}

	doc, err := c.call(ctx, url, DeviceWSDL, "GetServices", []byte(getServicesRequest))
	if err != nil {
		return "", err
	}

	return stringValue(doc, expr, "service "+namespace)
}

// GetProfiles lists the media profile tokens.
func (c *Client) GetProfiles(ctx context.Context, url string) ([]string, error) {
	doc, err := c.call(ctx, url, MediaWSDL, "GetProfiles", []byte(getProfilesRequest))
	if err != nil {
		return nil, err
	}

	return allStrings(doc, profilesExpr, "profiles")
}

// GetProfileStreamingURI returns the RTSP unicast URI of a media profile.
func (c *Client) GetProfileStreamingURI(ctx context.Context, url, token string) (string, error) {
	doc, err := c.call(ctx, url, MediaWSDL, "GetStreamUri", getStreamURIRequest(token))
	if err != nil {
		return "", err
	}

	return stringValue(doc, streamURIExpr, "stream uri")
}
