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

package wsdiscovery

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	soapEnvelopeNS   = "http://www.w3.org/2003/05/soap-envelope"
	discoveryNS      = "http://schemas.xmlsoap.org/ws/2005/04/discovery"
	addressingNS     = "http://schemas.xmlsoap.org/ws/2004/08/addressing"
	networkWSDLNS    = "http://www.onvif.org/ver10/network/wsdl"
	discoveryTo      = "urn:schemas-xmlsoap-org:ws:2005:04:discovery"
	probeAction      = "http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe"
	networkVideoType = "netwsdl:NetworkVideoTransmitter"
)

type probeEnvelope struct {
	XMLName xml.Name    `xml:"s:Envelope"`
	S       string      `xml:"xmlns:s,attr"`
	D       string      `xml:"xmlns:d,attr"`
	W       string      `xml:"xmlns:w,attr"`
	NetWSDL string      `xml:"xmlns:netwsdl,attr"`
	Header  probeHeader `xml:"s:Header"`
	Types   string      `xml:"s:Body>d:Probe>d:Types"`
}

type probeHeader struct {
	MessageID string `xml:"w:MessageID"`
	To        string `xml:"w:To"`
	Action    string `xml:"w:Action"`
}

// BuildProbe renders a SOAP 1.2 Probe for NetworkVideoTransmitter devices.
func BuildProbe(messageID string) ([]byte, error) {
	env := probeEnvelope{
		S:       soapEnvelopeNS,
		D:       discoveryNS,
		W:       addressingNS,
		NetWSDL: networkWSDLNS,
		Header: probeHeader{
			MessageID: messageID,
			To:        discoveryTo,
			Action:    probeAction,
		},
		Types: networkVideoType,
	}

	out, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}

// probeMatchesEnvelope matches on local names so any namespace prefix is accepted.
type probeMatchesEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Matches []probeMatch `xml:"Body>ProbeMatches>ProbeMatch"`
}

type probeMatch struct {
	XAddrs string `xml:"XAddrs"`
}

// ParseProbeMatches returns every XAddrs entry of a ProbeMatches reply in document order.
func ParseProbeMatches(data []byte) ([]string, error) {
	var env probeMatchesEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	var urls []string

	for _, m := range env.Matches {
		urls = append(urls, strings.Fields(m.XAddrs)...)
	}

	return urls, nil
}
