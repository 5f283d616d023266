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
	"bytes"
	"encoding/xml"
)

const (
	DeviceWSDL = "http://www.onvif.org/ver10/device/wsdl"
	MediaWSDL  = "http://www.onvif.org/ver10/media/wsdl"
)

const getNetworkInterfacesRequest = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdl="http://www.onvif.org/ver10/device/wsdl">
  <soap:Header/>
  <soap:Body>
    <wsdl:GetNetworkInterfaces/>
  </soap:Body>
</soap:Envelope>`

const getScopesRequest = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdl="http://www.onvif.org/ver10/device/wsdl">
  <soap:Header/>
  <soap:Body>
    <wsdl:GetScopes/>
  </soap:Body>
</soap:Envelope>`

const getServicesRequest = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdl="http://www.onvif.org/ver10/device/wsdl">
  <soap:Header/>
  <soap:Body>
    <wsdl:GetServices/>
  </soap:Body>
</soap:Envelope>`

const getProfilesRequest = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdl="http://www.onvif.org/ver10/media/wsdl">
  <soap:Header/>
  <soap:Body>
    <wsdl:GetProfiles/>
  </soap:Body>
</soap:Envelope>`

const getStreamURIPrefix = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsdl="http://www.onvif.org/ver10/media/wsdl" xmlns:sch="http://www.onvif.org/ver10/schema">
  <soap:Header/>
  <soap:Body>
    <wsdl:GetStreamUri>
      <wsdl:StreamSetup>
        <sch:Stream>RTP-Unicast</sch:Stream>
        <sch:Transport>
          <sch:Protocol>RTSP</sch:Protocol>
        </sch:Transport>
      </wsdl:StreamSetup>
      <wsdl:ProfileToken>`

const getStreamURISuffix = `</wsdl:ProfileToken>
    </wsdl:GetStreamUri>
  </soap:Body>
</soap:Envelope>`

func action(wsdl, operation string) string {
	return wsdl + "/" + operation
}

func getStreamURIRequest(token string) []byte {
	var buf bytes.Buffer

	buf.WriteString(getStreamURIPrefix)
	_ = xml.EscapeText(&buf, []byte(token))
	buf.WriteString(getStreamURISuffix)

	return buf.Bytes()
}
