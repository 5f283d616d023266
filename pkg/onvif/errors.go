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

import "errors"

var (
	// ErrUnexpectedStatus is returned for any non-200 HTTP reply.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrMalformedXML is returned when a reply body is not well-formed XML.
	ErrMalformedXML = errors.New("malformed XML reply")
	// ErrUnexpectedXPathType is returned when an expression yields the wrong kind of value.
	ErrUnexpectedXPathType = errors.New("unexpected XPath result type")
	// ErrElementNotFound is returned when the requested element is absent or empty.
	ErrElementNotFound = errors.New("element not found in reply")

	errInvalidNamespace = errors.New("invalid service namespace")
)
