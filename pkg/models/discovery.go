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

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const defaultDiscoveryTimeoutSeconds = 1

// FilterType selects how a FilterList is evaluated.
type FilterType string

const (
	// FilterInclude accepts only candidates matching at least one item.
	FilterInclude FilterType = "Include"
	// FilterExclude rejects candidates matching any item.
	FilterExclude FilterType = "Exclude"
)

// UnmarshalJSON accepts exactly "Include" or "Exclude".
func (f *FilterType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilterAction, err)
	}

	switch FilterType(s) {
	case FilterInclude, FilterExclude:
		*f = FilterType(s)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilterAction, s)
	}
}

// FilterList restricts which discovered devices are accepted.
// A nil *FilterList means no filtering for that attribute.
type FilterList struct {
	Items  []string   `json:"items,omitempty"`
	Action FilterType `json:"action"`
}

// UnmarshalJSON requires items and defaults action to Include.
func (f *FilterList) UnmarshalJSON(b []byte) error {
	var raw struct {
		Items  *[]string   `json:"items"`
		Action *FilterType `json:"action"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if raw.Items == nil {
		return ErrFilterItemsRequired
	}

	f.Items = *raw.Items
	f.Action = FilterInclude

	if raw.Action != nil {
		f.Action = *raw.Action
	}

	return nil
}

// Rejects reports whether the list filters out a candidate with the given values.
// A value set matches when some item is a substring of some value.
func (f *FilterList) Rejects(values []string) bool {
	if f == nil {
		return false
	}

	matches := 0

	for _, item := range f.Items {
		for _, value := range values {
			if strings.Contains(value, item) {
				matches++
			}
		}
	}

	if f.Action == FilterExclude {
		return matches != 0
	}

	return matches == 0
}

// EchoDiscoveryDetails is the request shape for the echo backend.
type EchoDiscoveryDetails struct {
	Descriptions []string `json:"descriptions"`
}

// ParseEchoDiscoveryDetails decodes an echo details blob.
func ParseEchoDiscoveryDetails(blob string) (*EchoDiscoveryDetails, error) {
	var raw struct {
		Descriptions *[]string `json:"descriptions"`
	}

	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDetails, err)
	}

	if raw.Descriptions == nil {
		return nil, fmt.Errorf("%w: descriptions is required", ErrInvalidDetails)
	}

	return &EchoDiscoveryDetails{Descriptions: *raw.Descriptions}, nil
}

// OnvifDiscoveryDetails is the request shape for the ONVIF backend.
type OnvifDiscoveryDetails struct {
	IPAddresses             *FilterList `json:"ipAddresses,omitempty"`
	MACAddresses            *FilterList `json:"macAddresses,omitempty"`
	Scopes                  *FilterList `json:"scopes,omitempty"`
	DiscoveryTimeoutSeconds int         `json:"discoveryTimeoutSeconds"`
}

// ParseOnvifDiscoveryDetails decodes an ONVIF details blob and applies defaults.
func ParseOnvifDiscoveryDetails(blob string) (*OnvifDiscoveryDetails, error) {
	details := &OnvifDiscoveryDetails{DiscoveryTimeoutSeconds: defaultDiscoveryTimeoutSeconds}

	if err := json.Unmarshal([]byte(blob), details); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDetails, err)
	}

	if details.DiscoveryTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: discoveryTimeoutSeconds must be positive, got %d",
			ErrInvalidDetails, details.DiscoveryTimeoutSeconds)
	}

	return details, nil
}
