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

import "errors"

var (
	// ErrInvalidDetails is returned when a discovery details blob does not parse.
	ErrInvalidDetails = errors.New("invalid discovery details")
	// ErrInvalidFilterAction is returned for a filter action other than Include or Exclude.
	ErrInvalidFilterAction = errors.New("invalid filter action")
	// ErrFilterItemsRequired is returned when a filter list omits items.
	ErrFilterItemsRequired = errors.New("filter list requires items")

	errInvalidDuration      = errors.New("invalid duration")
	errUnknownBackend       = errors.New("unknown discovery backend")
	errInvalidPollInterval  = errors.New("poll interval must be positive")
	errInvalidQueryLimit    = errors.New("max concurrent queries must be positive")
	errNATSStreamRequired   = errors.New("nats stream is required when nats url is set")
	errInvalidRetryInterval = errors.New("registration max delay must not be less than initial delay")
)
