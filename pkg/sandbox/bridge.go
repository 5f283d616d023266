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

// Package sandbox implements the file-based channel between the discovery
// handler and an out-of-process worker. Each session owns a directory holding
// a request artifact, a response artifact and an availability marker.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/carverauto/discovery-handler/pkg/marshaller"
	"github.com/carverauto/discovery-handler/pkg/models"
)

const (
	RequestFile      = "in.in"
	ResponseFile     = "out.out"
	AvailabilityFile = "availability.txt"

	dirPerms  = 0o750
	filePerms = 0o600
)

// Availability is the content of the availability marker.
type Availability string

const (
	Online  Availability = "ONLINE"
	Offline Availability = "OFFLINE"
)

// Bridge is one session directory.
type Bridge struct {
	dir string
}

// NewBridge opens a bridge over an existing session directory.
func NewBridge(dir string) *Bridge {
	return &Bridge{dir: dir}
}

// ID is the session directory name.
func (b *Bridge) ID() string {
	return filepath.Base(b.dir)
}

// Dir is the session directory path.
func (b *Bridge) Dir() string {
	return b.dir
}

func (b *Bridge) path(name string) string {
	return filepath.Join(b.dir, name)
}

// PublishRequest overwrites the request artifact with the JSON form of details.
func (b *Bridge) PublishRequest(details any) error {
	payload, err := marshaller.EncodeDetails(details)
	if err != nil {
		return err
	}

	return writeAtomic(b.path(RequestFile), payload)
}

// ReadRequest decodes the request artifact into dst. It reports false when
// no request has been published yet.
func (b *Bridge) ReadRequest(dst any) (bool, error) {
	data, err := os.ReadFile(b.path(RequestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("read request: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode request: %w", err)
	}

	return true, nil
}

// TryConsumeResponse takes the pending response if there is one. The artifact
// is claimed by rename before it is read, so each response is consumed once.
// A malformed artifact is discarded and reported with ErrMalformedResponse.
func (b *Bridge) TryConsumeResponse() (*models.DiscoverResponse, error) {
	claimed := b.path(ResponseFile + ".consumed")

	if err := os.Rename(b.path(ResponseFile), claimed); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("claim response: %w", err)
	}

	data, err := os.ReadFile(claimed)
	_ = os.Remove(claimed)

	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return marshaller.DecodeResponse(data)
}

// HasPendingResponse reports whether a response is waiting to be consumed.
func (b *Bridge) HasPendingResponse() bool {
	_, err := os.Stat(b.path(ResponseFile))

	return err == nil
}

// WriteResponse atomically replaces the response artifact.
func (b *Bridge) WriteResponse(resp *models.DiscoverResponse) error {
	payload, err := marshaller.EncodeResponse(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return writeAtomic(b.path(ResponseFile), payload)
}

// SetAvailability writes the availability marker.
func (b *Bridge) SetAvailability(a Availability) error {
	return writeAtomic(b.path(AvailabilityFile), []byte(a))
}

// Availability reads the marker. A missing marker reads as Online.
func (b *Bridge) Availability() (Availability, error) {
	data, err := os.ReadFile(b.path(AvailabilityFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Online, nil
		}

		return "", fmt.Errorf("read availability: %w", err)
	}

	switch a := Availability(strings.TrimSpace(string(data))); a {
	case Online, Offline:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAvailability, a)
	}
}

// Remove deletes the session directory and everything in it.
func (b *Bridge) Remove() error {
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("remove session %s: %w", b.ID(), err)
	}

	return nil
}

func writeAtomic(path string, payload []byte) error {
	tmpPath := path + "." + uuid.NewString() + ".tmp"

	if err := os.WriteFile(tmpPath, payload, filePerms); err != nil {
		return fmt.Errorf("write temporary %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup
		return fmt.Errorf("persist %s: %w", filepath.Base(path), err)
	}

	return nil
}
