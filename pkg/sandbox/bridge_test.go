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

package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/discovery-handler/pkg/models"
)

func newTestBridge(t *testing.T) (*Root, *Bridge) {
	t.Helper()

	root, err := NewRoot(filepath.Join(t.TempDir(), "wde-dir"))
	require.NoError(t, err)

	b, err := root.NewSession()
	require.NoError(t, err)

	return root, b
}

func TestPublishAndReadRequest(t *testing.T) {
	_, b := newTestBridge(t)

	var details models.EchoDiscoveryDetails

	ok, err := b.ReadRequest(&details)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.PublishRequest(models.EchoDiscoveryDetails{Descriptions: []string{"foo", "bar"}}))

	ok, err = b.ReadRequest(&details)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"foo", "bar"}, details.Descriptions)

	raw, err := os.ReadFile(filepath.Join(b.Dir(), RequestFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"descriptions":["foo","bar"]}`, string(raw))
}

func TestTryConsumeResponseExactlyOnce(t *testing.T) {
	_, b := newTestBridge(t)

	resp, err := b.TryConsumeResponse()
	require.NoError(t, err)
	assert.Nil(t, resp)

	want := &models.DiscoverResponse{Devices: []models.Device{
		models.NewDevice("foo", map[string]string{models.DebugEchoDescriptionLabel: "foo"}),
	}}
	require.NoError(t, b.WriteResponse(want))
	assert.True(t, b.HasPendingResponse())

	resp, err = b.TryConsumeResponse()
	require.NoError(t, err)
	assert.True(t, want.Equal(resp))
	assert.False(t, b.HasPendingResponse())

	resp, err = b.TryConsumeResponse()
	require.NoError(t, err)
	assert.Nil(t, resp, "a consumed response must not be returned twice")
}

func TestTryConsumeResponseMalformedIsDiscarded(t *testing.T) {
	_, b := newTestBridge(t)

	require.NoError(t, os.WriteFile(filepath.Join(b.Dir(), ResponseFile), []byte(`{"nope":`), 0o600))

	_, err := b.TryConsumeResponse()
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.False(t, b.HasPendingResponse())

	resp, err := b.TryConsumeResponse()
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestAvailability(t *testing.T) {
	_, b := newTestBridge(t)

	a, err := b.Availability()
	require.NoError(t, err)
	assert.Equal(t, Online, a)

	require.NoError(t, b.SetAvailability(Offline))

	a, err = b.Availability()
	require.NoError(t, err)
	assert.Equal(t, Offline, a)

	require.NoError(t, os.WriteFile(filepath.Join(b.Dir(), AvailabilityFile), []byte("MAYBE\n"), 0o600))

	_, err = b.Availability()
	require.ErrorIs(t, err, ErrInvalidAvailability)
}

func TestSessionsAreIsolated(t *testing.T) {
	root, first := newTestBridge(t)

	second, err := root.NewSession()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	require.NoError(t, first.WriteResponse(&models.DiscoverResponse{}))
	assert.False(t, second.HasPendingResponse())

	sessions, err := root.Sessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, first.Remove())

	sessions, err = root.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID(), sessions[0].ID())
}

func TestNewRootRequiresDir(t *testing.T) {
	_, err := NewRoot("")
	require.ErrorIs(t, err, errRootRequired)
}
