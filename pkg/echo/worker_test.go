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

package echo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/models"
	"github.com/carverauto/discovery-handler/pkg/sandbox"
)

func newSession(t *testing.T, root *sandbox.Root, descriptions ...string) *sandbox.Bridge {
	t.Helper()

	bridge, err := root.NewSession()
	require.NoError(t, err)
	require.NoError(t, bridge.PublishRequest(&models.EchoDiscoveryDetails{Descriptions: descriptions}))

	return bridge
}

func TestRespond(t *testing.T) {
	details := &models.EchoDiscoveryDetails{Descriptions: []string{"foo0", "foo1"}}

	online := Respond(details, sandbox.Online)
	require.Len(t, online.Devices, 2)
	assert.Equal(t, "foo0", online.Devices[0].ID)
	assert.Equal(t, "foo1", online.Devices[1].Properties[models.DebugEchoDescriptionLabel])
	assert.Empty(t, online.Devices[0].Mounts)

	offline := Respond(details, sandbox.Offline)
	assert.NotNil(t, offline.Devices)
	assert.Empty(t, offline.Devices)
}

func TestStepAnswersEachSessionOnce(t *testing.T) {
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)

	a := newSession(t, root, "cam-a", "cam-b", "cam-c")
	b := newSession(t, root, "other")
	require.NoError(t, b.SetAvailability(sandbox.Offline))

	// a session without a request yet is left alone
	pending, err := root.NewSession()
	require.NoError(t, err)

	w := NewWorker(root, time.Second, logger.NewTestLogger())
	w.Step()

	respA, err := a.TryConsumeResponse()
	require.NoError(t, err)
	require.NotNil(t, respA)
	assert.Len(t, respA.Devices, 3)

	respB, err := b.TryConsumeResponse()
	require.NoError(t, err)
	require.NotNil(t, respB)
	assert.Empty(t, respB.Devices)

	assert.False(t, pending.HasPendingResponse())

	// the next pass rewrites only the consumed artifact
	w.Step()
	assert.True(t, a.HasPendingResponse())
}

func TestStepDoesNotOverwritePendingResponse(t *testing.T) {
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)

	bridge := newSession(t, root, "cam")
	marker := &models.DiscoverResponse{Devices: []models.Device{models.NewDevice("marker", nil)}}
	require.NoError(t, bridge.WriteResponse(marker))

	NewWorker(root, time.Second, logger.NewTestLogger()).Step()

	resp, err := bridge.TryConsumeResponse()
	require.NoError(t, err)
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "marker", resp.Devices[0].ID)
}

func TestRunStopsOnCancel(t *testing.T) {
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)

	bridge := newSession(t, root, "cam")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- NewWorker(root, 10*time.Millisecond, logger.NewTestLogger()).Run(ctx) }()

	require.Eventually(t, bridge.HasPendingResponse, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
