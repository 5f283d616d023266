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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Root is the parent directory of all session bridges.
type Root struct {
	dir string
}

// NewRoot creates the root directory if needed.
func NewRoot(dir string) (*Root, error) {
	if dir == "" {
		return nil, errRootRequired
	}

	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}

	return &Root{dir: dir}, nil
}

// Dir is the root directory path.
func (r *Root) Dir() string {
	return r.dir
}

// NewSession allocates a fresh session directory.
func (r *Root) NewSession() (*Bridge, error) {
	dir := filepath.Join(r.dir, uuid.NewString())

	if err := os.Mkdir(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	return NewBridge(dir), nil
}

// Sessions lists the live session bridges in directory name order.
func (r *Root) Sessions() ([]*Bridge, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*Bridge, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		sessions = append(sessions, NewBridge(filepath.Join(r.dir, e.Name())))
	}

	return sessions, nil
}
