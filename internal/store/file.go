// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/auraflow/internal/util"
)

// FilePersistence stores the state as one JSON document on disk. Writes
// are atomic (write to temp file, then rename) so a crash mid-save never
// leaves a corrupt state file.
type FilePersistence struct {
	Path string
}

// NewFilePersistence creates a file-backed persistence at path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{Path: path}
}

// Load reads the state file. A missing file is an empty state.
func (f *FilePersistence) Load() (State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return state, nil
}

// Save writes the full state atomically, creating parent directories as
// needed.
func (f *FilePersistence) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(f.Path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
