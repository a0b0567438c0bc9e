// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/gopolyglot/cbor"
)

const checkpointExt = ".checkpoint"

// Checkpoint records the part transactions already published for an upload
type Checkpoint struct {
	cbor.StructAsArray
	Digest   string
	NumParts int
	// Parts holds the txid of each published part by index, or "" if not yet published
	Parts []string
}

// CheckpointStore keeps upload checkpoints as CBOR files in a directory
type CheckpointStore struct {
	dir string
}

func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &CheckpointStore{dir: dir}, nil
}

func (s *CheckpointStore) path(digest string) string {
	return filepath.Join(s.dir, digest+checkpointExt)
}

// Load returns the checkpoint for digest, or nil if there is none
func (s *CheckpointStore) Load(digest string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(digest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if !cbor.IsArray(data) {
		return nil, fmt.Errorf("checkpoint %s is not a CBOR array", digest)
	}
	var ret Checkpoint
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if ret.Digest != digest || len(ret.Parts) != ret.NumParts {
		return nil, fmt.Errorf("checkpoint %s is inconsistent", digest)
	}
	return &ret, nil
}

// Save writes checkpoint atomically
func (s *CheckpointStore) Save(checkpoint *Checkpoint) error {
	data, err := cbor.Encode(checkpoint)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	tmpFile, err := os.CreateTemp(s.dir, "tmp-*"+checkpointExt)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(checkpoint.Digest)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Remove deletes the checkpoint for digest if it exists
func (s *CheckpointStore) Remove(digest string) error {
	err := os.Remove(s.path(digest))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
