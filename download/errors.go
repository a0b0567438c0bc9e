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

package download

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedLocator = errors.New("unrecognized locator")
	ErrCyclicReference     = errors.New("cyclic BCAT reference")
	ErrDepthExceeded       = errors.New("BCAT nesting too deep")
	ErrPointerNotFound     = errors.New("pointer not found")
	ErrContentTooLarge     = errors.New("content too large")
)

// CyclicReferenceError indicates a BCAT part that refers back to one of the
// linkers being resolved
type CyclicReferenceError struct {
	TxId string
}

func (e CyclicReferenceError) Error() string {
	return "cyclic BCAT reference to " + e.TxId
}

func (CyclicReferenceError) Is(target error) bool {
	return target == ErrCyclicReference
}

type DepthExceededError struct {
	TxId     string
	MaxDepth int
}

func (e DepthExceededError) Error() string {
	return fmt.Sprintf("BCAT linker %s nested deeper than %d levels", e.TxId, e.MaxDepth)
}

func (DepthExceededError) Is(target error) bool {
	return target == ErrDepthExceeded
}

// PointerNotFoundError indicates no D record for key in the address history
type PointerNotFoundError struct {
	Address string
	Key     string
}

func (e PointerNotFoundError) Error() string {
	return fmt.Sprintf("no D record for key %q at address %s", e.Key, e.Address)
}

func (PointerNotFoundError) Is(target error) bool {
	return target == ErrPointerNotFound
}
