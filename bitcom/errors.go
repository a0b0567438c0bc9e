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

package bitcom

import (
	"errors"
	"fmt"
)

var (
	ErrProtocolNotFound  = errors.New("protocol not found")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrUnrecognizedType  = errors.New("unrecognized type")
	ErrInvalidPartTxId   = errors.New("invalid part transaction ID")
	ErrEmptyLinkerParts  = errors.New("linker has no parts")
	ErrNoPointerSelected = errors.New("no pointer records to select from")
)

// ProtocolNotFoundError indicates a record or transaction does not encode the expected protocol
type ProtocolNotFoundError struct {
	Kind Kind
	// TxId is empty when the check was against a single record
	TxId string
}

func (e ProtocolNotFoundError) Error() string {
	if e.TxId == "" {
		return fmt.Sprintf("%s record not found", e.Kind)
	}
	return fmt.Sprintf("%s record not found in transaction %s", e.Kind, e.TxId)
}

func (ProtocolNotFoundError) Is(target error) bool {
	return target == ErrProtocolNotFound
}

// MalformedRecordError indicates a record carries the protocol identifier but
// is missing required fields
type MalformedRecordError struct {
	Kind   Kind
	Reason string
}

func (e MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: %s", e.Kind, e.Reason)
}

func (MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// UnrecognizedTypeError indicates a type tag outside the known set
type UnrecognizedTypeError struct {
	Kind Kind
	Type string
}

func (e UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized %s type %q", e.Kind, e.Type)
}

func (UnrecognizedTypeError) Is(target error) bool {
	return target == ErrUnrecognizedType
}
