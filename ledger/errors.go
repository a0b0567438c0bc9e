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

package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork             = errors.New("ledger network failure")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// NetworkError wraps a transport or broadcast failure from a ledger backend
type NetworkError struct {
	Op  string
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e NetworkError) Unwrap() error { return e.Err }

func (NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// TransactionNotFoundError indicates the ledger has no transaction with the given ID
type TransactionNotFoundError struct {
	TxId string
}

func (e TransactionNotFoundError) Error() string {
	return "transaction not found: " + e.TxId
}

func (TransactionNotFoundError) Is(target error) bool {
	return target == ErrTransactionNotFound
}
