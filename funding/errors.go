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

package funding

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStillPending      = errors.New("funding units still pending confirmation")
)

// InsufficientFundsError indicates the identity's balance cannot cover the
// requested funding units plus the split transaction fee
type InsufficientFundsError struct {
	Required  uint64
	Available uint64
}

func (e InsufficientFundsError) Shortfall() uint64 {
	if e.Available >= e.Required {
		return 0
	}
	return e.Required - e.Available
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: required %d satoshis, available %d, shortfall %d",
		e.Required,
		e.Available,
		e.Shortfall(),
	)
}

func (InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// PendingError indicates the split transaction was published but not enough
// units became eligible before polling gave up
type PendingError struct {
	SplitTxId string
	Eligible  int
	Required  int
	Attempts  int
}

func (e PendingError) Error() string {
	return fmt.Sprintf(
		"funding units still pending after %d attempts: %d of %d eligible (split tx %s)",
		e.Attempts,
		e.Eligible,
		e.Required,
		e.SplitTxId,
	)
}

func (PendingError) Is(target error) bool {
	return target == ErrStillPending
}
