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

// Package funding prepares the per-transaction funding units consumed by the
// uploader. Each carrier transaction spends exactly one unit, so an upload of
// n transactions first makes sure n eligible units exist, splitting the
// identity's balance when they do not.
package funding

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/wallet"
)

const (
	DefaultMinConfirmations = 1
	// DefaultFeeRate is in satoshis per kilobyte
	DefaultFeeRate         = 50
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollAttempts = 60
)

// Filter returns the units with at least minConfirmations confirmations and
// an amount of at least minAmount. Order is preserved
func Filter(units []ledger.Utxo, minConfirmations uint32, minAmount uint64) []ledger.Utxo {
	ret := make([]ledger.Utxo, 0, len(units))
	for _, unit := range units {
		if unit.Confirmations < minConfirmations || unit.Amount < minAmount {
			continue
		}
		ret = append(ret, unit)
	}
	return ret
}

// UnitAmount returns the amount a unit needs to fund one carrier transaction
// whose data script is dataScriptLen bytes: the fee for that transaction plus
// a change output above the dust limit
func UnitAmount(dataScriptLen int, feeRate uint64) uint64 {
	size := wallet.EstimateScriptSize(1, 0, dataScriptLen, true)
	return wallet.Fee(size, feeRate) + wallet.DustLimit
}

// SortUnits orders units by (txid, vout)
func SortUnits(units []ledger.Utxo) {
	slices.SortFunc(units, func(a, b ledger.Utxo) int {
		if c := cmp.Compare(a.TxId, b.TxId); c != 0 {
			return c
		}
		return cmp.Compare(a.Vout, b.Vout)
	})
}

type AllocatorOptionFunc func(*Allocator)

// Allocator ensures an identity holds enough eligible funding units
type Allocator struct {
	ledger           ledger.Ledger
	identity         wallet.Identity
	minConfirmations uint32
	feeRate          uint64
	pollInterval     time.Duration
	maxPollAttempts  int
	logger           *slog.Logger
}

func NewAllocator(
	l ledger.Ledger,
	identity wallet.Identity,
	opts ...AllocatorOptionFunc,
) *Allocator {
	a := &Allocator{
		ledger:           l,
		identity:         identity,
		minConfirmations: DefaultMinConfirmations,
		feeRate:          DefaultFeeRate,
		pollInterval:     DefaultPollInterval,
		maxPollAttempts:  DefaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// WithMinConfirmations sets the confirmation threshold for eligible units
func WithMinConfirmations(minConfirmations uint32) AllocatorOptionFunc {
	return func(a *Allocator) {
		a.minConfirmations = minConfirmations
	}
}

// WithFeeRate sets the fee rate, in satoshis per kilobyte, for split transactions
func WithFeeRate(feeRate uint64) AllocatorOptionFunc {
	return func(a *Allocator) {
		a.feeRate = feeRate
	}
}

// WithPollInterval sets the delay between eligibility checks
func WithPollInterval(pollInterval time.Duration) AllocatorOptionFunc {
	return func(a *Allocator) {
		a.pollInterval = pollInterval
	}
}

// WithMaxPollAttempts bounds the number of eligibility checks
func WithMaxPollAttempts(maxPollAttempts int) AllocatorOptionFunc {
	return func(a *Allocator) {
		a.maxPollAttempts = maxPollAttempts
	}
}

func WithLogger(logger *slog.Logger) AllocatorOptionFunc {
	return func(a *Allocator) {
		a.logger = logger
	}
}

func (a *Allocator) FeeRate() uint64 {
	return a.feeRate
}

// Ensure returns count eligible units of at least perUnit satoshis, sorted by
// (txid, vout). If too few exist, the whole balance is split into count units
// and Ensure waits for them to become eligible
func (a *Allocator) Ensure(ctx context.Context, count int, perUnit uint64) ([]ledger.Utxo, error) {
	if count <= 0 {
		return nil, nil
	}
	address := a.identity.Address()
	units, err := a.ledger.GetUnspentOutputs(ctx, address)
	if err != nil {
		return nil, err
	}
	if eligible := a.eligible(units, perUnit); len(eligible) >= count {
		return eligible[:count], nil
	}
	var available uint64
	for _, unit := range units {
		available += unit.Amount
	}
	splitFee := wallet.Fee(wallet.EstimateSize(len(units), count, nil, true), a.feeRate)
	// #nosec G115 -- count is positive
	required := uint64(count)*perUnit + splitFee
	if available < required {
		return nil, InsufficientFundsError{
			Required:  required,
			Available: available,
		}
	}
	splitTxId, err := a.split(ctx, address, units, count, perUnit)
	if err != nil {
		return nil, err
	}
	ret, err := a.WaitForEligible(ctx, count, perUnit)
	if err != nil {
		var pendingErr PendingError
		if errors.As(err, &pendingErr) {
			pendingErr.SplitTxId = splitTxId
			return nil, pendingErr
		}
		return nil, err
	}
	return ret, nil
}

func (a *Allocator) split(
	ctx context.Context,
	address string,
	units []ledger.Utxo,
	count int,
	perUnit uint64,
) (string, error) {
	payments := make([]wallet.Payment, count)
	for i := range payments {
		payments[i] = wallet.Payment{Address: address, Amount: perUnit}
	}
	signed, err := a.identity.CreateTransaction(payments, nil, units, a.feeRate)
	if err != nil {
		return "", fmt.Errorf("build split transaction: %w", err)
	}
	txId, err := a.ledger.Broadcast(ctx, signed.Raw)
	if err != nil {
		return "", err
	}
	a.logger.Info(
		"published funding split",
		"component", "funding",
		"txid", txId,
		"units", count,
		"amount", perUnit,
		"fee", signed.Fee,
	)
	return txId, nil
}

// WaitForEligible polls the ledger until count eligible units of at least
// perUnit exist. It gives up with a PendingError after the configured number
// of attempts, or returns the context error if ctx is done first
func (a *Allocator) WaitForEligible(ctx context.Context, count int, perUnit uint64) ([]ledger.Utxo, error) {
	address := a.identity.Address()
	attempts := max(a.maxPollAttempts, 1)
	var eligible []ledger.Utxo
	for attempt := 1; attempt <= attempts; attempt++ {
		units, err := a.ledger.GetUnspentOutputs(ctx, address)
		if err != nil {
			return nil, err
		}
		eligible = a.eligible(units, perUnit)
		if len(eligible) >= count {
			return eligible[:count], nil
		}
		if attempt == attempts {
			break
		}
		a.logger.Debug(
			"waiting for funding units",
			"component", "funding",
			"eligible", len(eligible),
			"required", count,
			"attempt", attempt,
		)
		timer := time.NewTimer(a.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, PendingError{
		Eligible: len(eligible),
		Required: count,
		Attempts: attempts,
	}
}

func (a *Allocator) eligible(units []ledger.Utxo, perUnit uint64) []ledger.Utxo {
	ret := Filter(units, a.minConfirmations, perUnit)
	SortUnits(ret)
	return ret
}
