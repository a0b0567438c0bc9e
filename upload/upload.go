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

// Package upload publishes files as B records, or as BCAT parts plus a linker
// when they do not fit in one carrier transaction, and publishes D pointers.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/chunk"
	"github.com/blinklabs-io/gopolyglot/funding"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/blinklabs-io/gopolyglot/wallet"
)

// Metadata describes the uploaded file
type Metadata struct {
	MediaType string
	Encoding  string
	Filename  string
	// Info is the BCAT linker info field
	Info string
	// Compress gzips the content and always uses the BCAT pipeline so the
	// linker flag can record it
	Compress bool
}

// MetadataFor fills media type and encoding from the filename extension
func MetadataFor(filename string) Metadata {
	mediaType, encoding := bitcom.MediaTypeFor(filename)
	return Metadata{
		MediaType: mediaType,
		Encoding:  encoding,
		Filename:  filename,
	}
}

type UploaderOptionFunc func(*Uploader)

type Uploader struct {
	ledger         ledger.Ledger
	identity       wallet.Identity
	allocator      *funding.Allocator
	checkpoints    *CheckpointStore
	feeRate        uint64
	maxCarrierSize int
	safetyMargin   int
	logger         *slog.Logger
}

func NewUploader(
	l ledger.Ledger,
	identity wallet.Identity,
	opts ...UploaderOptionFunc,
) *Uploader {
	u := &Uploader{
		ledger:         l,
		identity:       identity,
		feeRate:        funding.DefaultFeeRate,
		maxCarrierSize: chunk.DefaultMaxCarrierSize,
		safetyMargin:   chunk.DefaultSafetyMargin,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	if u.allocator == nil {
		u.allocator = funding.NewAllocator(
			l,
			identity,
			funding.WithFeeRate(u.feeRate),
			funding.WithLogger(u.logger),
		)
	}
	return u
}

// WithAllocator sets the funding allocator. Its fee rate should match the uploader's
func WithAllocator(allocator *funding.Allocator) UploaderOptionFunc {
	return func(u *Uploader) {
		u.allocator = allocator
	}
}

// WithCheckpointStore enables resumable BCAT uploads
func WithCheckpointStore(store *CheckpointStore) UploaderOptionFunc {
	return func(u *Uploader) {
		u.checkpoints = store
	}
}

// WithFeeRate sets the fee rate in satoshis per kilobyte
func WithFeeRate(feeRate uint64) UploaderOptionFunc {
	return func(u *Uploader) {
		u.feeRate = feeRate
	}
}

func WithMaxCarrierSize(maxCarrierSize int) UploaderOptionFunc {
	return func(u *Uploader) {
		u.maxCarrierSize = maxCarrierSize
	}
}

func WithSafetyMargin(safetyMargin int) UploaderOptionFunc {
	return func(u *Uploader) {
		u.safetyMargin = safetyMargin
	}
}

func WithLogger(logger *slog.Logger) UploaderOptionFunc {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// UploadFile publishes data as a single B record when it fits in one carrier
// transaction, otherwise as BCAT parts and a linker. It returns the ID of the
// B or linker transaction
func (u *Uploader) UploadFile(ctx context.Context, data []byte, meta Metadata) (string, error) {
	if !meta.Compress && u.fitsB(data, meta) {
		return u.UploadB(ctx, data, meta)
	}
	return u.UploadBCAT(ctx, data, meta)
}

func (u *Uploader) fitsB(data []byte, meta Metadata) bool {
	record := bitcom.EncodeB(data, meta.MediaType, meta.Encoding, meta.Filename)
	return script.EncodedSize(record) <= u.maxCarrierSize-u.safetyMargin
}

// UploadB publishes data as one B record
func (u *Uploader) UploadB(ctx context.Context, data []byte, meta Metadata) (string, error) {
	record := bitcom.EncodeB(data, meta.MediaType, meta.Encoding, meta.Filename)
	txId, err := u.publish(ctx, record)
	if err != nil {
		return "", err
	}
	u.logger.Info(
		"published B record",
		"component", "upload",
		"txid", txId,
		"size", len(data),
		"filename", meta.Filename,
	)
	return txId, nil
}

// PublishPointer publishes a D record mapping key to value at sequence for
// the identity's address
func (u *Uploader) PublishPointer(
	ctx context.Context,
	key string,
	value bitcom.PointerValue,
	sequence *big.Int,
) (string, error) {
	if value == nil {
		return "", fmt.Errorf("no value for pointer %q", key)
	}
	record := bitcom.EncodeD(key, value, sequence)
	txId, err := u.publish(ctx, record)
	if err != nil {
		return "", err
	}
	u.logger.Info(
		"published D record",
		"component", "upload",
		"txid", txId,
		"address", u.identity.Address(),
		"key", key,
		"type", value.Type(),
		"sequence", sequence,
	)
	return txId, nil
}

// publish funds and broadcasts a single carrier transaction
func (u *Uploader) publish(ctx context.Context, record script.Record) (string, error) {
	perUnit := funding.UnitAmount(script.EncodedSize(record), u.feeRate)
	units, err := u.allocator.Ensure(ctx, 1, perUnit)
	if err != nil {
		return "", err
	}
	return u.publishWith(ctx, record, units[0])
}

func (u *Uploader) publishWith(ctx context.Context, record script.Record, unit ledger.Utxo) (string, error) {
	signed, err := u.identity.CreateTransaction(nil, record, []ledger.Utxo{unit}, u.feeRate)
	if err != nil {
		return "", err
	}
	return u.ledger.Broadcast(ctx, signed.Raw)
}
