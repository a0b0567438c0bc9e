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

// Package download resolves locators into file content by reading B, BCAT
// and D records from the ledger.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/jinzhu/copier"
	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultMaxDepth bounds BCAT linker nesting
	DefaultMaxDepth = 10
	// DefaultMaxContentSize bounds decompressed content
	DefaultMaxContentSize = 1 << 30
)

// Result is downloaded content and the metadata of the record it came from
type Result struct {
	Data      []byte
	MediaType string
	Encoding  string
	Filename  string
	// Flag and Info are only set for BCAT content
	Flag string
	Info string
	// TxId is the B or linker transaction the content was read from
	TxId string
	Kind bitcom.Kind
}

type DownloaderOptionFunc func(*Downloader)

type Downloader struct {
	ledger         ledger.Ledger
	registry       *bitcom.Registry
	cache          *TxCache
	maxDepth       int
	maxContentSize int64
	logger         *slog.Logger
}

func NewDownloader(l ledger.Ledger, opts ...DownloaderOptionFunc) *Downloader {
	d := &Downloader{
		ledger:         l,
		registry:       bitcom.DefaultRegistry,
		maxDepth:       DefaultMaxDepth,
		maxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// WithCache enables caching of fetched transactions
func WithCache(cache *TxCache) DownloaderOptionFunc {
	return func(d *Downloader) {
		d.cache = cache
	}
}

func WithRegistry(registry *bitcom.Registry) DownloaderOptionFunc {
	return func(d *Downloader) {
		d.registry = registry
	}
}

func WithMaxDepth(maxDepth int) DownloaderOptionFunc {
	return func(d *Downloader) {
		d.maxDepth = maxDepth
	}
}

func WithMaxContentSize(maxContentSize int64) DownloaderOptionFunc {
	return func(d *Downloader) {
		d.maxContentSize = maxContentSize
	}
}

func WithLogger(logger *slog.Logger) DownloaderOptionFunc {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// DownloadString parses locator and downloads it
func (d *Downloader) DownloadString(ctx context.Context, locator string) (*Result, error) {
	loc, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	return d.Download(ctx, loc)
}

func (d *Downloader) Download(ctx context.Context, loc Locator) (*Result, error) {
	switch loc.Kind {
	case bitcom.KindB:
		return d.FetchB(ctx, loc.TxId)
	case bitcom.KindBCAT:
		return d.FetchBCAT(ctx, loc.TxId)
	case bitcom.KindD:
		return d.ResolveKey(ctx, loc.Address, loc.Key)
	case bitcom.KindUnknown:
		return d.FetchAny(ctx, loc.TxId)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedLocator, loc)
	}
}

// FetchB reads the B records of a transaction. Records after the first are
// appended to the result's extra fields and dropped here
func (d *Downloader) FetchB(ctx context.Context, txId string) (*Result, error) {
	records, err := d.records(ctx, txId)
	if err != nil {
		return nil, err
	}
	blob, err := d.decodeB(records, txId)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:      blob.Data,
		MediaType: blob.MediaType,
		Encoding:  blob.Encoding,
		Filename:  blob.Filename,
		TxId:      txId,
		Kind:      bitcom.KindB,
	}, nil
}

// FetchBCAT reads the linker in a transaction and resolves its parts
func (d *Downloader) FetchBCAT(ctx context.Context, txId string) (*Result, error) {
	records, err := d.records(ctx, txId)
	if err != nil {
		return nil, err
	}
	linker, err := d.findLinker(records, txId)
	if err != nil {
		return nil, err
	}
	return d.linkerResult(ctx, linker, txId)
}

// FetchAny detects whether a transaction carries a BCAT linker or B records
// and fetches it accordingly
func (d *Downloader) FetchAny(ctx context.Context, txId string) (*Result, error) {
	records, err := d.records(ctx, txId)
	if err != nil {
		return nil, err
	}
	linker, err := d.findLinker(records, txId)
	if err == nil {
		return d.linkerResult(ctx, linker, txId)
	}
	if !errors.Is(err, bitcom.ErrProtocolNotFound) {
		return nil, err
	}
	return d.FetchB(ctx, txId)
}

func (d *Downloader) linkerResult(ctx context.Context, linker *bitcom.Linker, txId string) (*Result, error) {
	data, err := d.resolve(ctx, linker, txId, map[string]bool{txId: true}, 1)
	if err != nil {
		return nil, err
	}
	resolved, err := decompressedManifest(linker)
	if err != nil {
		return nil, err
	}
	d.logger.Debug(
		"resolved BCAT content",
		"component", "download",
		"txid", txId,
		"parts", len(linker.Parts),
		"size", len(data),
		"flag", linker.Flag,
	)
	return &Result{
		Data:      data,
		MediaType: resolved.MediaType,
		Encoding:  resolved.Encoding,
		Filename:  resolved.Filename,
		Flag:      resolved.Flag,
		Info:      resolved.Info,
		TxId:      txId,
		Kind:      bitcom.KindBCAT,
	}, nil
}

// Resolve concatenates the parts of linker in order, resolving nested linkers
// in place, and decompresses the result if the linker is flagged as gzipped.
// It returns the content and a copy of linker whose flag records that the
// content is already decompressed
func (d *Downloader) Resolve(ctx context.Context, linker *bitcom.Linker) ([]byte, *bitcom.Linker, error) {
	data, err := d.resolve(ctx, linker, "", map[string]bool{}, 1)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := decompressedManifest(linker)
	if err != nil {
		return nil, nil, err
	}
	return data, resolved, nil
}

func (d *Downloader) resolve(
	ctx context.Context,
	linker *bitcom.Linker,
	txId string,
	ancestors map[string]bool,
	depth int,
) ([]byte, error) {
	if depth > d.maxDepth {
		return nil, DepthExceededError{TxId: txId, MaxDepth: d.maxDepth}
	}
	var buf bytes.Buffer
	for _, partTxId := range linker.Parts {
		if ancestors[partTxId] {
			return nil, CyclicReferenceError{TxId: partTxId}
		}
		records, err := d.records(ctx, partTxId)
		if err != nil {
			return nil, err
		}
		chunk, err := d.resolvePart(ctx, records, partTxId, ancestors, depth)
		if err != nil {
			return nil, err
		}
		if int64(buf.Len()+len(chunk)) > d.maxContentSize {
			return nil, ErrContentTooLarge
		}
		buf.Write(chunk)
	}
	if !bitcom.IsCompressed(linker.Flag) {
		return buf.Bytes(), nil
	}
	return d.gunzip(buf.Bytes())
}

// resolvePart returns the content of one part transaction, which may be a
// nested linker, a part or B records
func (d *Downloader) resolvePart(
	ctx context.Context,
	records []script.Record,
	txId string,
	ancestors map[string]bool,
	depth int,
) ([]byte, error) {
	for _, record := range records {
		if d.registry.Detect(record, bitcom.KindBCAT) {
			nested, err := d.registry.DecodeLinker(record)
			if err != nil {
				return nil, err
			}
			ancestors[txId] = true
			defer delete(ancestors, txId)
			return d.resolve(ctx, nested, txId, ancestors, depth+1)
		}
	}
	for _, record := range records {
		if d.registry.Detect(record, bitcom.KindBCATPart) {
			return d.registry.DecodePart(record)
		}
	}
	blob, err := d.decodeB(records, txId)
	if err != nil {
		return nil, bitcom.ProtocolNotFoundError{Kind: bitcom.KindBCATPart, TxId: txId}
	}
	return blob.Data, nil
}

func (d *Downloader) gunzip(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress content: %w", err)
	}
	defer gz.Close()
	ret, err := io.ReadAll(io.LimitReader(gz, d.maxContentSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress content: %w", err)
	}
	if int64(len(ret)) > d.maxContentSize {
		return nil, ErrContentTooLarge
	}
	return ret, nil
}

func (d *Downloader) findLinker(records []script.Record, txId string) (*bitcom.Linker, error) {
	for _, record := range records {
		if d.registry.Detect(record, bitcom.KindBCAT) {
			return d.registry.DecodeLinker(record)
		}
	}
	return nil, bitcom.ProtocolNotFoundError{Kind: bitcom.KindBCAT, TxId: txId}
}

func (d *Downloader) decodeB(records []script.Record, txId string) (*bitcom.BlobRecord, error) {
	var matched []script.Record
	for _, record := range records {
		if d.registry.Detect(record, bitcom.KindB) {
			matched = append(matched, record)
		}
	}
	if len(matched) == 0 {
		return nil, bitcom.ProtocolNotFoundError{Kind: bitcom.KindB, TxId: txId}
	}
	return d.registry.DecodeBFromRecords(matched)
}

// records fetches a transaction, through the cache when enabled, and decodes
// the pushdata of its outputs
func (d *Downloader) records(ctx context.Context, txId string) ([]script.Record, error) {
	tx, err := d.transaction(ctx, txId)
	if err != nil {
		return nil, err
	}
	return tx.Records()
}

func (d *Downloader) transaction(ctx context.Context, txId string) (*ledger.Transaction, error) {
	if d.cache != nil {
		if tx, ok := d.cache.Get(txId); ok {
			return tx, nil
		}
	}
	tx, err := d.ledger.GetTransaction(ctx, txId)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		if err := d.cache.Set(txId, tx); err != nil {
			d.logger.Debug(
				"failed to cache transaction",
				"component", "download",
				"txid", txId,
				"error", err,
			)
		}
	}
	return tx, nil
}

// decompressedManifest copies linker, marking the flag as decompressed when
// the content was gunzipped
func decompressedManifest(linker *bitcom.Linker) (*bitcom.Linker, error) {
	ret := &bitcom.Linker{}
	if err := copier.CopyWithOption(ret, linker, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy manifest: %w", err)
	}
	if bitcom.IsCompressed(linker.Flag) {
		ret.Flag = bitcom.MarkDecompressed(linker.Flag)
	}
	return ret, nil
}
