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
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gopolyglot/bitcom"
)

// Pointers returns every D record for key found in the history of address,
// oldest first. Records for other keys are ignored. Malformed D records for key
// are skipped, and one with an unknown value type is an error
func (d *Downloader) Pointers(ctx context.Context, address string, key string) ([]*bitcom.PointerRecord, error) {
	history, err := d.ledger.GetTransactionsForAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	var ret []*bitcom.PointerRecord
	for _, txId := range history {
		records, err := d.records(ctx, txId)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			// Only records for key are decoded
			recordKey, ok := d.registry.PointerKey(record)
			if !ok || recordKey != key {
				continue
			}
			pointer, err := d.registry.DecodeD(record, txId)
			if err != nil {
				if errors.Is(err, bitcom.ErrMalformedRecord) {
					d.logger.Debug(
						"skipping malformed D record",
						"component", "download",
						"txid", txId,
						"error", err,
					)
					continue
				}
				return nil, err
			}
			ret = append(ret, pointer)
		}
	}
	return ret, nil
}

// ResolveKey finds the D record for key at address and resolves its value.
// When several records share the key, the highest sequence wins and ties go
// to the newest transaction
func (d *Downloader) ResolveKey(ctx context.Context, address string, key string) (*Result, error) {
	pointers, err := d.Pointers(ctx, address, key)
	if err != nil {
		return nil, err
	}
	if len(pointers) == 0 {
		return nil, PointerNotFoundError{Address: address, Key: key}
	}
	pointer, err := bitcom.SelectPointer(pointers)
	if err != nil {
		return nil, err
	}
	d.logger.Debug(
		"selected D record",
		"component", "download",
		"address", address,
		"key", key,
		"txid", pointer.TxId,
		"sequence", pointer.Sequence,
		"candidates", len(pointers),
	)
	return d.ResolveValue(ctx, pointer)
}

// ResolveValue returns the content a D record points to
func (d *Downloader) ResolveValue(ctx context.Context, pointer *bitcom.PointerRecord) (*Result, error) {
	switch value := pointer.Value.(type) {
	case bitcom.TextValue:
		return &Result{
			Data:      []byte(value),
			MediaType: "text/plain",
			Encoding:  bitcom.EncodingUtf8,
			TxId:      pointer.TxId,
			Kind:      bitcom.KindD,
		}, nil
	case bitcom.TxValue:
		return d.FetchAny(ctx, string(value))
	case bitcom.BValue:
		return d.FetchB(ctx, string(value))
	case bitcom.BCATValue:
		return d.FetchBCAT(ctx, string(value))
	default:
		valueType := "<nil>"
		if value != nil {
			valueType = value.Type()
		}
		return nil, bitcom.UnrecognizedTypeError{Kind: bitcom.KindD, Type: valueType}
	}
}

func (r *Result) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", r.TxId, r.Kind, len(r.Data))
}
