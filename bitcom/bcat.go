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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/blinklabs-io/gopolyglot/script"
)

const (
	FlagGzip       = "gzip"
	FlagNestedGzip = "nested-gzip"

	// TxIdSize is the size of a raw transaction ID in a linker
	TxIdSize = 32
)

// Linker is a BCAT manifest listing the part transactions in content order
type Linker struct {
	Info      string
	MediaType string
	Encoding  string
	Filename  string
	Flag      string
	// Parts holds the lowercase hex of each raw 32-byte part reference
	Parts []string
}

// DecodeLinker extracts a BCAT linker from record using DefaultRegistry
func DecodeLinker(record script.Record) (*Linker, error) {
	return DefaultRegistry.DecodeLinker(record)
}

// DecodeLinker extracts a BCAT linker from record
func (r *Registry) DecodeLinker(record script.Record) (*Linker, error) {
	offset, err := r.offset(record, KindBCAT)
	if err != nil {
		return nil, err
	}
	// identifier + 5 metadata fields + at least one part
	if len(record) < offset+7 {
		return nil, MalformedRecordError{
			Kind:   KindBCAT,
			Reason: "missing part references",
		}
	}
	ret := &Linker{
		Info:      optionalField(record, offset+1),
		MediaType: optionalField(record, offset+2),
		Encoding:  optionalField(record, offset+3),
		Filename:  optionalField(record, offset+4),
		Flag:      optionalField(record, offset+5),
	}
	for _, part := range record[offset+6:] {
		if len(part) != TxIdSize {
			return nil, MalformedRecordError{
				Kind:   KindBCAT,
				Reason: fmt.Sprintf("part reference has %d bytes", len(part)),
			}
		}
		ret.Parts = append(ret.Parts, hex.EncodeToString(part))
	}
	return ret, nil
}

// EncodeLinker builds a BCAT linker record
func EncodeLinker(linker *Linker) (script.Record, error) {
	if len(linker.Parts) == 0 {
		return nil, ErrEmptyLinkerParts
	}
	ret := script.Record{
		[]byte(PrefixBCAT),
		[]byte(blankIfEmpty(linker.Info)),
		[]byte(blankIfEmpty(linker.MediaType)),
		[]byte(blankIfEmpty(linker.Encoding)),
		[]byte(blankIfEmpty(linker.Filename)),
		[]byte(blankIfEmpty(linker.Flag)),
	}
	for _, part := range linker.Parts {
		raw, err := hex.DecodeString(part)
		if err != nil || len(raw) != TxIdSize {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPartTxId, part)
		}
		ret = append(ret, raw)
	}
	return ret, nil
}

// DecodePart returns the payload chunk carried by a BCAT part record, using
// DefaultRegistry
func DecodePart(record script.Record) ([]byte, error) {
	return DefaultRegistry.DecodePart(record)
}

// DecodePart returns the payload chunk carried by a BCAT part record
func (r *Registry) DecodePart(record script.Record) ([]byte, error) {
	offset, err := r.offset(record, KindBCATPart)
	if err != nil {
		return nil, err
	}
	if len(record) < offset+2 {
		return nil, MalformedRecordError{
			Kind:   KindBCATPart,
			Reason: "missing payload",
		}
	}
	return record[offset+1], nil
}

// EncodePart builds a BCAT part record
func EncodePart(chunk []byte) script.Record {
	return script.Record{
		[]byte(PrefixBCATPart),
		chunk,
	}
}

// IsCompressed reports whether flag marks gzip-compressed content that has
// not been decompressed yet
func IsCompressed(flag string) bool {
	return flag == FlagGzip || flag == FlagNestedGzip
}

// MarkDecompressed rewrites a compression flag to show that the content has
// already been decompressed, e.g. "gzip" becomes "gunzipped"
func MarkDecompressed(flag string) string {
	return strings.ReplaceAll(flag, "zip", "unzipped")
}
