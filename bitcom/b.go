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
	"strings"

	"github.com/blinklabs-io/gopolyglot/script"
)

// placeholder written for unset optional string fields to keep field positions fixed
const blankField = " "

// BlobRecord is a B:// file: payload plus metadata
type BlobRecord struct {
	Data      []byte
	MediaType string
	Encoding  string
	Filename  string
	Extra     [][]byte
}

// DecodeB extracts the B fields from record using DefaultRegistry
func DecodeB(record script.Record) (*BlobRecord, error) {
	return DefaultRegistry.DecodeB(record)
}

// DecodeB extracts the B fields from record
func (r *Registry) DecodeB(record script.Record) (*BlobRecord, error) {
	offset, err := r.offset(record, KindB)
	if err != nil {
		return nil, err
	}
	if len(record) < offset+3 {
		return nil, MalformedRecordError{
			Kind:   KindB,
			Reason: "missing media type",
		}
	}
	ret := &BlobRecord{
		Data:      record[offset+1],
		MediaType: record.String(offset + 2),
		Encoding:  optionalField(record, offset+3),
		Filename:  optionalField(record, offset+4),
	}
	if len(record) > offset+5 {
		ret.Extra = append(ret.Extra, record[offset+5:]...)
	}
	return ret, nil
}

// EncodeB builds a B record. All five slots are always written
func EncodeB(data []byte, mediaType, encoding, filename string) script.Record {
	return script.Record{
		[]byte(PrefixB),
		data,
		[]byte(mediaType),
		[]byte(blankIfEmpty(encoding)),
		[]byte(blankIfEmpty(filename)),
	}
}

// DecodeBFromRecords decodes every B record among the outputs of one
// transaction using DefaultRegistry
func DecodeBFromRecords(records []script.Record) (*BlobRecord, error) {
	return DefaultRegistry.DecodeBFromRecords(records)
}

// DecodeBFromRecords decodes every B record among the outputs of one
// transaction. The first record is primary and the elements of later records
// are appended to its Extra
func (r *Registry) DecodeBFromRecords(records []script.Record) (*BlobRecord, error) {
	var ret *BlobRecord
	for _, record := range records {
		if !r.Detect(record, KindB) {
			continue
		}
		if ret != nil {
			ret.Extra = append(ret.Extra, record...)
			continue
		}
		tmp, err := r.DecodeB(record)
		if err != nil {
			return nil, err
		}
		ret = tmp
	}
	if ret == nil {
		return nil, ProtocolNotFoundError{Kind: KindB}
	}
	return ret, nil
}

// optionalField returns the element at idx, or "" when it is missing or
// only whitespace. Other values are returned unchanged
func optionalField(record script.Record, idx int) string {
	val := record.String(idx)
	if strings.TrimSpace(val) == "" {
		return ""
	}
	return val
}

func blankIfEmpty(val string) string {
	if strings.TrimSpace(val) == "" {
		return blankField
	}
	return val
}
