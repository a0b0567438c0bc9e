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
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/gopolyglot/script"
)

// D:// value type tags
const (
	PointerTypeText = "txt"
	PointerTypeTx   = "tx"
	PointerTypeB    = "b"
	PointerTypeBCAT = "bcat"
)

// PointerValue is the value side of a D:// record. The concrete type is one
// of TextValue, TxValue, BValue or BCATValue
type PointerValue interface {
	isPointerValue()
	Type() string
	Raw() string
}

// TextValue is a literal text value
type TextValue string

func (TextValue) isPointerValue() {}

func (TextValue) Type() string { return PointerTypeText }

func (v TextValue) Raw() string { return string(v) }

// TxValue references a transaction carrying either B or BCAT content
type TxValue string

func (TxValue) isPointerValue() {}

func (TxValue) Type() string { return PointerTypeTx }

func (v TxValue) Raw() string { return string(v) }

// BValue references a B:// transaction
type BValue string

func (BValue) isPointerValue() {}

func (BValue) Type() string { return PointerTypeB }

func (v BValue) Raw() string { return string(v) }

// BCATValue references a BCAT linker transaction
type BCATValue string

func (BCATValue) isPointerValue() {}

func (BCATValue) Type() string { return PointerTypeBCAT }

func (v BCATValue) Raw() string { return string(v) }

// NewPointerValue builds the value variant for a type tag
func NewPointerValue(valueType string, raw string) (PointerValue, error) {
	switch valueType {
	case PointerTypeText:
		return TextValue(raw), nil
	case PointerTypeTx:
		return TxValue(raw), nil
	case PointerTypeB:
		return BValue(raw), nil
	case PointerTypeBCAT:
		return BCATValue(raw), nil
	default:
		return nil, UnrecognizedTypeError{Kind: KindD, Type: valueType}
	}
}

// PointerRecord is a D:// key/value record
type PointerRecord struct {
	Key      string
	Value    PointerValue
	Sequence *big.Int
	// TxId is the transaction that carried the record
	TxId string
}

// DecodeD extracts a D record from record using DefaultRegistry. txId
// identifies the carrying transaction
func DecodeD(record script.Record, txId string) (*PointerRecord, error) {
	return DefaultRegistry.DecodeD(record, txId)
}

// PointerKey returns the key of a D record without decoding its value, so
// callers can skip records for other keys
func (r *Registry) PointerKey(record script.Record) (string, bool) {
	offset, err := r.offset(record, KindD)
	if err != nil || len(record) < offset+2 {
		return "", false
	}
	return record.String(offset + 1), true
}

// DecodeD extracts a D record from record. txId identifies the carrying transaction
func (r *Registry) DecodeD(record script.Record, txId string) (*PointerRecord, error) {
	offset, err := r.offset(record, KindD)
	if err != nil {
		return nil, ProtocolNotFoundError{Kind: KindD, TxId: txId}
	}
	// identifier, key, value, type, sequence
	if len(record) < offset+5 {
		return nil, MalformedRecordError{
			Kind:   KindD,
			Reason: "missing type or sequence",
		}
	}
	value, err := NewPointerValue(
		strings.TrimSpace(record.String(offset+3)),
		record.String(offset+2),
	)
	if err != nil {
		return nil, err
	}
	seqStr := strings.TrimSpace(record.String(offset + 4))
	seq, ok := new(big.Int).SetString(seqStr, 10)
	if !ok || seq.Sign() < 0 {
		return nil, MalformedRecordError{
			Kind:   KindD,
			Reason: fmt.Sprintf("invalid sequence %q", seqStr),
		}
	}
	return &PointerRecord{
		Key:      record.String(offset + 1),
		Value:    value,
		Sequence: seq,
		TxId:     txId,
	}, nil
}

// EncodeD builds a D record
func EncodeD(key string, value PointerValue, sequence *big.Int) script.Record {
	seq := "0"
	if sequence != nil {
		seq = sequence.String()
	}
	return script.Record{
		[]byte(PrefixD),
		[]byte(key),
		[]byte(value.Raw()),
		[]byte(value.Type()),
		[]byte(seq),
	}
}

// SelectPointer picks the winning record among records sharing a key. The
// highest sequence wins. On equal sequences the record that appears later in
// records wins, which is the newer transaction when records follow address
// history order
func SelectPointer(records []*PointerRecord) (*PointerRecord, error) {
	var ret *PointerRecord
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if ret == nil || sequenceOf(rec).Cmp(sequenceOf(ret)) >= 0 {
			ret = rec
		}
	}
	if ret == nil {
		return nil, ErrNoPointerSelected
	}
	return ret, nil
}

func sequenceOf(rec *PointerRecord) *big.Int {
	if rec.Sequence == nil {
		return new(big.Int)
	}
	return rec.Sequence
}
