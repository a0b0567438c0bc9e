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

// Package ledger defines the read/broadcast capability used to publish and
// fetch carrier transactions, and the types it exchanges.
package ledger

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gopolyglot/cbor"
	"github.com/blinklabs-io/gopolyglot/script"
)

// Ledger is the capability to read from and broadcast to the ledger. All
// calls block until complete and failures are not retried
type Ledger interface {
	GetTransaction(ctx context.Context, txId string) (*Transaction, error)
	GetUnspentOutputs(ctx context.Context, address string) ([]Utxo, error)
	// GetTransactionsForAddress returns transaction IDs oldest first
	GetTransactionsForAddress(ctx context.Context, address string) ([]string, error)
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
}

type Transaction struct {
	cbor.StructAsArray
	TxId    string
	Outputs []Output
}

type Output struct {
	cbor.StructAsArray
	Value     uint64
	ScriptHex string
}

// Script returns the raw output script
func (o Output) Script() ([]byte, error) {
	ret, err := hex.DecodeString(o.ScriptHex)
	if err != nil {
		return nil, fmt.Errorf("decode output script: %w", err)
	}
	return ret, nil
}

// Records decodes the pushdata of every output. Outputs whose script is not
// data-only yield an empty Record at their index
func (t *Transaction) Records() ([]script.Record, error) {
	ret := make([]script.Record, 0, len(t.Outputs))
	for _, output := range t.Outputs {
		raw, err := output.Script()
		if err != nil {
			return nil, err
		}
		ret = append(ret, script.Decode(raw))
	}
	return ret, nil
}

// Utxo is a spendable output, used as a funding unit
type Utxo struct {
	TxId          string
	Vout          uint32
	Amount        uint64
	Confirmations uint32
}

func (u Utxo) String() string {
	return fmt.Sprintf("%s:%d", u.TxId, u.Vout)
}
