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

package test_ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"

	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Compile-time check that MockLedger implements ledger.Ledger
var _ ledger.Ledger = (*MockLedger)(nil)

// MockLedger is the canonical in-memory ledger used by tests. Broadcast
// decodes real transactions, so spent units disappear and new P2PKH outputs
// become spendable. Tests may set the Func fields to inject failures.
type MockLedger struct {
	Params *chaincfg.Params
	// BroadcastConfirmations is the confirmation count given to outputs
	// created by Broadcast
	BroadcastConfirmations uint32

	GetTransactionFunc            func(context.Context, string) (*ledger.Transaction, error)
	GetUnspentOutputsFunc         func(context.Context, string) ([]ledger.Utxo, error)
	GetTransactionsForAddressFunc func(context.Context, string) ([]string, error)
	BroadcastFunc                 func(context.Context, []byte) (string, error)

	mu         sync.Mutex
	txs        map[string]*ledger.Transaction
	utxos      map[string][]ledger.Utxo
	history    map[string][]string
	broadcasts []string
}

func NewMockLedger(params *chaincfg.Params) *MockLedger {
	return &MockLedger{
		Params:  params,
		txs:     make(map[string]*ledger.Transaction),
		utxos:   make(map[string][]ledger.Utxo),
		history: make(map[string][]string),
	}
}

// AddTransaction stores a transaction fixture and appends it to the history
// of each given address
func (m *MockLedger) AddTransaction(tx *ledger.Transaction, addresses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.TxId] = tx
	for _, addr := range addresses {
		m.history[addr] = append(m.history[addr], tx.TxId)
	}
}

// AddDataTransaction stores a fixture transaction with a single data output
// carrying record
func (m *MockLedger) AddDataTransaction(txId string, record script.Record, addresses ...string) {
	m.AddTransaction(
		&ledger.Transaction{
			TxId: txId,
			Outputs: []ledger.Output{
				{ScriptHex: hex.EncodeToString(script.NewDataScript(record))},
			},
		},
		addresses...,
	)
}

// AddUtxo makes an output spendable by address
func (m *MockLedger) AddUtxo(address string, utxo ledger.Utxo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utxos[address] = append(m.utxos[address], utxo)
}

// Mine adds a confirmation to every unspent output
func (m *MockLedger) Mine() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for addr, utxos := range m.utxos {
		for idx := range utxos {
			m.utxos[addr][idx].Confirmations++
		}
	}
}

// Broadcasts returns the IDs of broadcast transactions in order
func (m *MockLedger) Broadcasts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.broadcasts)
}

func (m *MockLedger) GetTransaction(ctx context.Context, txId string) (*ledger.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, txId)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[txId]
	if !ok {
		return nil, ledger.TransactionNotFoundError{TxId: txId}
	}
	return tx, nil
}

func (m *MockLedger) GetUnspentOutputs(ctx context.Context, address string) ([]ledger.Utxo, error) {
	if m.GetUnspentOutputsFunc != nil {
		return m.GetUnspentOutputsFunc(ctx, address)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.utxos[address]), nil
}

func (m *MockLedger) GetTransactionsForAddress(ctx context.Context, address string) ([]string, error) {
	if m.GetTransactionsForAddressFunc != nil {
		return m.GetTransactionsForAddressFunc(ctx, address)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history[address]), nil
}

func (m *MockLedger) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, rawTx)
	}
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return "", ledger.NetworkError{Op: "broadcast", Err: err}
	}
	txId := msgTx.TxHash().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[txId]; ok {
		return "", ledger.NetworkError{
			Op:  "broadcast",
			Err: fmt.Errorf("transaction %s already known", txId),
		}
	}
	// Every input is checked before any output is spent
	spentBy := make(map[wire.OutPoint]string, len(msgTx.TxIn))
	for _, txIn := range msgTx.TxIn {
		spent := txIn.PreviousOutPoint
		addr, ok := m.owner(spent)
		if !ok {
			return "", ledger.NetworkError{
				Op:  "broadcast",
				Err: fmt.Errorf("missing or spent input %s", spent),
			}
		}
		if _, ok := spentBy[spent]; ok {
			return "", ledger.NetworkError{
				Op:  "broadcast",
				Err: fmt.Errorf("input %s spent twice", spent),
			}
		}
		spentBy[spent] = addr
	}
	touched := map[string]bool{}
	for _, addr := range spentBy {
		touched[addr] = true
	}
	for addr := range touched {
		m.utxos[addr] = slices.DeleteFunc(m.utxos[addr], func(u ledger.Utxo) bool {
			_, ok := spentBy[utxoOutPoint(u)]
			return ok
		})
	}
	tx := &ledger.Transaction{TxId: txId}
	for vout, txOut := range msgTx.TxOut {
		// #nosec G115 -- output values are never negative here
		value := uint64(txOut.Value)
		tx.Outputs = append(tx.Outputs, ledger.Output{
			Value:     value,
			ScriptHex: hex.EncodeToString(txOut.PkScript),
		})
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(txOut.PkScript, m.Params)
		if err != nil || len(addrs) != 1 {
			continue
		}
		addr := addrs[0].EncodeAddress()
		m.utxos[addr] = append(m.utxos[addr], ledger.Utxo{
			TxId: txId,
			// #nosec G115
			Vout:          uint32(vout),
			Amount:        value,
			Confirmations: m.BroadcastConfirmations,
		})
		touched[addr] = true
	}
	m.txs[txId] = tx
	for addr := range touched {
		m.history[addr] = append(m.history[addr], txId)
	}
	m.broadcasts = append(m.broadcasts, txId)
	return txId, nil
}

// owner returns the address holding the unspent output at outPoint
func (m *MockLedger) owner(outPoint wire.OutPoint) (string, bool) {
	for addr, utxos := range m.utxos {
		for _, u := range utxos {
			if utxoOutPoint(u) == outPoint {
				return addr, true
			}
		}
	}
	return "", false
}

func utxoOutPoint(u ledger.Utxo) wire.OutPoint {
	var ret wire.OutPoint
	if hash, err := chainhash.NewHashFromStr(u.TxId); err == nil {
		ret.Hash = *hash
	}
	ret.Index = u.Vout
	return ret
}
