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

package test_ledger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/blinklabs-io/gopolyglot/internal/test"
	test_ledger "github.com/blinklabs-io/gopolyglot/internal/test/ledger"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"

func spendingTx(t *testing.T, outputValue int64, inputs ...ledger.Utxo) []byte {
	t.Helper()
	msgTx := wire.NewMsgTx(1)
	for _, input := range inputs {
		hash, err := chainhash.NewHashFromStr(input.TxId)
		require.NoError(t, err)
		msgTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, input.Vout), nil, nil))
	}
	addr, err := btcutil.DecodeAddress(testAddress, &chaincfg.MainNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	msgTx.AddTxOut(wire.NewTxOut(outputValue, pkScript))
	var buf bytes.Buffer
	require.NoError(t, msgTx.Serialize(&buf))
	return buf.Bytes()
}

func TestBroadcastSpendsInputs(t *testing.T) {
	mock := test_ledger.NewMockLedger(&chaincfg.MainNetParams)
	unit := ledger.Utxo{TxId: test.FakeTxId(1), Vout: 0, Amount: 10_000, Confirmations: 1}
	mock.AddUtxo(testAddress, unit)
	txId, err := mock.Broadcast(context.Background(), spendingTx(t, 9_000, unit))
	require.NoError(t, err)
	utxos, err := mock.GetUnspentOutputs(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, txId, utxos[0].TxId)
	assert.Equal(t, uint64(9_000), utxos[0].Amount)
	assert.Equal(t, []string{txId}, mock.Broadcasts())
}

func TestBroadcastRejectedLeavesStateUnchanged(t *testing.T) {
	known := ledger.Utxo{TxId: test.FakeTxId(1), Vout: 0, Amount: 10_000, Confirmations: 1}
	missing := ledger.Utxo{TxId: test.FakeTxId(2), Vout: 3}
	testDefs := []struct {
		name   string
		inputs []ledger.Utxo
	}{
		{name: "MissingLaterInput", inputs: []ledger.Utxo{known, missing}},
		{name: "DuplicateInput", inputs: []ledger.Utxo{known, known}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			mock := test_ledger.NewMockLedger(&chaincfg.MainNetParams)
			mock.AddUtxo(testAddress, known)
			_, err := mock.Broadcast(context.Background(), spendingTx(t, 9_000, testDef.inputs...))
			require.ErrorIs(t, err, ledger.ErrNetwork)
			utxos, err := mock.GetUnspentOutputs(context.Background(), testAddress)
			require.NoError(t, err)
			assert.Equal(t, []ledger.Utxo{known}, utxos)
			history, err := mock.GetTransactionsForAddress(context.Background(), testAddress)
			require.NoError(t, err)
			assert.Empty(t, history)
			assert.Empty(t, mock.Broadcasts())
		})
	}
}
