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

package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	TxVersion = 1

	// SigHashForkId is SIGHASH_ALL|SIGHASH_FORKID
	SigHashForkId uint32 = 0x41

	// DustLimit is the smallest change output that is kept
	DustLimit = 546

	// p2pkhInputSize is a signed P2PKH input with a compressed key
	p2pkhInputSize = 32 + 4 + 1 + 107 + 4
	// p2pkhOutputSize is a P2PKH output
	p2pkhOutputSize = 8 + 1 + 25
)

var ErrNoInputs = errors.New("no funding units provided")

// InsufficientInputsError indicates the selected units cannot pay for the
// outputs and fee
type InsufficientInputsError struct {
	Available uint64
	Required  uint64
}

func (e InsufficientInputsError) Error() string {
	return fmt.Sprintf(
		"insufficient inputs: have %d satoshis, need %d (short by %d)",
		e.Available,
		e.Required,
		e.Required-e.Available,
	)
}

// EstimateSize returns the serialized size of a transaction with numInputs
// P2PKH inputs, numPayments P2PKH outputs, an optional data output and an
// optional change output
func EstimateSize(numInputs int, numPayments int, data script.Record, withChange bool) int {
	dataScriptLen := 0
	if data != nil {
		dataScriptLen = script.EncodedSize(data)
	}
	return EstimateScriptSize(numInputs, numPayments, dataScriptLen, withChange)
}

// EstimateScriptSize is EstimateSize for a data script of known length. A
// zero length means no data output
func EstimateScriptSize(numInputs int, numPayments int, dataScriptLen int, withChange bool) int {
	numOutputs := numPayments
	if withChange {
		numOutputs++
	}
	size := 4 + 4 // version + locktime
	size += wire.VarIntSerializeSize(uint64(numInputs)) + numInputs*p2pkhInputSize
	outputsSize := numOutputs * p2pkhOutputSize
	if dataScriptLen > 0 {
		numOutputs++
		outputsSize += 8 + wire.VarIntSerializeSize(uint64(dataScriptLen)) + dataScriptLen
	}
	size += wire.VarIntSerializeSize(uint64(numOutputs)) + outputsSize
	return size
}

// Fee returns the fee for size bytes at feeRate satoshis per kilobyte, rounded up
func Fee(size int, feeRate uint64) uint64 {
	// #nosec G115 -- size is never negative
	return (uint64(size)*feeRate + 999) / 1000
}

// CreateTransaction builds and signs a transaction spending units. Payments
// come first, then the data output (if any), then change back to the key's
// address when it is above the dust limit
func (p *PrivateKey) CreateTransaction(
	payments []Payment,
	data script.Record,
	units []ledger.Utxo,
	feeRate uint64,
) (*SignedTransaction, error) {
	if len(units) == 0 {
		return nil, ErrNoInputs
	}
	tx := wire.NewMsgTx(TxVersion)
	var available uint64
	for _, unit := range units {
		hash, err := chainhash.NewHashFromStr(unit.TxId)
		if err != nil {
			return nil, fmt.Errorf("invalid funding unit %s: %w", unit, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, unit.Vout), nil, nil))
		available += unit.Amount
	}
	var required uint64
	for _, payment := range payments {
		addr, err := btcutil.DecodeAddress(payment.Address, p.params)
		if err != nil {
			return nil, fmt.Errorf("decode payment address %q: %w", payment.Address, err)
		}
		if !addr.IsForNet(p.params) {
			return nil, fmt.Errorf("%w: %s", ErrWrongNetwork, payment.Address)
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
		if payment.Amount > math.MaxInt64 {
			return nil, fmt.Errorf("payment amount %d out of range", payment.Amount)
		}
		tx.AddTxOut(wire.NewTxOut(int64(payment.Amount), pkScript))
		required += payment.Amount
	}
	if data != nil {
		tx.AddTxOut(wire.NewTxOut(0, script.NewDataScript(data)))
	}
	fee := Fee(EstimateSize(len(units), len(payments), data, true), feeRate)
	if available < required+fee {
		return nil, InsufficientInputsError{
			Available: available,
			Required:  required + fee,
		}
	}
	change := available - required - fee
	if change >= DustLimit {
		// #nosec G115 -- change is bounded by the sum of input amounts
		tx.AddTxOut(wire.NewTxOut(int64(change), p.lockScript))
	} else {
		fee += change
		change = 0
	}
	if err := p.sign(tx, units); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return &SignedTransaction{
		TxId:   tx.TxHash().String(),
		Raw:    buf.Bytes(),
		Fee:    fee,
		Change: change,
	}, nil
}

func (p *PrivateKey) sign(tx *wire.MsgTx, units []ledger.Utxo) error {
	hashPrevouts, hashSequence, hashOutputs := sigHashMidstate(tx)
	pubKey := p.publicKey()
	for idx, txIn := range tx.TxIn {
		digest := sigHashForkId(
			tx,
			idx,
			p.lockScript,
			units[idx].Amount,
			hashPrevouts,
			hashSequence,
			hashOutputs,
		)
		sig := ecdsa.Sign(p.key, digest)
		sigBytes := append(sig.Serialize(), byte(SigHashForkId))
		sigScript, err := txscript.NewScriptBuilder().
			AddData(sigBytes).
			AddData(pubKey).
			Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript = sigScript
	}
	return nil
}

func sigHashMidstate(tx *wire.MsgTx) ([]byte, []byte, []byte) {
	var prevouts, sequences, outputs bytes.Buffer
	for _, txIn := range tx.TxIn {
		prevouts.Write(txIn.PreviousOutPoint.Hash[:])
		_ = binary.Write(&prevouts, binary.LittleEndian, txIn.PreviousOutPoint.Index)
		_ = binary.Write(&sequences, binary.LittleEndian, txIn.Sequence)
	}
	for _, txOut := range tx.TxOut {
		_ = binary.Write(&outputs, binary.LittleEndian, txOut.Value)
		_ = wire.WriteVarBytes(&outputs, 0, txOut.PkScript)
	}
	return chainhash.DoubleHashB(prevouts.Bytes()),
		chainhash.DoubleHashB(sequences.Bytes()),
		chainhash.DoubleHashB(outputs.Bytes())
}

// sigHashForkId computes the replay-protected signature digest for input idx
func sigHashForkId(
	tx *wire.MsgTx,
	idx int,
	scriptCode []byte,
	amount uint64,
	hashPrevouts []byte,
	hashSequence []byte,
	hashOutputs []byte,
) []byte {
	var buf bytes.Buffer
	txIn := tx.TxIn[idx]
	_ = binary.Write(&buf, binary.LittleEndian, tx.Version)
	buf.Write(hashPrevouts)
	buf.Write(hashSequence)
	buf.Write(txIn.PreviousOutPoint.Hash[:])
	_ = binary.Write(&buf, binary.LittleEndian, txIn.PreviousOutPoint.Index)
	_ = wire.WriteVarBytes(&buf, 0, scriptCode)
	_ = binary.Write(&buf, binary.LittleEndian, amount)
	_ = binary.Write(&buf, binary.LittleEndian, txIn.Sequence)
	buf.Write(hashOutputs)
	_ = binary.Write(&buf, binary.LittleEndian, tx.LockTime)
	_ = binary.Write(&buf, binary.LittleEndian, SigHashForkId)
	return chainhash.DoubleHashB(buf.Bytes())
}
