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

// Package wallet provides the signing identity used to fund and sign carrier
// transactions. It is consumed by composition: uploaders take an Identity
// rather than embedding key handling.
package wallet

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

var ErrWrongNetwork = errors.New("key is not for the selected network")

// Identity is a signing identity that can build and sign transactions
// spending its own outputs
type Identity interface {
	Address() string
	CreateTransaction(
		payments []Payment,
		data script.Record,
		units []ledger.Utxo,
		feeRate uint64,
	) (*SignedTransaction, error)
}

// Payment is a regular pay-to-address output
type Payment struct {
	Address string
	Amount  uint64
}

// SignedTransaction is a fully signed transaction ready for broadcast
type SignedTransaction struct {
	TxId   string
	Raw    []byte
	Fee    uint64
	Change uint64
}

// PrivateKey is a single-key Identity
type PrivateKey struct {
	key        *btcec.PrivateKey
	compressed bool
	params     *chaincfg.Params
	address    btcutil.Address
	lockScript []byte
}

var _ Identity = (*PrivateKey)(nil)

// NewPrivateKeyFromWIF loads a WIF-encoded key and checks it against params
func NewPrivateKeyFromWIF(wif string, params *chaincfg.Params) (*PrivateKey, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, fmt.Errorf("decode WIF: %w", err)
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("%w: %s", ErrWrongNetwork, params.Name)
	}
	return newPrivateKey(decoded.PrivKey, decoded.CompressPubKey, params)
}

// NewPrivateKey wraps an existing key. The compressed public key form is used
func NewPrivateKey(key *btcec.PrivateKey, params *chaincfg.Params) (*PrivateKey, error) {
	return newPrivateKey(key, true, params)
}

func newPrivateKey(key *btcec.PrivateKey, compressed bool, params *chaincfg.Params) (*PrivateKey, error) {
	p := &PrivateKey{
		key:        key,
		compressed: compressed,
		params:     params,
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(p.publicKey()), params)
	if err != nil {
		return nil, err
	}
	p.address = addr
	p.lockScript, err = txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Address returns the base58check P2PKH address of the key
func (p *PrivateKey) Address() string {
	return p.address.EncodeAddress()
}

// WIF returns the key in wallet import format
func (p *PrivateKey) WIF() (string, error) {
	wif, err := btcutil.NewWIF(p.key, p.params, p.compressed)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

func (p *PrivateKey) publicKey() []byte {
	if p.compressed {
		return p.key.PubKey().SerializeCompressed()
	}
	return p.key.PubKey().SerializeUncompressed()
}
