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

package polyglot_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	polyglot "github.com/blinklabs-io/gopolyglot"
	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/config"
	"github.com/blinklabs-io/gopolyglot/internal/test"
	test_ledger "github.com/blinklabs-io/gopolyglot/internal/test/ledger"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/upload"
	"github.com/blinklabs-io/gopolyglot/wallet"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNetworkByName(t *testing.T) {
	testDefs := []struct {
		name     string
		expected polyglot.Network
	}{
		{name: "main", expected: polyglot.NetworkMainnet},
		{name: "mainnet", expected: polyglot.NetworkMainnet},
		{name: "test", expected: polyglot.NetworkTestnet},
		{name: "TESTNET", expected: polyglot.NetworkTestnet},
		{name: "stn", expected: polyglot.NetworkScalingTestnet},
		{name: "scaling-testnet", expected: polyglot.NetworkScalingTestnet},
		{name: "regtest", expected: polyglot.NetworkInvalid},
	}
	for _, testDef := range testDefs {
		network := polyglot.NetworkByName(testDef.name)
		assert.Equal(t, testDef.expected, network, "network %s", testDef.name)
	}
	assert.False(t, polyglot.NetworkInvalid.Valid())
	assert.True(t, polyglot.NetworkScalingTestnet.Valid())
}

func TestClientRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x55}, 32))
	key, err := wallet.NewPrivateKey(priv, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	wif, err := key.WIF()
	require.NoError(t, err)
	mock := test_ledger.NewMockLedger(&chaincfg.TestNet3Params)
	mock.BroadcastConfirmations = 1
	mock.AddUtxo(key.Address(), ledger.Utxo{
		TxId:          test.FakeTxId(1),
		Amount:        5_000_000,
		Confirmations: 3,
	})
	cfg := config.Default()
	cfg.Network = "test"
	cfg.Upload.MaxCarrierSize = 4_000
	cfg.Upload.SafetyMargin = 1_000
	cfg.Upload.CheckpointDir = filepath.Join(t.TempDir(), "checkpoints")
	client, err := polyglot.New(
		polyglot.WithConfig(cfg),
		polyglot.WithLedger(mock),
		polyglot.WithWIF(wif),
		polyglot.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, polyglot.NetworkTestnet, client.Network())
	assert.Equal(t, key.Address(), client.Address())

	path := filepath.Join(t.TempDir(), "page.html")
	content := bytes.Repeat([]byte("<p>hello</p>"), 1_000)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	txId, err := client.UploadPath(context.Background(), path, false)
	require.NoError(t, err)
	_, err = client.SetPointer(context.Background(), "index", bitcom.BCATValue(txId), big.NewInt(1))
	require.NoError(t, err)

	res, err := client.Download(context.Background(), "d://"+key.Address()+"/index")
	require.NoError(t, err)
	assert.Equal(t, content, res.Data)
	assert.Equal(t, "text/html", res.MediaType)
	assert.Equal(t, "page.html", res.Filename)
}

func TestClientWithoutIdentity(t *testing.T) {
	cfg := config.Default()
	cfg.Download.CacheSizeMB = 0
	client, err := polyglot.New(
		polyglot.WithConfig(cfg),
		polyglot.WithLedger(test_ledger.NewMockLedger(&chaincfg.MainNetParams)),
	)
	require.NoError(t, err)
	defer client.Close()
	assert.Empty(t, client.Address())
	assert.Nil(t, client.Uploader())
	_, err = client.Upload(context.Background(), []byte("x"), upload.Metadata{})
	assert.ErrorIs(t, err, polyglot.ErrNoIdentity)
}

func TestClientBadWIF(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x56}, 32))
	key, err := wallet.NewPrivateKey(priv, &chaincfg.MainNetParams)
	require.NoError(t, err)
	wif, err := key.WIF()
	require.NoError(t, err)
	_, err = polyglot.New(
		polyglot.WithNetwork(polyglot.NetworkTestnet),
		polyglot.WithLedger(test_ledger.NewMockLedger(&chaincfg.TestNet3Params)),
		polyglot.WithWIF(wif),
	)
	assert.ErrorIs(t, err, wallet.ErrWrongNetwork)
}
