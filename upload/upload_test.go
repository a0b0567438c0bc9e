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

package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/internal/test"
	test_ledger "github.com/blinklabs-io/gopolyglot/internal/test/ledger"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/blinklabs-io/gopolyglot/upload"
	"github.com/blinklabs-io/gopolyglot/wallet"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newFundedLedger(t *testing.T) (*test_ledger.MockLedger, *wallet.PrivateKey) {
	t.Helper()
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x17}, 32))
	key, err := wallet.NewPrivateKey(priv, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	mock := test_ledger.NewMockLedger(&chaincfg.TestNet3Params)
	mock.BroadcastConfirmations = 1
	mock.AddUtxo(key.Address(), ledger.Utxo{
		TxId:          test.FakeTxId(1),
		Amount:        10_000_000,
		Confirmations: 6,
	})
	return mock, key
}

func newSmallUploader(l ledger.Ledger, key wallet.Identity, opts ...upload.UploaderOptionFunc) *upload.Uploader {
	opts = append(
		[]upload.UploaderOptionFunc{
			upload.WithLogger(discardLogger),
			upload.WithMaxCarrierSize(2_000),
			upload.WithSafetyMargin(500),
		},
		opts...,
	)
	return upload.NewUploader(l, key, opts...)
}

func dataRecord(t *testing.T, l ledger.Ledger, txId string) script.Record {
	t.Helper()
	tx, err := l.GetTransaction(context.Background(), txId)
	require.NoError(t, err)
	records, err := tx.Records()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0]
}

func TestUploadFileB(t *testing.T) {
	defer goleak.VerifyNone(t)
	mock, key := newFundedLedger(t)
	uploader := newSmallUploader(mock, key)
	data := []byte("<html><body>hello</body></html>")
	txId, err := uploader.UploadFile(context.Background(), data, upload.MetadataFor("index.html"))
	require.NoError(t, err)
	blob, err := bitcom.DecodeB(dataRecord(t, mock, txId))
	require.NoError(t, err)
	assert.Equal(t, data, blob.Data)
	assert.Equal(t, "text/html", blob.MediaType)
	assert.Equal(t, "utf-8", blob.Encoding)
	assert.Equal(t, "index.html", blob.Filename)
}

func TestUploadFileBCAT(t *testing.T) {
	defer goleak.VerifyNone(t)
	mock, key := newFundedLedger(t)
	uploader := newSmallUploader(mock, key)
	data := test.Payload(4_000)
	txId, err := uploader.UploadFile(
		context.Background(),
		data,
		upload.Metadata{MediaType: "image/png", Encoding: "binary", Filename: "big.png"},
	)
	require.NoError(t, err)
	// split, three parts, linker
	broadcasts := mock.Broadcasts()
	require.Len(t, broadcasts, 5)
	assert.Equal(t, broadcasts[4], txId)
	linker, err := bitcom.DecodeLinker(dataRecord(t, mock, txId))
	require.NoError(t, err)
	assert.Equal(t, "image/png", linker.MediaType)
	assert.Equal(t, "big.png", linker.Filename)
	assert.Empty(t, linker.Flag)
	assert.Equal(t, broadcasts[1:4], linker.Parts)
	var rebuilt []byte
	for _, partTxId := range linker.Parts {
		part, err := bitcom.DecodePart(dataRecord(t, mock, partTxId))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(part), 2_000-len(bitcom.PrefixBCATPart)-500)
		rebuilt = append(rebuilt, part...)
	}
	assert.Equal(t, data, rebuilt)
}

func TestUploadCompressed(t *testing.T) {
	mock, key := newFundedLedger(t)
	uploader := newSmallUploader(mock, key)
	data := bytes.Repeat([]byte("compress me "), 1_000)
	txId, err := uploader.UploadFile(
		context.Background(),
		data,
		upload.Metadata{MediaType: "text/plain", Compress: true},
	)
	require.NoError(t, err)
	linker, err := bitcom.DecodeLinker(dataRecord(t, mock, txId))
	require.NoError(t, err)
	assert.Equal(t, bitcom.FlagGzip, linker.Flag)
	var compressed []byte
	for _, partTxId := range linker.Parts {
		part, err := bitcom.DecodePart(dataRecord(t, mock, partTxId))
		require.NoError(t, err)
		compressed = append(compressed, part...)
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

// flakyLedger fails the broadcast numbered failAt
type flakyLedger struct {
	*test_ledger.MockLedger
	count  int
	failAt int
}

func (l *flakyLedger) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	l.count++
	if l.count == l.failAt {
		return "", ledger.NetworkError{Op: "broadcast", Err: errors.New("connection reset")}
	}
	return l.MockLedger.Broadcast(ctx, rawTx)
}

func TestUploadBCATResume(t *testing.T) {
	mock, key := newFundedLedger(t)
	flaky := &flakyLedger{MockLedger: mock, failAt: 3}
	checkpointDir := t.TempDir()
	store, err := upload.NewCheckpointStore(checkpointDir)
	require.NoError(t, err)
	data := test.Payload(4_000)
	meta := upload.Metadata{MediaType: "application/octet-stream", Filename: "blob.bin"}
	// split, part 0, then part 1 fails
	_, err = newSmallUploader(flaky, key, upload.WithCheckpointStore(store)).
		UploadBCAT(context.Background(), data, meta)
	require.ErrorIs(t, err, ledger.ErrNetwork)
	firstRun := mock.Broadcasts()
	require.Len(t, firstRun, 2)
	files, err := filepath.Glob(filepath.Join(checkpointDir, "*.checkpoint"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	flaky.failAt = 0
	txId, err := newSmallUploader(flaky, key, upload.WithCheckpointStore(store)).
		UploadBCAT(context.Background(), data, meta)
	require.NoError(t, err)
	linker, err := bitcom.DecodeLinker(dataRecord(t, mock, txId))
	require.NoError(t, err)
	require.Len(t, linker.Parts, 3)
	assert.Equal(t, firstRun[1], linker.Parts[0])
	// no second split: remaining parts and linker only
	assert.Len(t, mock.Broadcasts(), len(firstRun)+3)
	files, err = filepath.Glob(filepath.Join(checkpointDir, "*.checkpoint"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPublishPointer(t *testing.T) {
	mock, key := newFundedLedger(t)
	uploader := newSmallUploader(mock, key)
	txId, err := uploader.PublishPointer(
		context.Background(),
		"home",
		bitcom.BValue(test.FakeTxId(5)),
		big.NewInt(3),
	)
	require.NoError(t, err)
	pointer, err := bitcom.DecodeD(dataRecord(t, mock, txId), txId)
	require.NoError(t, err)
	assert.Equal(t, "home", pointer.Key)
	assert.Equal(t, bitcom.BValue(test.FakeTxId(5)), pointer.Value)
	assert.Equal(t, int64(3), pointer.Sequence.Int64())
	history, err := mock.GetTransactionsForAddress(context.Background(), key.Address())
	require.NoError(t, err)
	assert.Contains(t, history, txId)
}

func TestUploadInsufficientFunds(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x18}, 32))
	key, err := wallet.NewPrivateKey(priv, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	mock := test_ledger.NewMockLedger(&chaincfg.TestNet3Params)
	_, err = newSmallUploader(mock, key).UploadFile(context.Background(), []byte("x"), upload.Metadata{})
	assert.ErrorContains(t, err, "shortfall")
}

func TestCheckpointStore(t *testing.T) {
	store, err := upload.NewCheckpointStore(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)
	missing, err := store.Load("abc")
	require.NoError(t, err)
	assert.Nil(t, missing)
	checkpoint := &upload.Checkpoint{
		Digest:   "abc",
		NumParts: 2,
		Parts:    []string{test.FakeTxId(1), ""},
	}
	require.NoError(t, store.Save(checkpoint))
	loaded, err := store.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Parts, loaded.Parts)
	assert.Equal(t, 2, loaded.NumParts)
	require.NoError(t, store.Remove("abc"))
	require.NoError(t, store.Remove("abc"))
	missing, err = store.Load("abc")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCheckpointStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := upload.NewCheckpointStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.checkpoint"), []byte{0xff}, 0o600))
	_, err = store.Load("bad")
	assert.Error(t, err)
	// A well-formed CBOR item that is not a checkpoint record
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.checkpoint"), []byte{0xa1, 0x61, 0x61, 0x01}, 0o600))
	_, err = store.Load("map")
	assert.ErrorContains(t, err, "not a CBOR array")
	// A truncated array still fails to decode
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.checkpoint"), []byte{0x83, 0x61}, 0o600))
	_, err = store.Load("short")
	assert.ErrorContains(t, err, "decode checkpoint")
}
