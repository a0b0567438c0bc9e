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

// Package whatsonchain implements ledger.Ledger against the WhatsOnChain REST API
package whatsonchain

import (
	"bytes"
	"cmp"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/btcsuite/btcd/btcutil"
)

const (
	DefaultBaseUrl = "https://api.whatsonchain.com/v1/bsv"
	DefaultTimeout = 30 * time.Second

	// maxResponseSize bounds response bodies. Carrier transactions are
	// around 100KB, so this leaves ample room for their JSON form
	maxResponseSize = 16 * 1024 * 1024
)

var _ ledger.Ledger = (*Client)(nil)

type ClientOptionFunc func(*Client)

// Client talks to a single WhatsOnChain network (main, test or stn)
type Client struct {
	baseUrl    string
	network    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(network string, opts ...ClientOptionFunc) *Client {
	c := &Client{
		baseUrl: DefaultBaseUrl,
		network: network,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// WithBaseUrl overrides the API root. The network name is appended to it
func WithBaseUrl(baseUrl string) ClientOptionFunc {
	return func(c *Client) {
		c.baseUrl = strings.TrimRight(baseUrl, "/")
	}
}

func WithHttpClient(httpClient *http.Client) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

type txResponse struct {
	TxId string `json:"txid"`
	Vout []struct {
		Value        float64 `json:"value"`
		N            uint32  `json:"n"`
		ScriptPubKey struct {
			Hex string `json:"hex"`
		} `json:"scriptPubKey"`
	} `json:"vout"`
}

type unspentResponse struct {
	Height int64  `json:"height"`
	TxPos  uint32 `json:"tx_pos"`
	TxHash string `json:"tx_hash"`
	Value  uint64 `json:"value"`
}

type historyResponse struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
}

type chainInfoResponse struct {
	Blocks int64 `json:"blocks"`
}

type broadcastRequest struct {
	TxHex string `json:"txhex"`
}

func (c *Client) GetTransaction(ctx context.Context, txId string) (*ledger.Transaction, error) {
	var resp txResponse
	status, err := c.get(ctx, "tx", "/tx/hash/"+url.PathEscape(txId), &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, ledger.TransactionNotFoundError{TxId: txId}
		}
		return nil, err
	}
	ret := &ledger.Transaction{
		TxId:    resp.TxId,
		Outputs: make([]ledger.Output, len(resp.Vout)),
	}
	for _, vout := range resp.Vout {
		if int(vout.N) >= len(ret.Outputs) {
			return nil, ledger.NetworkError{
				Op:  "tx",
				Err: fmt.Errorf("output index %d out of range", vout.N),
			}
		}
		amount, err := btcutil.NewAmount(vout.Value)
		if err != nil {
			return nil, ledger.NetworkError{Op: "tx", Err: err}
		}
		ret.Outputs[vout.N] = ledger.Output{
			// #nosec G115 -- output values are never negative
			Value:     uint64(amount),
			ScriptHex: vout.ScriptPubKey.Hex,
		}
	}
	return ret, nil
}

func (c *Client) GetUnspentOutputs(ctx context.Context, address string) ([]ledger.Utxo, error) {
	var resp []unspentResponse
	if _, err := c.get(ctx, "unspent", "/address/"+url.PathEscape(address)+"/unspent", &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, nil
	}
	tip, err := c.chainTip(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]ledger.Utxo, 0, len(resp))
	for _, unspent := range resp {
		ret = append(ret, ledger.Utxo{
			TxId:          unspent.TxHash,
			Vout:          unspent.TxPos,
			Amount:        unspent.Value,
			Confirmations: confirmations(tip, unspent.Height),
		})
	}
	return ret, nil
}

// GetTransactionsForAddress returns the address history ordered by block
// height, with unconfirmed transactions last
func (c *Client) GetTransactionsForAddress(ctx context.Context, address string) ([]string, error) {
	var resp []historyResponse
	if _, err := c.get(ctx, "history", "/address/"+url.PathEscape(address)+"/history", &resp); err != nil {
		return nil, err
	}
	slices.SortStableFunc(resp, func(a, b historyResponse) int {
		return cmp.Compare(sortHeight(a.Height), sortHeight(b.Height))
	})
	ret := make([]string, 0, len(resp))
	for _, entry := range resp {
		ret = append(ret, entry.TxHash)
	}
	return ret, nil
}

func (c *Client) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	body, err := json.Marshal(broadcastRequest{TxHex: hex.EncodeToString(rawTx)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint("/tx/raw"),
		bytes.NewReader(body),
	)
	if err != nil {
		return "", ledger.NetworkError{Op: "broadcast", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	var txId string
	if _, err := c.do(req, "broadcast", &txId); err != nil {
		return "", err
	}
	c.logger.Debug(
		"broadcast transaction",
		"component", "whatsonchain",
		"network", c.network,
		"txid", txId,
		"size", len(rawTx),
	)
	return txId, nil
}

func (c *Client) chainTip(ctx context.Context) (int64, error) {
	var resp chainInfoResponse
	if _, err := c.get(ctx, "chain info", "/chain/info", &resp); err != nil {
		return 0, err
	}
	return resp.Blocks, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseUrl + "/" + c.network + path
}

func (c *Client) get(ctx context.Context, op string, path string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return 0, ledger.NetworkError{Op: op, Err: err}
	}
	return c.do(req, op, dest)
}

func (c *Client) do(req *http.Request, op string, dest any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, ledger.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, ledger.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, ledger.NetworkError{
			Op: op,
			Err: fmt.Errorf(
				"unexpected status %d: %s",
				resp.StatusCode,
				strings.TrimSpace(string(body)),
			),
		}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return resp.StatusCode, ledger.NetworkError{
			Op:  op,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}
	return resp.StatusCode, nil
}

// confirmations is tip - height + 1, or 0 for unconfirmed outputs
func confirmations(tip int64, height int64) uint32 {
	if height <= 0 || height > tip {
		return 0
	}
	// #nosec G115 -- bounded by the chain height
	return uint32(tip - height + 1)
}

func sortHeight(height int64) int64 {
	if height <= 0 {
		return 1 << 62
	}
	return height
}
