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

// Package polyglot stores files on a UTXO ledger using the B, BCAT and D
// bitcom protocols and reads them back.
package polyglot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/config"
	"github.com/blinklabs-io/gopolyglot/download"
	"github.com/blinklabs-io/gopolyglot/funding"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/ledger/whatsonchain"
	"github.com/blinklabs-io/gopolyglot/upload"
	"github.com/blinklabs-io/gopolyglot/wallet"
)

var ErrNoIdentity = errors.New("no signing identity configured")

// Client ties together a ledger backend, an optional signing identity, an
// uploader and a downloader for one network
type Client struct {
	config     *config.Config
	network    Network
	ledger     ledger.Ledger
	identity   wallet.Identity
	wif        string
	logger     *slog.Logger
	txCache    *download.TxCache
	uploader   *upload.Uploader
	downloader *download.Downloader
}

func New(opts ...ClientOptionFunc) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.config == nil {
		c.config = config.Default()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if !c.network.Valid() {
		c.network = NetworkByName(c.config.Network)
		if !c.network.Valid() {
			return nil, fmt.Errorf("unknown network %q", c.config.Network)
		}
	}
	if c.ledger == nil {
		c.ledger = whatsonchain.NewClient(
			c.network.Name,
			whatsonchain.WithBaseUrl(c.config.Ledger.BaseUrl),
			whatsonchain.WithHttpClient(&http.Client{Timeout: c.config.Ledger.Timeout}),
			whatsonchain.WithLogger(c.logger),
		)
	}
	if c.identity == nil && c.wif != "" {
		key, err := wallet.NewPrivateKeyFromWIF(c.wif, c.network.Params)
		if err != nil {
			return nil, err
		}
		c.identity = key
	}
	if err := c.setupDownloader(); err != nil {
		return nil, err
	}
	if c.identity != nil {
		if err := c.setupUploader(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) setupDownloader() error {
	cfg := c.config.Download
	opts := []download.DownloaderOptionFunc{
		download.WithMaxDepth(cfg.MaxDepth),
		download.WithLogger(c.logger),
	}
	if cfg.CacheSizeMB > 0 {
		cache, err := download.NewTxCache(context.Background(), cfg.CacheLifeWindow, cfg.CacheSizeMB)
		if err != nil {
			return err
		}
		c.txCache = cache
		opts = append(opts, download.WithCache(cache))
	}
	c.downloader = download.NewDownloader(c.ledger, opts...)
	return nil
}

func (c *Client) setupUploader() error {
	fundingCfg := c.config.Funding
	allocator := funding.NewAllocator(
		c.ledger,
		c.identity,
		funding.WithFeeRate(fundingCfg.FeeRate),
		funding.WithMinConfirmations(fundingCfg.MinConfirmations),
		funding.WithPollInterval(fundingCfg.PollInterval),
		funding.WithMaxPollAttempts(fundingCfg.MaxPollAttempts),
		funding.WithLogger(c.logger),
	)
	opts := []upload.UploaderOptionFunc{
		upload.WithAllocator(allocator),
		upload.WithFeeRate(fundingCfg.FeeRate),
		upload.WithMaxCarrierSize(c.config.Upload.MaxCarrierSize),
		upload.WithSafetyMargin(c.config.Upload.SafetyMargin),
		upload.WithLogger(c.logger),
	}
	if dir := c.config.Upload.CheckpointDir; dir != "" {
		store, err := upload.NewCheckpointStore(dir)
		if err != nil {
			return err
		}
		opts = append(opts, upload.WithCheckpointStore(store))
	}
	c.uploader = upload.NewUploader(c.ledger, c.identity, opts...)
	return nil
}

// Close releases the transaction cache
func (c *Client) Close() error {
	if c.txCache != nil {
		return c.txCache.Close()
	}
	return nil
}

func (c *Client) Network() Network {
	return c.network
}

// Address returns the identity address, or "" without an identity
func (c *Client) Address() string {
	if c.identity == nil {
		return ""
	}
	return c.identity.Address()
}

func (c *Client) Ledger() ledger.Ledger {
	return c.ledger
}

func (c *Client) Downloader() *download.Downloader {
	return c.downloader
}

// Uploader returns the uploader, or nil without an identity
func (c *Client) Uploader() *upload.Uploader {
	return c.uploader
}

// Upload publishes data and returns the B or BCAT linker transaction ID
func (c *Client) Upload(ctx context.Context, data []byte, meta upload.Metadata) (string, error) {
	if c.uploader == nil {
		return "", ErrNoIdentity
	}
	return c.uploader.UploadFile(ctx, data, meta)
}

// UploadPath reads a file and publishes it with metadata derived from its name
func (c *Client) UploadPath(ctx context.Context, path string, compress bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	meta := upload.MetadataFor(filepath.Base(path))
	meta.Compress = compress
	return c.Upload(ctx, data, meta)
}

// SetPointer publishes a D record for key at the identity address
func (c *Client) SetPointer(
	ctx context.Context,
	key string,
	value bitcom.PointerValue,
	sequence *big.Int,
) (string, error) {
	if c.uploader == nil {
		return "", ErrNoIdentity
	}
	return c.uploader.PublishPointer(ctx, key, value, sequence)
}

// Download resolves a locator string such as b://<txid> or d://<address>/<key>
func (c *Client) Download(ctx context.Context, locator string) (*download.Result, error) {
	return c.downloader.DownloadString(ctx, locator)
}
