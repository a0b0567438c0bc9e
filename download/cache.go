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

package download

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/blinklabs-io/gopolyglot/cbor"
	"github.com/blinklabs-io/gopolyglot/ledger"
)

const (
	DefaultCacheLifeWindow = 10 * time.Minute
	DefaultCacheSizeMB     = 256
)

// TxCache holds fetched transactions keyed by txid
type TxCache struct {
	cache *bigcache.BigCache
}

// NewTxCache creates a cache whose entries expire after lifeWindow and whose
// memory use is capped at maxSizeMB. The cache stops its cleanup worker when
// ctx is done or Close is called
func NewTxCache(ctx context.Context, lifeWindow time.Duration, maxSizeMB int) (*TxCache, error) {
	config := bigcache.DefaultConfig(lifeWindow)
	// Carrier transactions are up to ~100KB
	config.MaxEntrySize = 128 * 1024
	config.MaxEntriesInWindow = 1024
	config.Shards = 64
	config.HardMaxCacheSize = maxSizeMB
	config.Verbose = false
	cache, err := bigcache.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create transaction cache: %w", err)
	}
	return &TxCache{cache: cache}, nil
}

func (c *TxCache) Get(txId string) (*ledger.Transaction, bool) {
	data, err := c.cache.Get(txId)
	if err != nil {
		return nil, false
	}
	var ret ledger.Transaction
	if !cbor.IsArray(data) {
		_ = c.cache.Delete(txId)
		return nil, false
	}
	if _, err := cbor.Decode(data, &ret); err != nil {
		_ = c.cache.Delete(txId)
		return nil, false
	}
	return &ret, true
}

func (c *TxCache) Set(txId string, tx *ledger.Transaction) error {
	data, err := cbor.Encode(tx)
	if err != nil {
		return err
	}
	return c.cache.Set(txId, data)
}

func (c *TxCache) Len() int {
	return c.cache.Len()
}

func (c *TxCache) Close() error {
	return c.cache.Close()
}
