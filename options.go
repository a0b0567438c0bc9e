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

package polyglot

import (
	"log/slog"

	"github.com/blinklabs-io/gopolyglot/config"
	"github.com/blinklabs-io/gopolyglot/ledger"
	"github.com/blinklabs-io/gopolyglot/wallet"
)

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithConfig specifies the configuration. The defaults are used otherwise
func WithConfig(cfg *config.Config) ClientOptionFunc {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithNetwork specifies the network. This overrides the configured network
func WithNetwork(network Network) ClientOptionFunc {
	return func(c *Client) {
		c.network = network
	}
}

// WithLedger specifies the ledger backend. A WhatsOnChain client is used otherwise
func WithLedger(l ledger.Ledger) ClientOptionFunc {
	return func(c *Client) {
		c.ledger = l
	}
}

// WithIdentity specifies the signing identity used for uploads
func WithIdentity(identity wallet.Identity) ClientOptionFunc {
	return func(c *Client) {
		c.identity = identity
	}
}

// WithWIF specifies the signing identity as a WIF key for the client network
func WithWIF(wif string) ClientOptionFunc {
	return func(c *Client) {
		c.wif = wif
	}
}

func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}
