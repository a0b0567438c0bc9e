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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/blinklabs-io/gopolyglot/bitcom"
)

// Locator identifies content to download
type Locator struct {
	// Kind is KindB, KindBCAT or KindD. KindUnknown means a bare
	// transaction ID whose protocol is detected on fetch
	Kind    bitcom.Kind
	TxId    string
	Address string
	Key     string
}

func (l Locator) String() string {
	switch l.Kind {
	case bitcom.KindB:
		return "b://" + l.TxId
	case bitcom.KindBCAT:
		return "bcat://" + l.TxId
	case bitcom.KindD:
		return "d://" + l.Address + "/" + l.Key
	default:
		return l.TxId
	}
}

// ParseLocator parses b:<txid>, bcat:<txid>, d:<address>/<key> and
// bit:<identifier>/<rest>, with an optional // after the scheme. A bare
// 64 character hex string is taken as a transaction ID
func ParseLocator(locator string) (Locator, error) {
	locator = strings.TrimSpace(locator)
	scheme, rest, found := strings.Cut(locator, ":")
	if !found {
		if isTxId(locator) {
			return Locator{TxId: strings.ToLower(locator)}, nil
		}
		return Locator{}, fmt.Errorf("%w: %q", ErrUnrecognizedLocator, locator)
	}
	rest = strings.TrimPrefix(rest, "//")
	switch strings.ToLower(scheme) {
	case "b":
		return txLocator(bitcom.KindB, rest, locator)
	case "bcat":
		return txLocator(bitcom.KindBCAT, rest, locator)
	case "d":
		return pointerLocator(rest, locator)
	case "bit":
		identifier, target, ok := strings.Cut(rest, "/")
		if !ok {
			return Locator{}, fmt.Errorf("%w: %q", ErrUnrecognizedLocator, locator)
		}
		kind, ok := bitcom.DefaultRegistry.KindByIdentifier(identifier)
		if !ok {
			return Locator{}, fmt.Errorf("%w: unknown protocol %q", ErrUnrecognizedLocator, identifier)
		}
		switch kind {
		case bitcom.KindB, bitcom.KindBCAT:
			return txLocator(kind, target, locator)
		case bitcom.KindD:
			return pointerLocator(target, locator)
		default:
			return Locator{}, fmt.Errorf("%w: protocol %s is not downloadable", ErrUnrecognizedLocator, kind)
		}
	default:
		return Locator{}, fmt.Errorf("%w: scheme %q", ErrUnrecognizedLocator, scheme)
	}
}

func txLocator(kind bitcom.Kind, txId string, locator string) (Locator, error) {
	txId = strings.TrimSuffix(txId, "/")
	if !isTxId(txId) {
		return Locator{}, fmt.Errorf("%w: bad transaction ID in %q", ErrUnrecognizedLocator, locator)
	}
	return Locator{Kind: kind, TxId: strings.ToLower(txId)}, nil
}

func pointerLocator(rest string, locator string) (Locator, error) {
	address, key, ok := strings.Cut(rest, "/")
	if !ok || address == "" || key == "" {
		return Locator{}, fmt.Errorf("%w: expected <address>/<key> in %q", ErrUnrecognizedLocator, locator)
	}
	return Locator{Kind: bitcom.KindD, Address: address, Key: key}, nil
}

func isTxId(val string) bool {
	if len(val) != bitcom.TxIdSize*2 {
		return false
	}
	_, err := hex.DecodeString(val)
	return err == nil
}
