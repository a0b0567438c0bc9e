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
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network definitions. Name is also the WhatsOnChain network path segment
var (
	NetworkMainnet = Network{
		Name:   "main",
		Params: &chaincfg.MainNetParams,
	}
	NetworkTestnet = Network{
		Name:   "test",
		Params: &chaincfg.TestNet3Params,
	}
	// The scaling test network uses testnet address and key formats
	NetworkScalingTestnet = Network{
		Name:   "stn",
		Params: &chaincfg.TestNet3Params,
	}

	NetworkInvalid = Network{
		Name: "invalid",
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkTestnet,
	NetworkScalingTestnet,
}

var networkAliases = map[string]string{
	"mainnet":         "main",
	"testnet":         "test",
	"scaling-testnet": "stn",
}

// NetworkByName returns a predefined network by name or alias
func NetworkByName(name string) Network {
	name = strings.ToLower(name)
	if alias, ok := networkAliases[name]; ok {
		name = alias
	}
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a ledger network
type Network struct {
	Name string
	// Params holds the address and key encoding parameters
	Params *chaincfg.Params
}

func (n Network) String() string {
	return n.Name
}

// Valid reports whether n is one of the predefined networks
func (n Network) Valid() bool {
	return n.Params != nil
}
