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

package bitcom

import (
	"github.com/blinklabs-io/gopolyglot/script"
)

// Bitcom protocol identifiers
const (
	PrefixB        = "19HxigV4QyBv3tHpQVcUEQyq1pzZVdoAut"
	PrefixC        = PrefixB // C:// shares the B:// write format
	PrefixBCAT     = "15DHFxWZJT58f9nhyGnsRBqrgwK4W6h4Up"
	PrefixBCATPart = "1ChDHzdd1H4wSjgGMHyndZm6qxEDGjqpJL"
	PrefixD        = "19iG3WTYSsbyos3uJ733yK4zEioi1FesNU"
	PrefixAIP      = "15PciHG22SNLQJXMoSUaWVi7WSqc7hCfva"
	PrefixMAP      = "1PuQa7K62MiKCtssSLKy1kh56WWU7MtUR5"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindB
	KindBCAT
	KindBCATPart
	KindD
	KindAIP
	KindMAP
)

func (k Kind) String() string {
	switch k {
	case KindB:
		return "B"
	case KindBCAT:
		return "BCAT"
	case KindBCATPart:
		return "BCATPART"
	case KindD:
		return "D"
	case KindAIP:
		return "AIP"
	case KindMAP:
		return "MAP"
	default:
		return "unknown"
	}
}

// Protocol describes how a bitcom protocol is recognized
type Protocol struct {
	Kind       Kind
	Identifier string
	// MinElements is the minimum number of elements, including the identifier
	MinElements int
}

// Registry is an immutable set of known protocols, tested in order
type Registry struct {
	protocols []Protocol
}

// DefaultRegistry holds the protocols this package can decode or recognize.
// Linkers are tested before anything shorter so that the strictest length
// check wins
var DefaultRegistry = NewRegistry(
	Protocol{Kind: KindBCAT, Identifier: PrefixBCAT, MinElements: 8},
	Protocol{Kind: KindB, Identifier: PrefixB, MinElements: 3},
	Protocol{Kind: KindD, Identifier: PrefixD, MinElements: 3},
	Protocol{Kind: KindMAP, Identifier: PrefixMAP, MinElements: 3},
	Protocol{Kind: KindAIP, Identifier: PrefixAIP, MinElements: 4},
	Protocol{Kind: KindBCATPart, Identifier: PrefixBCATPart, MinElements: 2},
)

func NewRegistry(protocols ...Protocol) *Registry {
	r := &Registry{
		protocols: make([]Protocol, len(protocols)),
	}
	copy(r.protocols, protocols)
	return r
}

// Protocol returns the registered protocol for kind
func (r *Registry) Protocol(kind Kind) (Protocol, bool) {
	for _, p := range r.protocols {
		if p.Kind == kind {
			return p, true
		}
	}
	return Protocol{}, false
}

// Identify returns the first registered protocol that record matches
func (r *Registry) Identify(record script.Record) (Kind, bool) {
	for _, p := range r.protocols {
		if p.matches(record) {
			return p.Kind, true
		}
	}
	return KindUnknown, false
}

// Detect reports whether record encodes the protocol kind
func (r *Registry) Detect(record script.Record, kind Kind) bool {
	p, ok := r.Protocol(kind)
	if !ok {
		return false
	}
	return p.matches(record)
}

// KindByIdentifier looks up a protocol by its identifier string
func (r *Registry) KindByIdentifier(identifier string) (Kind, bool) {
	for _, p := range r.protocols {
		if p.Identifier == identifier {
			return p.Kind, true
		}
	}
	return KindUnknown, false
}

// offset returns the index of kind's identifier in record. It fails when
// record does not encode kind
func (r *Registry) offset(record script.Record, kind Kind) (int, error) {
	p, ok := r.Protocol(kind)
	if !ok || !p.matches(record) {
		return 0, ProtocolNotFoundError{Kind: kind}
	}
	return identifierOffset(record, p.Identifier), nil
}

func (p Protocol) matches(record script.Record) bool {
	if len(record) < p.MinElements {
		return false
	}
	return record.String(0) == p.Identifier || record.String(1) == p.Identifier
}

// identifierOffset returns the index of the identifier element. Some wallets
// prepend an empty placeholder element, which pushes the identifier to index 1
func identifierOffset(record script.Record, identifier string) int {
	if record.String(0) == identifier {
		return 0
	}
	return 1
}
