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

// Package chunk plans how content is split across carrier transactions
package chunk

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxCarrierSize is the largest data payload placed in one transaction
	DefaultMaxCarrierSize = 100_000
	// DefaultSafetyMargin is reserved in each part transaction for its funding input and outputs
	DefaultSafetyMargin = 11_000
)

var ErrInvalidCapacity = errors.New("invalid part capacity")

// Range is a contiguous byte range of the content
type Range struct {
	Offset int
	Length int
}

// End returns the offset just past the range
func (r Range) End() int {
	return r.Offset + r.Length
}

// Plan describes how content is split into parts
type Plan struct {
	Size     int
	Capacity int
	Ranges   []Range
	// RequiredFundingUnits is one unit per part plus one for the linker
	RequiredFundingUnits int
}

// Capacity returns the usable payload size of a part transaction
func Capacity(maxCarrierSize int, prefixLen int, safetyMargin int) (int, error) {
	ret := maxCarrierSize - prefixLen - safetyMargin
	if ret <= 0 {
		return 0, fmt.Errorf(
			"%w: carrier size %d leaves no room after prefix %d and margin %d",
			ErrInvalidCapacity,
			maxCarrierSize,
			prefixLen,
			safetyMargin,
		)
	}
	return ret, nil
}

// NewPlan splits size bytes into ceil(size/capacity) contiguous ranges
func NewPlan(size int, capacity int) (*Plan, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if size < 0 {
		return nil, fmt.Errorf("invalid content size %d", size)
	}
	numParts := (size + capacity - 1) / capacity
	ret := &Plan{
		Size:                 size,
		Capacity:             capacity,
		Ranges:               make([]Range, 0, numParts),
		RequiredFundingUnits: numParts + 1,
	}
	for offset := 0; offset < size; offset += capacity {
		ret.Ranges = append(ret.Ranges, Range{
			Offset: offset,
			Length: min(capacity, size-offset),
		})
	}
	return ret, nil
}

// NumParts returns the number of part transactions in the plan
func (p *Plan) NumParts() int {
	return len(p.Ranges)
}

// Split returns the slices of content for each range. The slices share
// content's backing array
func (p *Plan) Split(content []byte) ([][]byte, error) {
	if len(content) != p.Size {
		return nil, fmt.Errorf(
			"content size %d does not match planned size %d",
			len(content),
			p.Size,
		)
	}
	ret := make([][]byte, 0, len(p.Ranges))
	for _, r := range p.Ranges {
		ret = append(ret, content[r.Offset:r.End()])
	}
	return ret, nil
}
