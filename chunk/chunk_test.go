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

package chunk_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/blinklabs-io/gopolyglot/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	testDefs := []struct {
		size            int
		capacity        int
		expectedLengths []int
	}{
		{size: 250_000, capacity: 89_000, expectedLengths: []int{89_000, 89_000, 72_000}},
		{size: 178_000, capacity: 89_000, expectedLengths: []int{89_000, 89_000}},
		{size: 1, capacity: 89_000, expectedLengths: []int{1}},
		{size: 0, capacity: 89_000, expectedLengths: []int{}},
		{size: 10, capacity: 3, expectedLengths: []int{3, 3, 3, 1}},
	}
	for _, testDef := range testDefs {
		plan, err := chunk.NewPlan(testDef.size, testDef.capacity)
		require.NoError(t, err)
		require.Equal(t, len(testDef.expectedLengths), plan.NumParts())
		assert.Equal(t, plan.NumParts()+1, plan.RequiredFundingUnits)
		// Ranges cover the content exactly once, in order
		next := 0
		for i, r := range plan.Ranges {
			assert.Equal(t, next, r.Offset)
			assert.Equal(t, testDef.expectedLengths[i], r.Length)
			next = r.End()
		}
		assert.Equal(t, testDef.size, next)
	}
}

func TestNewPlanInvalid(t *testing.T) {
	_, err := chunk.NewPlan(10, 0)
	assert.True(t, errors.Is(err, chunk.ErrInvalidCapacity))
	_, err = chunk.NewPlan(-1, 10)
	assert.Error(t, err)
}

func TestCapacity(t *testing.T) {
	capacity, err := chunk.Capacity(chunk.DefaultMaxCarrierSize, 34, chunk.DefaultSafetyMargin)
	require.NoError(t, err)
	assert.Equal(t, 88_966, capacity)
	_, err = chunk.Capacity(100, 34, 100)
	assert.True(t, errors.Is(err, chunk.ErrInvalidCapacity))
}

func TestSplit(t *testing.T) {
	content := make([]byte, 25)
	for i := range content {
		content[i] = byte(i)
	}
	plan, err := chunk.NewPlan(len(content), 10)
	require.NoError(t, err)
	parts, err := plan.Split(content)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, content, bytes.Join(parts, nil))
	assert.Len(t, parts[2], 5)
	_, err = plan.Split(content[:20])
	assert.Error(t, err)
}
