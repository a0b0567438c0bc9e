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

package cbor_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/blinklabs-io/gopolyglot/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type encodeTestStruct struct {
	cbor.StructAsArray
	Name  string
	Parts []string
}

func TestEncodeStructAsArray(t *testing.T) {
	data, err := cbor.Encode(&encodeTestStruct{Name: "a", Parts: []string{"b"}})
	require.NoError(t, err)
	// [ "a", [ "b" ] ]
	assert.Equal(t, "826161816162", hex.EncodeToString(data))
	assert.True(t, cbor.IsArray(data))
}

func TestEncodeDecodeBigInt(t *testing.T) {
	testDefs := []string{
		"0",
		"42",
		"18446744073709551616",
		"340282366920938463463374607431768211456",
	}
	for _, testDef := range testDefs {
		in, ok := new(big.Int).SetString(testDef, 10)
		require.True(t, ok)
		data, err := cbor.Encode(in)
		require.NoError(t, err)
		var out big.Int
		_, err = cbor.Decode(data, &out)
		require.NoError(t, err)
		assert.Equal(t, 0, in.Cmp(&out), "value %s", testDef)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	type wide struct {
		Name  string `cbor:"name"`
		Extra int    `cbor:"extra"`
	}
	type narrow struct {
		Name string `cbor:"name"`
	}
	data, err := cbor.Encode(&wide{Name: "x", Extra: 7})
	require.NoError(t, err)
	var dest narrow
	n, err := cbor.Decode(data, &dest)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, "x", dest.Name)
}
