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

package script_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/blinklabs-io/gopolyglot/internal/test"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushDataRoundTrip(t *testing.T) {
	testDefs := []struct {
		name       string
		size       int
		prefixSize int
	}{
		{name: "Empty", size: 0, prefixSize: 1},
		{name: "Short", size: 75, prefixSize: 1},
		{name: "PushData1", size: 76, prefixSize: 2},
		{name: "PushData1Max", size: 255, prefixSize: 2},
		{name: "PushData2", size: 256, prefixSize: 3},
		{name: "PushData2Max", size: 65535, prefixSize: 3},
		{name: "PushData4", size: 65536, prefixSize: 5},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xab}, testDef.size)
			encoded := script.PushData(data)
			assert.Len(t, encoded, testDef.size+testDef.prefixSize)
			assert.Equal(t, len(encoded), script.PushSize(testDef.size))
			decoded := script.Decode(encoded)
			require.Len(t, decoded, 1)
			assert.Equal(t, data, []byte(decoded[0]))
		})
	}
}

func TestDecodeOpcodes(t *testing.T) {
	testDefs := []struct {
		name     string
		script   string
		expected script.Record
	}{
		{
			name:     "FalseReturn",
			script:   "006a0568656c6c6f",
			expected: script.Record{{}, []byte("hello")},
		},
		{
			name:     "Negate",
			script:   "4f",
			expected: script.Record{{0xff}},
		},
		{
			name:     "SmallIntegers",
			script:   "515260",
			expected: script.Record{{0x01}, {0x02}, {0x10}},
		},
		{
			name:     "NoOps",
			script:   "616a80b0b3b9",
			expected: script.Record{},
		},
		{
			name:     "PushData2",
			script:   "4d0300616263",
			expected: script.Record{[]byte("abc")},
		},
		{
			name:     "PushData4",
			script:   "4e0200000061620102",
			expected: script.Record{[]byte("ab"), {0x02}},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			decoded := script.Decode(test.DecodeHexString(testDef.script))
			assert.Equal(t, len(testDef.expected), len(decoded))
			for i := range testDef.expected {
				assert.Equal(t, []byte(testDef.expected[i]), []byte(decoded[i]))
			}
		})
	}
}

func TestDecodeNotDataOnly(t *testing.T) {
	testDefs := []string{
		// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
		"76a914000102030405060708090a0b0c0d0e0f1011121388ac",
		// data push followed by OP_ADD
		"0568656c6c6f93",
		// OP_RESERVED
		"50",
		// OP_PUSHDATA2 with a single length byte
		"4d01",
	}
	for _, testDef := range testDefs {
		raw := test.DecodeHexString(testDef)
		assert.Empty(t, script.Decode(raw), "script %s", testDef)
		_, err := script.DecodeStrict(raw)
		assert.True(t, errors.Is(err, script.ErrNotDataOnly), "script %s", testDef)
	}
}

func TestDecodeStrictEmpty(t *testing.T) {
	record, err := script.DecodeStrict(nil)
	require.NoError(t, err)
	assert.Empty(t, record)
}

func TestDecodeClampsOverlongPush(t *testing.T) {
	// Declares 5 bytes but only 3 follow
	decoded := script.Decode(test.DecodeHexString("05616263"))
	require.Len(t, decoded, 1)
	assert.Equal(t, "abc", decoded.String(0))
}

func TestNewDataScript(t *testing.T) {
	record := script.Record{[]byte("B"), {}, bytes.Repeat([]byte{0x01}, 300)}
	raw := script.NewDataScript(record)
	assert.Equal(t, script.EncodedSize(record), len(raw))
	assert.Equal(t, []byte{0x00, 0x6a}, raw[:2])
	decoded := script.Decode(raw)
	// OP_FALSE decodes as an empty leading element, OP_RETURN is skipped
	require.Len(t, decoded, 4)
	assert.Empty(t, decoded[0])
	assert.Equal(t, "B", decoded.String(1))
	assert.Empty(t, decoded[2])
	assert.Len(t, decoded[3], 300)
	assert.Equal(t, "", decoded.String(10))
}

func TestDecodeHex(t *testing.T) {
	record, err := script.DecodeHex("006a0141")
	require.NoError(t, err)
	assert.Equal(t, "A", record.String(1))
	_, err = script.DecodeHex("zz")
	assert.Error(t, err)
}
