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

package script

import (
	"encoding/binary"
	"math"

	"github.com/btcsuite/btcd/txscript"
)

// PushData returns the minimal push of data. Empty data is pushed with OP_0.
// Small integers are always written as literal pushes so that Decode returns
// the original bytes
func PushData(data []byte) []byte {
	dataLen := len(data)
	var ret []byte
	switch {
	case dataLen == 0:
		return []byte{txscript.OP_0}
	case dataLen <= txscript.OP_DATA_75:
		ret = make([]byte, 0, 1+dataLen)
		ret = append(ret, byte(dataLen))
	case dataLen <= math.MaxUint8:
		ret = make([]byte, 0, 2+dataLen)
		ret = append(ret, txscript.OP_PUSHDATA1, byte(dataLen))
	case dataLen <= math.MaxUint16:
		ret = make([]byte, 0, 3+dataLen)
		ret = append(ret, txscript.OP_PUSHDATA2)
		ret = binary.LittleEndian.AppendUint16(ret, uint16(dataLen))
	default:
		ret = make([]byte, 0, 5+dataLen)
		ret = append(ret, txscript.OP_PUSHDATA4)
		// #nosec G115 -- pushes over 4GiB cannot exist in a transaction
		ret = binary.LittleEndian.AppendUint32(ret, uint32(dataLen))
	}
	return append(ret, data...)
}

// Encode concatenates the pushes for each element of record
func Encode(record Record) []byte {
	var ret []byte
	for _, elem := range record {
		ret = append(ret, PushData(elem)...)
	}
	return ret
}

// NewDataScript returns an unspendable OP_FALSE OP_RETURN script carrying record
func NewDataScript(record Record) []byte {
	ret := []byte{txscript.OP_FALSE, txscript.OP_RETURN}
	return append(ret, Encode(record)...)
}

// EncodedSize returns the number of bytes NewDataScript would produce
func EncodedSize(record Record) int {
	size := 2
	for _, elem := range record {
		size += PushSize(len(elem))
	}
	return size
}

// PushSize returns the size of a push of dataLen bytes including its opcode
// and length prefix
func PushSize(dataLen int) int {
	switch {
	case dataLen == 0:
		return 1
	case dataLen <= txscript.OP_DATA_75:
		return 1 + dataLen
	case dataLen <= math.MaxUint8:
		return 2 + dataLen
	case dataLen <= math.MaxUint16:
		return 3 + dataLen
	default:
		return 5 + dataLen
	}
}
