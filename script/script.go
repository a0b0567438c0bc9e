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

// Package script decodes and encodes output scripts that consist purely of
// data pushes.
//
// Only literal push opcodes and a handful of no-op opcodes are understood.
// Anything else makes the script "not data-only", which Decode reports as an
// empty Record. A script is never partially decoded.
package script

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// opcode 0x80 is treated as a no-op by data carriers, matching OP_RESERVED handling
const opReservedCarrier = 0x80

var ErrNotDataOnly = errors.New("script is not data-only")

// Record is the ordered sequence of data elements pushed by a script
type Record [][]byte

// String returns element i as a string, or an empty string if it does not exist
func (r Record) String(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return string(r[i])
}

// Decode walks script as a sequence of data pushes. It returns an empty
// Record when the script contains an opcode that is not a data push or no-op
func Decode(script []byte) Record {
	ret, err := DecodeStrict(script)
	if err != nil {
		return Record{}
	}
	return ret
}

// DecodeHex decodes a hex-encoded script
func DecodeHex(scriptHex string) (Record, error) {
	script, err := hex.DecodeString(scriptHex)
	if err != nil {
		return nil, fmt.Errorf("decode script hex: %w", err)
	}
	return Decode(script), nil
}

// DecodeStrict is like Decode but returns ErrNotDataOnly instead of an empty
// Record, so callers can tell a non-data script from one that pushes nothing
func DecodeStrict(script []byte) (Record, error) {
	ret := Record{}
	offset := 0
	for offset < len(script) {
		opcode := script[offset]
		offset++
		switch {
		case opcode == txscript.OP_0:
			ret = append(ret, []byte{})
		case opcode <= txscript.OP_DATA_75:
			data, next := readPush(script, offset, int(opcode))
			ret = append(ret, data)
			offset = next
		case opcode == txscript.OP_PUSHDATA1,
			opcode == txscript.OP_PUSHDATA2,
			opcode == txscript.OP_PUSHDATA4:
			length, lenSize, ok := readPushLength(script, offset, opcode)
			if !ok {
				return nil, ErrNotDataOnly
			}
			data, next := readPush(script, offset+lenSize, length)
			ret = append(ret, data)
			offset = next
		case opcode == txscript.OP_1NEGATE:
			// -1 in two's complement
			ret = append(ret, []byte{0xff})
		case opcode >= txscript.OP_1 && opcode <= txscript.OP_16:
			ret = append(ret, []byte{opcode - (txscript.OP_1 - 1)})
		case opcode == txscript.OP_NOP,
			opcode == txscript.OP_RETURN,
			opcode == opReservedCarrier,
			opcode == txscript.OP_NOP1,
			opcode >= txscript.OP_NOP4 && opcode <= txscript.OP_NOP10:
			continue
		default:
			return nil, ErrNotDataOnly
		}
	}
	return ret, nil
}

func readPushLength(script []byte, offset int, opcode byte) (int, int, bool) {
	var lenSize int
	switch opcode {
	case txscript.OP_PUSHDATA1:
		lenSize = 1
	case txscript.OP_PUSHDATA2:
		lenSize = 2
	default:
		lenSize = 4
	}
	if offset+lenSize > len(script) {
		return 0, 0, false
	}
	lenBytes := script[offset : offset+lenSize]
	switch lenSize {
	case 1:
		return int(lenBytes[0]), lenSize, true
	case 2:
		return int(binary.LittleEndian.Uint16(lenBytes)), lenSize, true
	default:
		return int(binary.LittleEndian.Uint32(lenBytes)), lenSize, true
	}
}

// readPush returns up to length bytes starting at offset. A length that runs
// past the end of the script is clamped to the remaining bytes
func readPush(script []byte, offset int, length int) ([]byte, int) {
	end := offset + length
	if end > len(script) || end < offset {
		end = len(script)
	}
	return script[offset:end], end
}
