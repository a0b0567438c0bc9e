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

package upload

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/chunk"
	"github.com/blinklabs-io/gopolyglot/funding"
	"github.com/blinklabs-io/gopolyglot/script"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
)

// UploadBCAT publishes data as BCAT parts followed by a linker referencing
// them in order. Parts are published one at a time, part i spending funding
// unit i and the linker spending the last unit. With a checkpoint store,
// parts published by an earlier interrupted run are reused
func (u *Uploader) UploadBCAT(ctx context.Context, data []byte, meta Metadata) (string, error) {
	content := data
	var flag string
	if meta.Compress {
		compressed, err := compress(data)
		if err != nil {
			return "", err
		}
		content = compressed
		flag = bitcom.FlagGzip
	}
	capacity, err := chunk.Capacity(u.maxCarrierSize, len(bitcom.PrefixBCATPart), u.safetyMargin)
	if err != nil {
		return "", err
	}
	plan, err := chunk.NewPlan(len(content), capacity)
	if err != nil {
		return "", err
	}
	if plan.NumParts() == 0 {
		return "", bitcom.ErrEmptyLinkerParts
	}
	chunks, err := plan.Split(content)
	if err != nil {
		return "", err
	}
	linker := &bitcom.Linker{
		Info:      meta.Info,
		MediaType: meta.MediaType,
		Encoding:  meta.Encoding,
		Filename:  meta.Filename,
		Flag:      flag,
		Parts:     make([]string, plan.NumParts()),
	}
	checkpoint := &Checkpoint{
		Digest:   contentDigest(content, linker, capacity),
		NumParts: plan.NumParts(),
		Parts:    make([]string, plan.NumParts()),
	}
	if u.checkpoints != nil {
		saved, err := u.checkpoints.Load(checkpoint.Digest)
		if err != nil {
			return "", err
		}
		if saved != nil && saved.NumParts == checkpoint.NumParts {
			checkpoint = saved
		}
	}
	pending := 0
	for _, txId := range checkpoint.Parts {
		if txId == "" {
			pending++
		}
	}
	perUnit := funding.UnitAmount(
		max(partScriptSize(capacity), linkerScriptSize(linker)),
		u.feeRate,
	)
	units, err := u.allocator.Ensure(ctx, pending+1, perUnit)
	if err != nil {
		return "", err
	}
	unitIdx := 0
	for idx, part := range chunks {
		if txId := checkpoint.Parts[idx]; txId != "" {
			u.logger.Info(
				"reusing published BCAT part",
				"component", "upload",
				"part", idx,
				"txid", txId,
			)
			continue
		}
		txId, err := u.publishWith(ctx, bitcom.EncodePart(part), units[unitIdx])
		if err != nil {
			return "", fmt.Errorf("publish part %d of %d: %w", idx+1, len(chunks), err)
		}
		unitIdx++
		checkpoint.Parts[idx] = txId
		if u.checkpoints != nil {
			if err := u.checkpoints.Save(checkpoint); err != nil {
				return "", err
			}
		}
		u.logger.Info(
			"published BCAT part",
			"component", "upload",
			"part", idx,
			"parts", len(chunks),
			"txid", txId,
			"size", len(part),
		)
	}
	copy(linker.Parts, checkpoint.Parts)
	record, err := bitcom.EncodeLinker(linker)
	if err != nil {
		return "", err
	}
	txId, err := u.publishWith(ctx, record, units[unitIdx])
	if err != nil {
		return "", fmt.Errorf("publish linker: %w", err)
	}
	if u.checkpoints != nil {
		if err := u.checkpoints.Remove(checkpoint.Digest); err != nil {
			return "", err
		}
	}
	u.logger.Info(
		"published BCAT linker",
		"component", "upload",
		"txid", txId,
		"parts", len(chunks),
		"size", len(data),
		"flag", flag,
		"filename", meta.Filename,
	)
	return txId, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	return buf.Bytes(), nil
}

// contentDigest identifies an upload by its content, linker metadata and part capacity
func contentDigest(content []byte, linker *bitcom.Linker, capacity int) string {
	h := blake3.New()
	for _, field := range []string{
		linker.Info,
		linker.MediaType,
		linker.Encoding,
		linker.Filename,
		linker.Flag,
		strconv.Itoa(capacity),
	} {
		_, _ = h.Write([]byte(field))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func partScriptSize(capacity int) int {
	return 2 + script.PushSize(len(bitcom.PrefixBCATPart)) + script.PushSize(capacity)
}

func linkerScriptSize(linker *bitcom.Linker) int {
	size := 2 + script.PushSize(len(bitcom.PrefixBCAT))
	for _, field := range []string{
		linker.Info,
		linker.MediaType,
		linker.Encoding,
		linker.Filename,
		linker.Flag,
	} {
		size += script.PushSize(max(len(field), 1))
	}
	return size + len(linker.Parts)*script.PushSize(bitcom.TxIdSize)
}
