// Copyright 2026 Blink Labs Software
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

// Package bench provides benchmark fixtures for the script codec, the bitcom
// codecs and the chunk planner.
package bench

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/chunk"
	"github.com/blinklabs-io/gopolyglot/internal/test"
	"github.com/blinklabs-io/gopolyglot/script"
)

// ContentFixture contains pre-built content and its encoded data scripts.
type ContentFixture struct {
	Name    string
	Size    int
	Content []byte
	// BScript is the single-transaction B:// data script for Content
	BScript []byte
	// Plan is the BCAT chunk plan for Content at the default carrier size
	Plan *chunk.Plan
	// PartScripts holds one BCAT part data script per planned range
	PartScripts [][]byte
	// LinkerScript is the BCAT linker data script referencing fake part ids
	LinkerScript []byte
}

// LoadContentFixture builds a fixture for the named content size.
// The name should be one of the values returned by ContentSizeNames.
func LoadContentFixture(name string) (*ContentFixture, error) {
	size, err := ContentSizeFromName(name)
	if err != nil {
		return nil, err
	}
	content := test.Payload(size)
	capacity, err := chunk.Capacity(
		chunk.DefaultMaxCarrierSize,
		len(bitcom.PrefixBCATPart),
		chunk.DefaultSafetyMargin,
	)
	if err != nil {
		return nil, err
	}
	plan, err := chunk.NewPlan(size, capacity)
	if err != nil {
		return nil, fmt.Errorf("plan %s content: %w", name, err)
	}
	chunks, err := plan.Split(content)
	if err != nil {
		return nil, err
	}
	ret := &ContentFixture{
		Name:    name,
		Size:    size,
		Content: content,
		BScript: script.NewDataScript(
			bitcom.EncodeB(content, "application/octet-stream", "binary", name+".bin"),
		),
		Plan:        plan,
		PartScripts: make([][]byte, 0, len(chunks)),
	}
	linker := &bitcom.Linker{
		Info:      "bench",
		MediaType: "application/octet-stream",
		Encoding:  "binary",
		Filename:  name + ".bin",
		Flag:      " ",
	}
	for idx, c := range chunks {
		ret.PartScripts = append(
			ret.PartScripts,
			script.NewDataScript(bitcom.EncodePart(c)),
		)
		linker.Parts = append(linker.Parts, test.FakeTxId(idx+1))
	}
	linkerRecord, err := bitcom.EncodeLinker(linker)
	if err != nil {
		return nil, fmt.Errorf("encode %s linker: %w", name, err)
	}
	ret.LinkerScript = script.NewDataScript(linkerRecord)
	return ret, nil
}

// MustLoadContentFixture loads a content fixture and panics on error.
// Use this in benchmark setup code.
func MustLoadContentFixture(name string) *ContentFixture {
	fixture, err := LoadContentFixture(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load %s content fixture: %v", name, err))
	}
	return fixture
}

// ContentSizeFromName returns the content size in bytes for the given name.
func ContentSizeFromName(name string) (int, error) {
	switch strings.ToLower(name) {
	case "tiny":
		return 64, nil
	case "small":
		return 4 * 1024, nil
	case "single":
		return 80_000, nil
	case "multi":
		return 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("unknown content size: %s", name)
	}
}

// ContentSizeNames returns the list of fixture names for benchmarking.
func ContentSizeNames() []string {
	return []string{
		"tiny",
		"small",
		"single",
		"multi",
	}
}
