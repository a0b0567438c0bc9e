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

package bench

import (
	"testing"

	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/chunk"
	"github.com/blinklabs-io/gopolyglot/script"
)

var benchSink any

// BenchmarkPushData benchmarks minimal pushdata framing across push sizes.
func BenchmarkPushData(b *testing.B) {
	for _, name := range ContentSizeNames() {
		fixture := MustLoadContentFixture(name)
		b.Run("Size_"+name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(fixture.Size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				benchSink = script.PushData(fixture.Content)
			}
		})
	}
}

// BenchmarkScriptDecode benchmarks walking a B:// data script.
func BenchmarkScriptDecode(b *testing.B) {
	for _, name := range ContentSizeNames() {
		fixture := MustLoadContentFixture(name)
		b.Run("Size_"+name, func(b *testing.B) {
			if _, err := script.DecodeStrict(fixture.BScript); err != nil {
				b.Fatalf("DecodeStrict failed for %s: %v", name, err)
			}
			b.ReportAllocs()
			b.SetBytes(int64(len(fixture.BScript)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				benchSink = script.Decode(fixture.BScript)
			}
		})
	}
}

// BenchmarkDecodeB benchmarks B:// record decoding from a raw script.
func BenchmarkDecodeB(b *testing.B) {
	for _, name := range ContentSizeNames() {
		fixture := MustLoadContentFixture(name)
		b.Run("Size_"+name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				blob, err := bitcom.DecodeB(script.Decode(fixture.BScript))
				if err != nil {
					b.Fatal(err)
				}
				benchSink = blob
			}
		})
	}
}

// BenchmarkIdentify benchmarks protocol detection over part and linker
// records.
func BenchmarkIdentify(b *testing.B) {
	fixture := MustLoadContentFixture("multi")
	records := make([]script.Record, 0, len(fixture.PartScripts)+1)
	for _, partScript := range fixture.PartScripts {
		records = append(records, script.Decode(partScript))
	}
	records = append(records, script.Decode(fixture.LinkerScript))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, record := range records {
			kind, _ := bitcom.DefaultRegistry.Identify(record)
			benchSink = kind
		}
	}
}

// BenchmarkPlanSplit benchmarks chunk planning and content splitting.
func BenchmarkPlanSplit(b *testing.B) {
	for _, name := range ContentSizeNames() {
		fixture := MustLoadContentFixture(name)
		b.Run("Size_"+name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				plan, err := chunk.NewPlan(fixture.Size, fixture.Plan.Capacity)
				if err != nil {
					b.Fatal(err)
				}
				chunks, err := plan.Split(fixture.Content)
				if err != nil {
					b.Fatal(err)
				}
				benchSink = chunks
			}
		})
	}
}

// BenchmarkReassemble benchmarks decoding and joining every BCAT part.
func BenchmarkReassemble(b *testing.B) {
	fixture := MustLoadContentFixture("multi")
	b.ReportAllocs()
	b.SetBytes(int64(fixture.Size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := make([]byte, 0, fixture.Size)
		for _, partScript := range fixture.PartScripts {
			part, err := bitcom.DecodePart(script.Decode(partScript))
			if err != nil {
				b.Fatal(err)
			}
			out = append(out, part...)
		}
		benchSink = out
	}
}
