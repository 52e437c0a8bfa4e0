// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reduce implements the §4.6 Reducer: a k-way merge of each
// shard's sorted runs, grouped by headword, with a bounded top-K
// min-heap keyed by logDice feeding the sealed collocations file.
// Generalizes the teacher's storage/read.go logDice computation
// (CalculateMeasures) from a live BadgerDB scan to an external merge over
// spilled runs, and its storage/rrf.go sort/merge idioms to the final
// deterministic tie-break ordering.
package reduce

import (
	"bytes"
	"container/heap"
	"math"
	"sort"
	"sync"

	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/record"
	"github.com/czcorpus/wordsketch/runio"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/rs/zerolog/log"
)

// Config bounds candidate survival and output size, per §4.6.
type Config struct {
	MinCooccurrence     uint64
	MinHeadwordFrequency uint64
	TopK                int
}

// DefaultConfig matches spec.md's stated defaults.
func DefaultConfig() Config {
	return Config{MinCooccurrence: 2, MinHeadwordFrequency: 10, TopK: 10}
}

// logDice computes clamp(log2(2*cooc/(headFreq+collFreq))+14, 0, 14),
// returning 0 (meaning "do not emit") if the denominator is degenerate.
func logDice(cooc, headFreq, collFreq uint64) float64 {
	denom := headFreq + collFreq
	if denom == 0 || cooc == 0 {
		return 0
	}
	v := 14.0 + math.Log2(2*float64(cooc)/float64(denom))
	if v < 0 {
		return 0
	}
	if v > 14 {
		return 14
	}
	return v
}

// ReduceShard merges every sorted run belonging to one shard and emits
// one record.CollocationEntry per surviving headword via emit. Runs
// within a shard are already partitioned by headId (the shard is a
// function of headId alone), so a single ascending merge visits every
// headword's records contiguously.
func ReduceShard(runPaths []string, lx *lexicon.Lexicon, store *sentstore.Store, cfg Config, emit func(record.CollocationEntry)) error {
	if len(runPaths) == 0 {
		return nil
	}
	merger, err := runio.NewMerger(runPaths)
	if err != nil {
		return err
	}
	defer merger.Close()

	var curHead uint32
	var curHeadSet bool
	var curHeadPresent bool
	var h candidateHeap

	flush := func() {
		if !curHeadSet || h.Len() == 0 {
			return
		}
		entry := buildEntry(curHead, h, lx)
		if len(entry.Collocates) > 0 {
			emit(entry)
		}
		h = nil
	}

	for {
		rec, ok := merger.Next()
		if !ok {
			break
		}
		headID, collID := record.UnpackPairKey(rec.Key)
		if !curHeadSet || headID != curHead {
			flush()
			curHead = headID
			curHeadSet = true
			// Runs within a shard are partitioned by headId, so every
			// record for this head is visited contiguously from here:
			// look up presence once and reuse it for the whole run.
			present, err := store.HasAny(headID)
			if err != nil {
				return err
			}
			curHeadPresent = present
		}
		if !curHeadPresent {
			continue
		}

		if rec.Count < uint32(cfg.MinCooccurrence) {
			continue
		}
		headFreq := lx.Frequency(headID)
		if headFreq < cfg.MinHeadwordFrequency {
			continue
		}
		if lx.IsOversized(headID) || lx.IsOversized(collID) {
			continue
		}
		present, err := store.HasAny(collID)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		collFreq := lx.Frequency(collID)
		ld := logDice(uint64(rec.Count), headFreq, collFreq)
		if ld <= 0 {
			continue
		}
		pushBounded(&h, candidate{collID: collID, cooc: uint64(rec.Count), collFreq: collFreq, logDice: ld}, cfg.TopK)
	}
	flush()
	return nil
}

// buildEntry drains h (destructively) into a record.CollocationEntry,
// sorted per §3's tie-break: logDice desc, then cooccurrence desc, then
// lemma bytes asc.
func buildEntry(headID uint32, h candidateHeap, lx *lexicon.Lexicon) record.CollocationEntry {
	lemma, _ := lx.Lemma(headID)
	collocates := make([]record.CollocateRecord, 0, h.Len())
	for h.Len() > 0 {
		c := heap.Pop(&h).(candidate)
		collLemma, ok := lx.Lemma(c.collID)
		if !ok {
			continue
		}
		collocates = append(collocates, record.CollocateRecord{
			Lemma:              collLemma,
			MostFrequentPOS:    string(lx.MostFrequentPOS(c.collID)),
			Cooccurrence:       c.cooc,
			CollocateFrequency: c.collFreq,
			LogDice:            float32(c.logDice),
		})
	}
	sort.Slice(collocates, func(i, j int) bool {
		if collocates[i].LogDice != collocates[j].LogDice {
			return collocates[i].LogDice > collocates[j].LogDice
		}
		if collocates[i].Cooccurrence != collocates[j].Cooccurrence {
			return collocates[i].Cooccurrence > collocates[j].Cooccurrence
		}
		return bytes.Compare([]byte(collocates[i].Lemma), []byte(collocates[j].Lemma)) < 0
	})
	return record.CollocationEntry{
		Headword:          lemma,
		HeadwordFrequency: lx.Frequency(headID),
		Collocates:        collocates,
	}
}

// ReduceAll runs ReduceShard over every shard concurrently (matching
// §5's "parallel across shards, sequential within a shard"), collects
// every shard's entries, and only then writes them to w in a fixed
// order (ascending headword bytes). Writing must happen in a
// goroutine-scheduling-independent order: colloc.Writer.WriteEntry
// appends at the writer's current offset and records that offset in
// the file's offset table, so writing in whatever order shards happen
// to finish would make the physical byte layout of collocations.bin
// depend on scheduling, breaking the "same inputs, same config, same
// bytes" rebuild guarantee.
func ReduceAll(shardRunPaths [][]string, lx *lexicon.Lexicon, store *sentstore.Store, cfg Config, w *colloc.Writer, totalCorpusTokens uint64) error {
	results := make([][]record.CollocationEntry, len(shardRunPaths))
	errs := make([]error, len(shardRunPaths))
	var wg sync.WaitGroup

	for shardIdx, paths := range shardRunPaths {
		wg.Add(1)
		go func(idx int, paths []string) {
			defer wg.Done()
			var shardEntries []record.CollocationEntry
			if err := ReduceShard(paths, lx, store, cfg, func(e record.CollocationEntry) {
				shardEntries = append(shardEntries, e)
			}); err != nil {
				log.Error().Int("shard", idx).Err(err).Msg("shard reduce failed")
				errs[idx] = err
				return
			}
			results[idx] = shardEntries
		}(shardIdx, paths)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	var all []record.CollocationEntry
	for _, shardEntries := range results {
		all = append(all, shardEntries...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Headword < all[j].Headword
	})

	for _, e := range all {
		if err := w.WriteEntry(e); err != nil {
			return err
		}
	}
	return w.Finalize(totalCorpusTokens)
}
