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

// Package lexicon assigns and tracks small dense integer ids for corpus
// lemmas, alongside their frequency and part-of-speech histogram. It
// generalizes the source's tokenIDSequence (a single global cache, safe
// only because import ran single-threaded) to a sharded, concurrent
// assigner usable from multiple ingest workers.
package lexicon

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/czcorpus/wordsketch/record"
	"github.com/rs/zerolog/log"
)

// maxLemmaBytes and maxTagBytes bound what a lexicon entry can carry on
// disk; lemmas/tags beyond this are still assigned an id (so the pipeline
// never stalls on pathological input) but are excluded from precomputed
// collocates per §4.1/§4.7.
const (
	maxLemmaBytes = 255
	maxTagBytes   = 255
)

// shard is one stripe of the lexicon: its own lock, its own slice of the
// lemma->id map, and the per-id bookkeeping for ids it assigned.
type shard struct {
	mu       sync.Mutex
	byLemma  map[string]uint32
	freq     map[uint32]uint64
	docFreq  map[uint32]uint64
	posHisto map[uint32]map[record.POSGroup]uint64
	oversize map[uint32]bool // id was assigned but lemma/tag exceeds on-disk width
}

// Lexicon is the concurrent id-assignment table described in §4.1. It is
// sharded by a hash of the lemma string so that unrelated lemmas never
// contend on the same lock, independent of the PairShardMap's sharding
// (which is keyed by assigned id, not by lemma hash).
type Lexicon struct {
	shards []shard

	// idToLemma maps an assigned id back to its lemma (the owning shard
	// is found by re-hashing that lemma), guarded by idMu since it is
	// written exactly once per id but read from any shard.
	idMu      sync.RWMutex
	idToLemma map[uint32]string

	nextID uint32 // guarded by idMu
}

// New creates a Lexicon with numShards stripes (must be a power of two).
func New(numShards int) *Lexicon {
	if numShards <= 0 || numShards&(numShards-1) != 0 {
		panic(fmt.Sprintf("lexicon: numShards must be a power of two, got %d", numShards))
	}
	lx := &Lexicon{
		shards:    make([]shard, numShards),
		idToLemma: make(map[uint32]string),
	}
	for i := range lx.shards {
		lx.shards[i].byLemma = make(map[string]uint32)
		lx.shards[i].freq = make(map[uint32]uint64)
		lx.shards[i].docFreq = make(map[uint32]uint64)
		lx.shards[i].posHisto = make(map[uint32]map[record.POSGroup]uint64)
		lx.shards[i].oversize = make(map[uint32]bool)
	}
	return lx
}

func (lx *Lexicon) shardFor(lemma string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(lemma))
	return &lx.shards[h.Sum32()&uint32(len(lx.shards)-1)]
}

// GetOrAssignID returns the id for lemma, assigning a fresh one if this is
// the first time it is seen, and updates the frequency and POS histogram
// for tag in the same critical section. Ids are never reused and are
// assigned in a single global sequence guarded by idMu, independent of
// which shard owns the lemma.
func (lx *Lexicon) GetOrAssignID(lemma, tag string) uint32 {
	sh := lx.shardFor(lemma)
	sh.mu.Lock()
	id, ok := sh.byLemma[lemma]
	if !ok {
		id = lx.allocateID()
		sh.byLemma[lemma] = id
		if len([]byte(lemma)) > maxLemmaBytes {
			sh.oversize[id] = true
			log.Warn().Str("lemma", lemma).Msg("lemma exceeds on-disk width, excluded from precomputed collocates")
		}
		lx.idMu.Lock()
		lx.idToLemma[id] = lemma
		lx.idMu.Unlock()
	}
	sh.freq[id]++
	if len([]byte(tag)) > maxTagBytes {
		sh.oversize[id] = true
	}
	histo := sh.posHisto[id]
	if histo == nil {
		histo = make(map[record.POSGroup]uint64)
		sh.posHisto[id] = histo
	}
	histo[record.ClassifyPOS(tag)]++
	sh.mu.Unlock()
	return id
}

// allocateID hands out the next id in the dense [0, N) sequence described
// in §4.1: the first lemma ever assigned gets id 0.
func (lx *Lexicon) allocateID() uint32 {
	lx.idMu.Lock()
	id := lx.nextID
	lx.nextID++
	lx.idMu.Unlock()
	return id
}

// IncrementDocFrequency records one more sentence containing id. The
// ingester calls this once per distinct lemma id within a sentence (not
// once per token occurrence), so DocFrequency counts sentences, not
// tokens.
func (lx *Lexicon) IncrementDocFrequency(id uint32) {
	sh, ok := lx.shardOfID(id)
	if !ok {
		return
	}
	sh.mu.Lock()
	sh.docFreq[id]++
	sh.mu.Unlock()
}

// DocFrequency returns the number of sentences id was seen in.
func (lx *Lexicon) DocFrequency(id uint32) uint64 {
	sh, ok := lx.shardOfID(id)
	if !ok {
		return 0
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.docFreq[id]
}

// Lookup returns the id already assigned to lemma, if any.
func (lx *Lexicon) Lookup(lemma string) (uint32, bool) {
	sh := lx.shardFor(lemma)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	id, ok := sh.byLemma[lemma]
	return id, ok
}

// Lemma returns the lemma string registered under id, or "" if unknown.
func (lx *Lexicon) Lemma(id uint32) (string, bool) {
	lx.idMu.RLock()
	defer lx.idMu.RUnlock()
	l, ok := lx.idToLemma[id]
	return l, ok
}

// shardOfID finds the shard owning id by re-hashing its lemma. Since ids
// are looked up far less often than they are assigned (once per distinct
// lemma vs. once per token), this indirection is cheap relative to the
// alternative of a second global lock around every frequency update.
func (lx *Lexicon) shardOfID(id uint32) (*shard, bool) {
	lemma, ok := lx.Lemma(id)
	if !ok {
		return nil, false
	}
	return lx.shardFor(lemma), true
}

// Frequency returns the total token frequency for id, i.e. the sum of its
// POS histogram values (invariant 1 in the testable properties).
func (lx *Lexicon) Frequency(id uint32) uint64 {
	sh, ok := lx.shardOfID(id)
	if !ok {
		return 0
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.freq[id]
}

// PosHistogram returns a copy of the POS frequency histogram for id.
func (lx *Lexicon) PosHistogram(id uint32) map[record.POSGroup]uint64 {
	sh, ok := lx.shardOfID(id)
	if !ok {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	src := sh.posHisto[id]
	if src == nil {
		return nil
	}
	out := make(map[record.POSGroup]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// MostFrequentPOS returns the POS group with the highest count for id,
// used when writing a collocate's most_frequent_pos field.
func (lx *Lexicon) MostFrequentPOS(id uint32) record.POSGroup {
	histo := lx.PosHistogram(id)
	var best record.POSGroup = record.GroupOther
	var bestCount uint64
	for grp, count := range histo {
		if count > bestCount || (count == bestCount && grp < best) {
			best, bestCount = grp, count
		}
	}
	return best
}

// IsOversized reports whether id's lemma or any tag it was seen with
// exceeds the on-disk width, meaning it must be excluded from precomputed
// collocates even though it remains addressable in the lexicon.
func (lx *Lexicon) IsOversized(id uint32) bool {
	sh, ok := lx.shardOfID(id)
	if !ok {
		return false
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.oversize[id]
}

// Size returns the number of distinct lemmas assigned an id so far.
func (lx *Lexicon) Size() int {
	lx.idMu.RLock()
	defer lx.idMu.RUnlock()
	return len(lx.idToLemma)
}

// TotalTokens returns the sum of all per-id frequencies, i.e. the total
// number of tokens ingested (used as the stats.bin / collocations.bin
// total_corpus_tokens field).
func (lx *Lexicon) TotalTokens() uint64 {
	var total uint64
	for i := range lx.shards {
		sh := &lx.shards[i]
		sh.mu.Lock()
		for _, f := range sh.freq {
			total += f
		}
		sh.mu.Unlock()
	}
	return total
}
