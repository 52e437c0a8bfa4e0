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

// Package pairmap implements the sharded in-memory accumulator described
// in §4.3: packed (headId, collId) keys mapped to running counts, sharded
// by headId so every shard's spill is already partitioned by headword.
// Generalizes the source's resgroup.go grouping maps (keyed by a binary
// GroupingKey string) to a fixed u64->u32 map keyed by the pair encoding
// in record.PackPairKey.
package pairmap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/czcorpus/wordsketch/record"
)

// Shard is one stripe of the PairShardMap: its own lock and its own slice
// of the accumulated counts, plus average-distance bookkeeping.
type Shard struct {
	mu     sync.Mutex
	counts map[uint64]uint32
	dist   map[uint64]float64 // running average distance, updated incrementally
}

// PairShardMap accumulates co-occurrence counts across S shards, S a power
// of two. add_to(key, 1) (here: AddOccurrence) is the only mutator,
// matching §4.3's stated contract.
type PairShardMap struct {
	shards    []Shard
	threshold int
}

// New creates a PairShardMap with numShards shards (must be a power of
// two) and a per-shard spill threshold.
func New(numShards, spillThreshold int) *PairShardMap {
	if numShards <= 0 || numShards&(numShards-1) != 0 {
		panic(fmt.Sprintf("pairmap: numShards must be a power of two, got %d", numShards))
	}
	pm := &PairShardMap{
		shards:    make([]Shard, numShards),
		threshold: spillThreshold,
	}
	for i := range pm.shards {
		pm.shards[i].counts = make(map[uint64]uint32)
		pm.shards[i].dist = make(map[uint64]float64)
	}
	return pm
}

// NumShards returns the configured shard count.
func (pm *PairShardMap) NumShards() int {
	return len(pm.shards)
}

// AddOccurrence records one more co-occurrence of the pair packed into
// key, observed at distance dist, in the shard selected by the key's head
// id. It returns true if the owning shard's entry count reached the spill
// threshold as a result, signaling the caller (the Ingester) to spill all
// shards together per §4.3's global-spill invariant.
func (pm *PairShardMap) AddOccurrence(key uint64, dist float64) (thresholdReached bool) {
	idx := record.ShardOf(key, len(pm.shards))
	sh := &pm.shards[idx]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	n, existed := sh.counts[key]
	n++
	sh.counts[key] = n
	if existed {
		prevAvg := sh.dist[key]
		sh.dist[key] = prevAvg + (dist-prevAvg)/float64(n)
	} else {
		sh.dist[key] = dist
	}
	return pm.threshold > 0 && len(sh.counts) >= pm.threshold
}

// SortedEntries returns shard idx's accumulated (key, count, avgDist)
// triples sorted ascending by key, ready to be written as one sorted run.
func (pm *PairShardMap) SortedEntries(idx int) []Entry {
	sh := &pm.shards[idx]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entries := make([]Entry, 0, len(sh.counts))
	for k, c := range sh.counts {
		entries = append(entries, Entry{Key: k, Count: c, AvgDist: sh.dist[k]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Clear empties shard idx, e.g. after it has been spilled to a sorted run.
func (pm *PairShardMap) Clear(idx int) {
	sh := &pm.shards[idx]
	sh.mu.Lock()
	sh.counts = make(map[uint64]uint32)
	sh.dist = make(map[uint64]float64)
	sh.mu.Unlock()
}

// ShardSize returns the current entry count of shard idx.
func (pm *PairShardMap) ShardSize(idx int) int {
	sh := &pm.shards[idx]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.counts)
}

// Entry is one accumulated pair ready to be spilled.
type Entry struct {
	Key     uint64
	Count   uint32
	AvgDist float64
}
