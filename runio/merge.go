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

package runio

import "container/heap"

// cursorHeap is a min-heap of open RunCursors ordered by their current Key,
// the element type container/heap.Interface operates on during the merge.
type cursorHeap []*RunCursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].Key < h[j].Key }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*RunCursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merger performs a k-way merge over a set of sorted runs, coalescing
// duplicate keys (summing counts, averaging distances) across runs, and
// yielding records in ascending key order. This is the shared primitive
// the Reducer (§4.6) drives one shard at a time.
type Merger struct {
	h        cursorHeap
	cursors  []*RunCursor
}

// NewMerger opens cursors over every run path in paths and prepares a
// min-heap merge keyed ascending by packed pair key.
func NewMerger(paths []string) (*Merger, error) {
	m := &Merger{}
	for _, p := range paths {
		c, err := OpenRun(p)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.cursors = append(m.cursors, c)
		if c.Advance() {
			m.h = append(m.h, c)
		}
	}
	heap.Init(&m.h)
	return m, nil
}

// MergedRecord is one coalesced (key, count, avgDist) triple with
// duplicates across runs already summed/averaged.
type MergedRecord struct {
	Key     uint64
	Count   uint32
	AvgDist float64
}

// Next pops the minimum key, coalescing every other cursor currently
// holding the same key (summing counts, weighting the average distance by
// each contributor's count), and returns false once all cursors are
// exhausted.
func (m *Merger) Next() (MergedRecord, bool) {
	if m.h.Len() == 0 {
		return MergedRecord{}, false
	}
	top := heap.Pop(&m.h).(*RunCursor)
	rec := MergedRecord{Key: top.Key, Count: top.Count, AvgDist: top.AvgDist}
	m.advanceAndPush(top)

	for m.h.Len() > 0 && m.h[0].Key == rec.Key {
		next := heap.Pop(&m.h).(*RunCursor)
		totalCount := uint64(rec.Count) + uint64(next.Count)
		if totalCount > 0 {
			rec.AvgDist = (rec.AvgDist*float64(rec.Count) + next.AvgDist*float64(next.Count)) / float64(totalCount)
		}
		rec.Count = uint32(totalCount)
		m.advanceAndPush(next)
	}
	return rec, true
}

func (m *Merger) advanceAndPush(c *RunCursor) {
	if c.Advance() {
		heap.Push(&m.h, c)
	}
}

// Close closes every underlying cursor's file handle.
func (m *Merger) Close() error {
	var firstErr error
	for _, c := range m.cursors {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
