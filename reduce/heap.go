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

package reduce

import "container/heap"

// candidate is one surviving (collId, cooc, collFreq, logDice) tuple for
// the headword currently being accumulated.
type candidate struct {
	collID  uint32
	cooc    uint64
	collFreq uint64
	logDice float64
}

// candidateHeap is a bounded min-heap keyed ascending by logDice: the
// weakest candidate sits at the root so a full heap can evict it in
// O(log K) when a stronger candidate arrives, per §4.6's "bounded
// min-heap of size K" rule.
type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].logDice < h[j].logDice }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pushBounded pushes c onto h, evicting the current minimum if h would
// exceed topK entries.
func pushBounded(h *candidateHeap, c candidate, topK int) {
	if topK <= 0 {
		return
	}
	if h.Len() < topK {
		heap.Push(h, c)
		return
	}
	if c.logDice > (*h)[0].logDice {
		heap.Pop(h)
		heap.Push(h, c)
	}
}
