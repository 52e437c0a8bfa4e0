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

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/pairmap"
	"github.com/czcorpus/wordsketch/record"
	"github.com/czcorpus/wordsketch/runio"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDiceFormula(t *testing.T) {
	// log2(2*1/(10+10)) + 14 = log2(0.1) + 14
	got := logDice(1, 10, 10)
	want := 14.0 + math.Log2(2.0/20.0)
	assert.InDelta(t, want, got, 1e-9)
}

func TestLogDiceDegenerateCasesYieldZero(t *testing.T) {
	assert.Equal(t, 0.0, logDice(0, 10, 10))
	assert.Equal(t, 0.0, logDice(1, 0, 0))
}

// TestReduceShardAppliesThresholdsAndRanking exercises scenario A's shape
// end to end through ReduceShard: two collocates tying on logDice and
// cooccurrence must come out ordered by ascending lemma bytes.
func TestReduceShardAppliesThresholdsAndRanking(t *testing.T) {
	lx := lexicon.New(4)
	houseID := lx.GetOrAssignID("house", "NN")
	bigID := lx.GetOrAssignID("big", "JJ")
	smallID := lx.GetOrAssignID("small", "JJ")

	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	defer store.Close()
	for _, id := range []uint32{houseID, bigID, smallID} {
		require.NoError(t, store.Append(sentstore.Sentence{
			ID:   uint64(id),
			Toks: []sentstore.Token{{Position: 0, LemmaID: id}},
		}))
	}

	pm := pairmap.New(1, 0)
	pm.AddOccurrence(record.PackPairKey(houseID, bigID), 1)
	pm.AddOccurrence(record.PackPairKey(houseID, smallID), 1)

	runPath := filepath.Join(t.TempDir(), "run0")
	require.NoError(t, runio.WriteRun(runPath, pm.SortedEntries(0)))

	cfg := Config{MinCooccurrence: 1, MinHeadwordFrequency: 1, TopK: 10}
	var entries []record.CollocationEntry
	require.NoError(t, ReduceShard([]string{runPath}, lx, store, cfg, func(e record.CollocationEntry) {
		entries = append(entries, e)
	}))

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "house", e.Headword)
	require.Len(t, e.Collocates, 2)
	assert.Equal(t, "big", e.Collocates[0].Lemma)
	assert.Equal(t, "small", e.Collocates[1].Lemma)
}

func TestReduceShardDropsBelowMinHeadwordFrequency(t *testing.T) {
	lx := lexicon.New(4)
	houseID := lx.GetOrAssignID("house", "NN")
	bigID := lx.GetOrAssignID("big", "JJ")

	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Append(sentstore.Sentence{ID: 1, Toks: []sentstore.Token{{Position: 0, LemmaID: houseID}, {Position: 1, LemmaID: bigID}}}))

	pm := pairmap.New(1, 0)
	pm.AddOccurrence(record.PackPairKey(houseID, bigID), 1)
	runPath := filepath.Join(t.TempDir(), "run0")
	require.NoError(t, runio.WriteRun(runPath, pm.SortedEntries(0)))

	cfg := Config{MinCooccurrence: 1, MinHeadwordFrequency: 100, TopK: 10}
	var entries []record.CollocationEntry
	require.NoError(t, ReduceShard([]string{runPath}, lx, store, cfg, func(e record.CollocationEntry) {
		entries = append(entries, e)
	}))
	assert.Empty(t, entries, "house's frequency of 1 is below min_headword_frequency=100")
}

// TestReduceShardDropsWhenHeadwordAbsentFromStore exercises spec.md's
// "drop if either lemma fails the SentenceStore presence check" rule for
// the headword side specifically: the collocate is well within every
// threshold, but the headword itself was never appended to the store.
func TestReduceShardDropsWhenHeadwordAbsentFromStore(t *testing.T) {
	lx := lexicon.New(4)
	houseID := lx.GetOrAssignID("house", "NN")
	bigID := lx.GetOrAssignID("big", "JJ")

	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Append(sentstore.Sentence{ID: 1, Toks: []sentstore.Token{{Position: 0, LemmaID: bigID}}}))

	pm := pairmap.New(1, 0)
	pm.AddOccurrence(record.PackPairKey(houseID, bigID), 1)
	runPath := filepath.Join(t.TempDir(), "run0")
	require.NoError(t, runio.WriteRun(runPath, pm.SortedEntries(0)))

	cfg := Config{MinCooccurrence: 1, MinHeadwordFrequency: 1, TopK: 10}
	var entries []record.CollocationEntry
	require.NoError(t, ReduceShard([]string{runPath}, lx, store, cfg, func(e record.CollocationEntry) {
		entries = append(entries, e)
	}))
	assert.Empty(t, entries, "house never appears in the SentenceStore, so its whole entry must be dropped")
}

func TestReduceAllWritesSealedFile(t *testing.T) {
	lx := lexicon.New(2)
	houseID := lx.GetOrAssignID("house", "NN")
	bigID := lx.GetOrAssignID("big", "JJ")

	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Append(sentstore.Sentence{ID: 1, Toks: []sentstore.Token{{Position: 0, LemmaID: houseID}, {Position: 1, LemmaID: bigID}}}))

	pm := pairmap.New(2, 0)
	pm.AddOccurrence(record.PackPairKey(houseID, bigID), 1)

	dir := t.TempDir()
	shardPaths := make([][]string, 2)
	for idx := 0; idx < 2; idx++ {
		entries := pm.SortedEntries(idx)
		if len(entries) == 0 {
			continue
		}
		path := filepath.Join(dir, "run")
		require.NoError(t, runio.WriteRun(path, entries))
		shardPaths[idx] = []string{path}
	}

	outPath := filepath.Join(dir, "collocations.bin")
	w, err := colloc.NewWriter(outPath, 5, 10)
	require.NoError(t, err)

	cfg := Config{MinCooccurrence: 1, MinHeadwordFrequency: 1, TopK: 10}
	require.NoError(t, ReduceAll(shardPaths, lx, store, cfg, w, 1000))

	r, err := colloc.Open(outPath)
	require.NoError(t, err)
	defer r.Close()
	entry, found, err := r.Get("house")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "big", entry.Collocates[0].Lemma)
}
