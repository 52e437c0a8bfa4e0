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

package ingest

import (
	"path/filepath"
	"testing"

	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/pairmap"
	"github.com/czcorpus/wordsketch/record"
	"github.com/czcorpus/wordsketch/runio"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceFeed replays a fixed list of sentences, for tests that don't need
// a real vertical-file parser.
type sliceFeed struct {
	sents []RawSentence
	i     int
}

func (f *sliceFeed) Next() (RawSentence, bool, error) {
	if f.i >= len(f.sents) {
		return RawSentence{}, false, nil
	}
	s := f.sents[f.i]
	f.i++
	return s, true, nil
}

func newTestIngester(t *testing.T, window uint32) (*Ingester, *lexicon.Lexicon, *sentstore.Store, *pairmap.PairShardMap) {
	t.Helper()
	lx := lexicon.New(4)
	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	pairs := pairmap.New(4, 1_000_000)
	ing := New(lx, store, pairs, window, t.TempDir())
	return ing, lx, store, pairs
}

// TestMinimalPairEmission is scenario A: a two-token sentence within the
// window must emit exactly one reciprocal pair of occurrences.
func TestMinimalPairEmission(t *testing.T) {
	ing, lx, _, pairs := newTestIngester(t, 2)
	feed := &sliceFeed{sents: []RawSentence{
		{Text: "big house", Toks: []RawToken{
			{Surface: "big", Lemma: "big", Tag: "JJ"},
			{Surface: "house", Lemma: "house", Tag: "NN"},
		}},
	}}

	report, err := ing.Run(feed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.TotalSentences)
	assert.EqualValues(t, 0, report.MalformedSkipped)

	bigID, ok := lx.Lookup("big")
	require.True(t, ok)
	houseID, ok := lx.Lookup("house")
	require.True(t, ok)

	var total int
	for shard := 0; shard < pairs.NumShards(); shard++ {
		for _, path := range report.RunPathsByShard[shard] {
			cur, err := runio.OpenRun(path)
			require.NoError(t, err)
			for cur.Advance() {
				total++
				head, coll := record.UnpackPairKey(cur.Key)
				assert.True(t, (head == bigID && coll == houseID) || (head == houseID && coll == bigID))
				assert.EqualValues(t, 1, cur.Count)
			}
			require.NoError(t, cur.Close())
		}
	}
	assert.Equal(t, 2, total, "both directions of the pair should be recorded")
}

// TestSelfPairSuppressed is scenario B: repeated identical lemmas within
// the window must never produce a self-pair (head == collocate).
func TestSelfPairSuppressed(t *testing.T) {
	ing, lx, _, pairs := newTestIngester(t, 2)
	feed := &sliceFeed{sents: []RawSentence{
		{Text: "very very big", Toks: []RawToken{
			{Surface: "very", Lemma: "very", Tag: "RB"},
			{Surface: "very", Lemma: "very", Tag: "RB"},
			{Surface: "big", Lemma: "big", Tag: "JJ"},
		}},
	}}

	report, err := ing.Run(feed)
	require.NoError(t, err)

	veryID, ok := lx.Lookup("very")
	require.True(t, ok)

	for shard := 0; shard < pairs.NumShards(); shard++ {
		for _, path := range report.RunPathsByShard[shard] {
			cur, err := runio.OpenRun(path)
			require.NoError(t, err)
			for cur.Advance() {
				head, coll := record.UnpackPairKey(cur.Key)
				assert.False(t, head == veryID && coll == veryID, "self-pair must never be emitted")
			}
			require.NoError(t, cur.Close())
		}
	}
}

func TestMalformedSentenceSkippedAndCounted(t *testing.T) {
	ing, _, _, _ := newTestIngester(t, 2)
	feed := &sliceFeed{sents: []RawSentence{
		{Toks: nil},
		{Toks: []RawToken{{Surface: "x", Lemma: "", Tag: "NN"}}},
		{Toks: []RawToken{{Surface: "cat", Lemma: "cat", Tag: "NN"}}},
	}}

	report, err := ing.Run(feed)
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.MalformedSkipped)
	assert.EqualValues(t, 1, report.TotalSentences)
}

func TestDocFrequencyCountedOncePerSentence(t *testing.T) {
	ing, lx, _, _ := newTestIngester(t, 2)
	feed := &sliceFeed{sents: []RawSentence{
		{Toks: []RawToken{
			{Surface: "cat", Lemma: "cat", Tag: "NN"},
			{Surface: "cat", Lemma: "cat", Tag: "NN"},
			{Surface: "sat", Lemma: "sit", Tag: "VB"},
		}},
	}}
	_, err := ing.Run(feed)
	require.NoError(t, err)

	catID, ok := lx.Lookup("cat")
	require.True(t, ok)
	assert.EqualValues(t, 2, lx.Frequency(catID), "token frequency counts every occurrence")
	assert.EqualValues(t, 1, lx.DocFrequency(catID), "doc frequency counts the sentence once")
}

func TestSpillTriggersAtThreshold(t *testing.T) {
	lx := lexicon.New(4)
	store, err := sentstore.Open(filepath.Join(t.TempDir(), "sentstore"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	pairs := pairmap.New(4, 2) // tiny threshold to force a mid-run spill
	ing := New(lx, store, pairs, 2, t.TempDir())

	var sents []RawSentence
	for i := 0; i < 10; i++ {
		sents = append(sents, RawSentence{Toks: []RawToken{
			{Surface: "a", Lemma: "a", Tag: "NN"},
			{Surface: "b", Lemma: "b", Tag: "NN"},
			{Surface: "c", Lemma: "c", Tag: "NN"},
		}})
	}
	report, err := ing.Run(&sliceFeed{sents: sents})
	require.NoError(t, err)

	totalRuns := 0
	for _, paths := range report.RunPathsByShard {
		totalRuns += len(paths)
	}
	assert.Greater(t, totalRuns, 1, "a low threshold should force more than one spill")
}
