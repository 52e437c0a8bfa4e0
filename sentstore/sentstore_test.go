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

package sentstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sentstore")
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndGet(t *testing.T) {
	s := openTestStore(t)
	sent := Sentence{
		ID:   1,
		Text: "the big house .",
		Toks: []Token{
			{Position: 0, Surface: "the", Lemma: "the", Tag: "DT", LemmaID: 1},
			{Position: 1, Surface: "big", Lemma: "big", Tag: "JJ", LemmaID: 2},
			{Position: 2, Surface: "house", Lemma: "house", Tag: "NN", LemmaID: 3},
			{Position: 3, Surface: ".", Lemma: ".", Tag: "PUNCT", LemmaID: 4},
		},
	}
	require.NoError(t, s.Append(sent))

	got, found, err := s.Get(1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sent.Text, got.Text)
	assert.Len(t, got.Toks, 4)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Get(999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPositionalSearch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append(Sentence{
		ID: 1,
		Toks: []Token{
			{Position: 0, Lemma: "house", Tag: "NN", LemmaID: 3},
		},
	}))
	require.NoError(t, s.Append(Sentence{
		ID: 2,
		Toks: []Token{
			{Position: 2, Lemma: "house", Tag: "NN", LemmaID: 3},
		},
	}))
	matches, err := s.PositionalSearch(3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestHasAny(t *testing.T) {
	s := openTestStore(t)
	ok, err := s.HasAny(42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Append(Sentence{
		ID:   1,
		Toks: []Token{{Position: 0, Lemma: "house", Tag: "NN", LemmaID: 42}},
	}))
	ok, err = s.HasAny(42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSpanSearchWithinWindow(t *testing.T) {
	s := openTestStore(t)
	// a/DT b/NN c/NN d/NN e/NN f/NN g/NN, window=2: (b,g) dist 5 not emitted, (b,d) dist 2 emitted
	toks := []Token{
		{Position: 0, Lemma: "a", LemmaID: 1, Tag: "DT"},
		{Position: 1, Lemma: "b", LemmaID: 2, Tag: "NN"},
		{Position: 2, Lemma: "c", LemmaID: 3, Tag: "NN"},
		{Position: 3, Lemma: "d", LemmaID: 4, Tag: "NN"},
		{Position: 4, Lemma: "e", LemmaID: 5, Tag: "NN"},
		{Position: 5, Lemma: "f", LemmaID: 6, Tag: "NN"},
		{Position: 6, Lemma: "g", LemmaID: 7, Tag: "NN"},
	}
	require.NoError(t, s.Append(Sentence{ID: 1, Toks: toks}))

	bg, err := s.SpanSearch(2, 7, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, bg)

	bd, err := s.SpanSearch(2, 4, 2, 0)
	require.NoError(t, err)
	require.Len(t, bd, 1)
	assert.Equal(t, uint64(1), bd[0].SentenceID)
}

func TestTagPositionalSearchFiltersByPOS(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append(Sentence{
		ID: 1,
		Toks: []Token{
			{Position: 0, Lemma: "big", LemmaID: 9, Tag: "JJ"},
		},
	}))
	require.NoError(t, s.Append(Sentence{
		ID: 2,
		Toks: []Token{
			{Position: 0, Lemma: "big", LemmaID: 9, Tag: "RB"},
		},
	}))

	adjMatches, err := s.TagPositionalSearch(9, "adj")
	require.NoError(t, err)
	assert.Len(t, adjMatches, 1)

	advMatches, err := s.TagPositionalSearch(9, "adv")
	require.NoError(t, err)
	assert.Len(t, advMatches, 1)
}
