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
	"fmt"
	"path/filepath"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/pairmap"
	"github.com/czcorpus/wordsketch/record"
	"github.com/czcorpus/wordsketch/runio"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/rs/zerolog/log"
)

// state is the Ingester's own lifecycle, per §4.5: Idle before Run is
// called, Accumulating while reading sentences, Spilling for the
// duration of a global spill, Finalized once the feed is exhausted and
// the closing spill has completed.
type state int

const (
	stateIdle state = iota
	stateAccumulating
	stateSpilling
	stateFinalized
)

// BuildReport summarizes one Run call: counts for the build manifest and
// the sorted-run paths the Reducer will merge, one slice per shard.
type BuildReport struct {
	TotalSentences   uint64
	TotalTokens      uint64
	MalformedSkipped uint64
	RunPathsByShard  [][]string
}

// Ingester turns a SentenceFeed into lexicon entries, a SentenceStore, and
// spilled sorted runs of windowed co-occurrence counts, per §4.5. It owns
// no goroutines of its own; Run is meant to be driven by a single
// goroutine, matching §5's "SentenceStore writer is single-threaded"
// requirement (the Lexicon and PairShardMap happen to also tolerate
// concurrent callers, but Run does not rely on that).
type Ingester struct {
	Lexicon *lexicon.Lexicon
	Store   *sentstore.Store
	Pairs   *pairmap.PairShardMap
	Window  uint32
	RunDir  string

	state          state
	sentenceID     uint64
	spillSeq       int
	runPathsByShard [][]string
}

// New creates an Ingester wired to the given components. window is the
// symmetric co-occurrence span (spec.md's `w`); runDir is where spilled
// sorted runs are written, one file per shard per spill.
func New(lx *lexicon.Lexicon, store *sentstore.Store, pairs *pairmap.PairShardMap, window uint32, runDir string) *Ingester {
	return &Ingester{
		Lexicon:         lx,
		Store:           store,
		Pairs:           pairs,
		Window:          window,
		RunDir:          runDir,
		state:           stateIdle,
		runPathsByShard: make([][]string, pairs.NumShards()),
	}
}

// Run consumes feed to exhaustion, ingesting every well-formed sentence
// and spilling the PairShardMap whenever any shard crosses its threshold.
// A malformed sentence (no tokens, or every token lemma-less) is skipped
// and counted rather than aborting the build; a SentenceStore write
// failure is fatal per §7 and aborts immediately.
func (ing *Ingester) Run(feed SentenceFeed) (BuildReport, error) {
	if ing.state != stateIdle {
		return BuildReport{}, errs.Newf(errs.InvalidInput, "ingest: Run called twice on the same Ingester")
	}
	ing.state = stateAccumulating

	var malformed uint64
	for {
		raw, ok, err := feed.Next()
		if err != nil {
			return ing.report(malformed), errs.New(errs.TransientIO, fmt.Errorf("reading sentence feed: %w", err))
		}
		if !ok {
			break
		}
		if len(raw.Toks) == 0 {
			malformed++
			continue
		}
		if err := ing.ingestSentence(raw); err != nil {
			if _, ok := err.(malformedError); ok {
				malformed++
				continue
			}
			return ing.report(malformed), err
		}
	}

	if err := ing.spillAll(); err != nil {
		return ing.report(malformed), err
	}
	ing.state = stateFinalized
	return ing.report(malformed), nil
}

type malformedError struct{ reason string }

func (e malformedError) Error() string { return e.reason }

func (ing *Ingester) ingestSentence(raw RawSentence) error {
	lemmaIDs := make([]uint32, len(raw.Toks))
	for i := range lemmaIDs {
		lemmaIDs[i] = sentstore.NoLemmaID
	}
	seenThisSentence := make(map[uint32]bool, len(raw.Toks))
	assignable := 0
	for i, tok := range raw.Toks {
		lemma := tok.Lemma
		if lemma == "" {
			continue
		}
		assignable++
		id := ing.Lexicon.GetOrAssignID(lemma, tok.Tag)
		lemmaIDs[i] = id
		if !seenThisSentence[id] {
			seenThisSentence[id] = true
			ing.Lexicon.IncrementDocFrequency(id)
		}
	}
	if assignable == 0 {
		return malformedError{"sentence has no assignable lemma"}
	}

	ing.sentenceID++
	sid := ing.sentenceID
	sentToks := make([]sentstore.Token, len(raw.Toks))
	for i, tok := range raw.Toks {
		sentToks[i] = sentstore.Token{
			Position: uint32(i),
			Surface:  tok.Surface,
			Lemma:    tok.Lemma,
			Tag:      tok.Tag,
			LemmaID:  lemmaIDs[i],
		}
	}
	if err := ing.Store.Append(sentstore.Sentence{ID: sid, Text: raw.Text, Toks: sentToks}); err != nil {
		return errs.New(errs.TransientIO, fmt.Errorf("sentence store append failed, aborting build: %w", err))
	}

	n := len(raw.Toks)
	w := int(ing.Window)
	spillNeeded := false
	for i := 0; i < n; i++ {
		if lemmaIDs[i] == sentstore.NoLemmaID {
			continue
		}
		lo := i - w
		if lo < 0 {
			lo = 0
		}
		hi := i + w + 1
		if hi > n {
			hi = n
		}
		for j := lo; j < hi; j++ {
			if j == i || lemmaIDs[j] == sentstore.NoLemmaID || lemmaIDs[j] == lemmaIDs[i] {
				continue
			}
			key := record.PackPairKey(lemmaIDs[i], lemmaIDs[j])
			if ing.Pairs.AddOccurrence(key, float64(j-i)) {
				spillNeeded = true
			}
		}
	}
	if spillNeeded {
		ing.state = stateSpilling
		if err := ing.spillAll(); err != nil {
			return err
		}
		ing.state = stateAccumulating
	}
	return nil
}

// spillAll writes every shard's current contents as one sorted run and
// clears it, per §4.3's global-spill invariant: a shard is never spilled
// in isolation.
func (ing *Ingester) spillAll() error {
	ing.spillSeq++
	for idx := 0; idx < ing.Pairs.NumShards(); idx++ {
		entries := ing.Pairs.SortedEntries(idx)
		if len(entries) == 0 {
			continue
		}
		path := filepath.Join(ing.RunDir, fmt.Sprintf("shard%04d-run%04d", idx, ing.spillSeq))
		if err := runio.WriteRun(path, entries); err != nil {
			return err
		}
		ing.Pairs.Clear(idx)
		ing.runPathsByShard[idx] = append(ing.runPathsByShard[idx], path)
		log.Debug().Int("shard", idx).Str("path", path).Int("entries", len(entries)).Msg("spilled pair shard")
	}
	return nil
}

func (ing *Ingester) report(malformed uint64) BuildReport {
	return BuildReport{
		TotalSentences:   ing.sentenceID,
		TotalTokens:      ing.Lexicon.TotalTokens(),
		MalformedSkipped: malformed,
		RunPathsByShard:  ing.runPathsByShard,
	}
}
