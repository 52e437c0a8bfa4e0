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

package query

import (
	"context"
	"strings"

	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/sentstore"
)

// Example is one witness sentence backing a result row.
type Example struct {
	SentenceID uint64
	Text       string
}

// Result is one ranked collocate, per §4.8's find_collocations contract.
type Result struct {
	Lemma             string
	POS               string
	Cooccurrence      uint64
	LogDice           float64
	TScore            float64
	LMI               float64
	LogLikelihood     float64
	RRFScore          float64
	RelativeFrequency float64
	Examples          []Example
	HasWitness        bool // false only meaningful when witness mode was requested
}

// Filter bounds what find_collocations returns, per §4.8.
type Filter struct {
	Relation   Relation
	MinLogDice float64
	Limit      int
}

// Executor answers find_collocations against a sealed collocations file,
// the one concrete implementation of §9's "single QueryExecutor
// interface" design note — sample-scan/span-count algorithm modes are
// deliberately not built, since nothing in the precomputed path needs
// them and the source's three-modes-in-one-class shape is exactly what
// §9 flags for re-architecture.
type Executor struct {
	Reader *colloc.Reader
}

// NewExecutor wraps an already-open collocations reader.
func NewExecutor(r *colloc.Reader) *Executor {
	return &Executor{Reader: r}
}

// FindCollocations implements §4.8. headword is case-normalized before
// lookup; an absent headword yields an empty, non-error result, matching
// the spec's "absent is not an error" rule.
func (ex *Executor) FindCollocations(headword string, filter Filter) ([]Result, error) {
	entry, found, err := ex.Reader.Get(strings.ToLower(headword))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	out := make([]Result, 0, len(entry.Collocates))
	for _, c := range entry.Collocates {
		if filter.Relation.Predicate != nil && !filter.Relation.Predicate(c.Lemma, c.MostFrequentPOS) {
			continue
		}
		if filter.MinLogDice > 0 && float64(c.LogDice) < filter.MinLogDice {
			continue
		}
		relFreq := 0.0
		if entry.HeadwordFrequency > 0 {
			relFreq = float64(c.Cooccurrence) / float64(entry.HeadwordFrequency)
		}
		corpusSize := ex.Reader.TotalCorpusTokens()
		out = append(out, Result{
			Lemma:             c.Lemma,
			POS:               c.MostFrequentPOS,
			Cooccurrence:      c.Cooccurrence,
			LogDice:           float64(c.LogDice),
			TScore:            TScore(c.Cooccurrence, entry.HeadwordFrequency, c.CollocateFrequency, corpusSize),
			LMI:               LMI(c.Cooccurrence, entry.HeadwordFrequency, c.CollocateFrequency, corpusSize),
			LogLikelihood:     LogLikelihood(c.Cooccurrence, entry.HeadwordFrequency, c.CollocateFrequency, corpusSize),
			RelativeFrequency: relFreq,
		})
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// WitnessExecutor enriches FindCollocations results with example
// sentences drawn from the SentenceStore, per §4.8's witness mode.
// Failures to find a witness do not fail the query; they just leave
// HasWitness false on that row, per §7's "reserve the error channel for
// genuine corruption" rule.
type WitnessExecutor struct {
	*Executor
	Store      *sentstore.Store
	IDs        *lexicon.IDIndex
	Window     uint32
	MaxPerItem int
}

// NewWitnessExecutor wraps an Executor with the components needed to
// resolve example sentences.
func NewWitnessExecutor(r *colloc.Reader, store *sentstore.Store, ids *lexicon.IDIndex, window uint32, maxPerItem int) *WitnessExecutor {
	return &WitnessExecutor{Executor: NewExecutor(r), Store: store, IDs: ids, Window: window, MaxPerItem: maxPerItem}
}

// FindCollocationsWithWitnesses runs FindCollocations, then fills in up
// to MaxPerItem example sentences per surviving row. ctx is checked
// between rows only, matching §5's "cancellable... between produced
// result rows" cancellation boundary.
func (wx *WitnessExecutor) FindCollocationsWithWitnesses(ctx context.Context, headword string, filter Filter) ([]Result, error) {
	results, err := wx.FindCollocations(headword, filter)
	if err != nil || len(results) == 0 {
		return results, err
	}

	headID, ok := wx.IDs.LookupID(strings.ToLower(headword))
	if !ok {
		return results, nil
	}

	for i := range results {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.ClientGone, ctx.Err())
		default:
		}
		collID, ok := wx.IDs.LookupID(results[i].Lemma)
		if !ok {
			continue
		}
		matches, err := wx.Store.SpanSearch(headID, collID, wx.Window, wx.MaxPerItem)
		if err != nil {
			continue
		}
		for _, m := range matches {
			sent, found, err := wx.Store.Get(m.SentenceID)
			if err != nil || !found {
				continue
			}
			results[i].Examples = append(results[i].Examples, Example{SentenceID: sent.ID, Text: sent.Text})
		}
		results[i].HasWitness = len(results[i].Examples) > 0
	}
	return results, nil
}
