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

// Package diagnostics implements the §4.10 integrity report: for a set
// of high-frequency headwords, how many of their precomputed collocates
// look suspicious against the live SentenceStore, plus a systemic-drift
// flag over the whole inspected set.
package diagnostics

import (
	"strings"
	"unicode"

	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/sentstore"
)

// HeadwordReport tallies, for one headword's precomputed collocates, how
// many are missing from the SentenceStore's lemma index, malformed, or
// unwitnessed within the configured window. MismatchCollocates is the
// distinct-collocate union of those three checks (a collocate flagged by
// more than one check still counts once).
type HeadwordReport struct {
	Headword          string
	CollocateCount    int
	MissingCollocate  int
	MalformedLemma    int
	NoWitnessSpan     int
	MismatchCollocates int
}

// MismatchCount is the number of distinct collocates flagged by at least
// one of the three checks.
func (r HeadwordReport) MismatchCount() int {
	return r.MismatchCollocates
}

// MismatchRatio is MismatchCount / CollocateCount, or 0 for a headword
// with no collocates.
func (r HeadwordReport) MismatchRatio() float64 {
	if r.CollocateCount == 0 {
		return 0
	}
	return float64(r.MismatchCount()) / float64(r.CollocateCount)
}

// IsMalformedLemma reports whether lemma has no letters, or has more
// non-letter than letter runes, per §4.10's definition.
func IsMalformedLemma(lemma string) bool {
	var letters, others int
	for _, r := range lemma {
		if unicode.IsLetter(r) {
			letters++
		} else {
			others++
		}
	}
	return letters == 0 || others > letters
}

// Inspect builds the report for one headword by walking its precomputed
// collocates and consulting the SentenceStore for each.
func Inspect(headword string, window uint32, reader *colloc.Reader, store *sentstore.Store, ids *lexicon.IDIndex) (HeadwordReport, error) {
	report := HeadwordReport{Headword: headword}
	entry, found, err := reader.Get(strings.ToLower(headword))
	if err != nil {
		return report, err
	}
	if !found {
		return report, nil
	}
	report.CollocateCount = len(entry.Collocates)

	headID, headKnown := ids.LookupID(strings.ToLower(headword))
	for _, c := range entry.Collocates {
		var flagged bool
		if IsMalformedLemma(c.Lemma) {
			report.MalformedLemma++
			flagged = true
		}
		collID, collKnown := ids.LookupID(c.Lemma)
		if !collKnown {
			report.MissingCollocate++
			report.MismatchCollocates++
			continue
		}
		present, err := store.HasAny(collID)
		if err != nil {
			return report, err
		}
		if !present {
			report.MissingCollocate++
			report.MismatchCollocates++
			continue
		}
		if headKnown {
			matches, err := store.SpanSearch(headID, collID, window, 1)
			if err != nil {
				return report, err
			}
			if len(matches) == 0 {
				report.NoWitnessSpan++
				flagged = true
			}
		}
		if flagged {
			report.MismatchCollocates++
		}
	}
	return report, nil
}

// Report is the full integrity report across every inspected headword,
// plus the systemic-drift verdict.
type Report struct {
	Headwords        []HeadwordReport
	SystemicMismatch bool
}

// Build inspects every headword in headwords (typically the top-N by
// frequency) and computes the systemic-mismatch flag: it fires when the
// fraction of inspected headwords (those with at least minCount
// collocates) whose mismatch ratio reaches ratioThreshold itself exceeds
// fractionThreshold, per §4.10 and §7.
func Build(headwords []string, window uint32, reader *colloc.Reader, store *sentstore.Store, ids *lexicon.IDIndex, ratioThreshold, fractionThreshold float64, minCount int) (Report, error) {
	var report Report
	for _, hw := range headwords {
		hr, err := Inspect(hw, window, reader, store, ids)
		if err != nil {
			return report, err
		}
		report.Headwords = append(report.Headwords, hr)
	}
	report.SystemicMismatch = systemicMismatchFlag(report.Headwords, ratioThreshold, fractionThreshold, minCount)
	return report, nil
}

func systemicMismatchFlag(reports []HeadwordReport, ratioThreshold, fractionThreshold float64, minCount int) bool {
	var inspected, exceeding int
	for _, r := range reports {
		if r.CollocateCount < minCount {
			continue
		}
		inspected++
		if r.MismatchRatio() >= ratioThreshold {
			exceeding++
		}
	}
	if inspected == 0 {
		return false
	}
	return float64(exceeding)/float64(inspected) > fractionThreshold
}
