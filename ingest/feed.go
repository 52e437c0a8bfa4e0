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

// Package ingest drives the §4.5 single-pass build: a SentenceFeed yields
// raw sentences from whatever corpus format is on disk, and the Ingester
// turns each one into lexicon ids, a SentenceStore entry, and windowed
// pair occurrences, spilling the PairShardMap to sorted runs whenever it
// fills up.
package ingest

// RawToken is one token as read off the wire, before it has been assigned
// a lexicon id.
type RawToken struct {
	Surface string
	Lemma   string
	Tag     string
}

// RawSentence is one sentence's tokens, in reading order.
type RawSentence struct {
	Text string
	Toks []RawToken
}

// SentenceFeed yields one corpus sentence at a time. Next returns
// ok=false once the underlying source is exhausted; a non-nil error
// distinguishes a genuine read/parse failure from ordinary end-of-input.
type SentenceFeed interface {
	Next() (sent RawSentence, ok bool, err error)
}
