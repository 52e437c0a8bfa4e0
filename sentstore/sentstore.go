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

// Package sentstore implements the positional sentence index described in
// §4.2: point lookup by sentence id, positional search for a lemma, and
// span search for two lemmas co-occurring within a window. It generalizes
// the source's badger-backed prefix-scan idiom (keyed there by token
// frequency tuples) to positional postings keyed by lemma id.
package sentstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/record"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

const (
	sentencePrefix byte = 0x01 // sentence_id -> encoded Sentence
	postingPrefix  byte = 0x02 // lemma_id + sentence_id + position -> (empty, key carries data)
	tagPostingPrefix byte = 0x03 // tagGroup byte + lemma_id + sentence_id + position
)

// NoLemmaID marks a Token with no assignable lemma (e.g. an empty surface
// form). Lexicon ids are dense in [0, N) starting at 0, so 0 is itself a
// valid lemma id and can't be reused as this sentinel.
const NoLemmaID uint32 = ^uint32(0)

// Token is one token of a stored sentence.
type Token struct {
	Position uint32
	Surface  string
	Lemma    string
	Tag      string
	LemmaID  uint32
	Start    uint32
	End      uint32
}

// Sentence is the positional record persisted under a sentence id.
type Sentence struct {
	ID   uint64
	Text string
	Toks []Token
}

// Store is the positional + inverted sentence index.
type Store struct {
	bdb *badger.DB
}

// zerologWrapper adapts zerolog's global logger to badger.Logger, since
// badger has no built-in zerolog adapter.
type zerologWrapper struct{}

func (zerologWrapper) Errorf(f string, v ...interface{})   { log.Error().Msgf(f, v...) }
func (zerologWrapper) Warningf(f string, v ...interface{}) { log.Warn().Msgf(f, v...) }
func (zerologWrapper) Infof(f string, v ...interface{})    { log.Info().Msgf(f, v...) }
func (zerologWrapper) Debugf(f string, v ...interface{})   { log.Debug().Msgf(f, v...) }

// Open opens (or creates) a sentence store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithValueLogFileSize(1 << 30).
		WithBlockCacheSize(512 << 20).
		WithIndexCacheSize(256 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithLogger(zerologWrapper{})
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, errs.New(errs.MissingArtifact, fmt.Errorf("failed to open sentence store: %w", err))
	}
	return &Store{bdb: bdb}, nil
}

// Close closes the underlying database. Safe to call on a nil Store.
func (s *Store) Close() error {
	if s != nil && s.bdb != nil {
		return s.bdb.Close()
	}
	return nil
}

func sentenceKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = sentencePrefix
	binary.BigEndian.PutUint64(key[1:], id) // big-endian so key order == id order
	return key
}

func postingKey(lemmaID uint32, sentenceID uint64, position uint32) []byte {
	key := make([]byte, 1+4+8+4)
	key[0] = postingPrefix
	binary.BigEndian.PutUint32(key[1:5], lemmaID)
	binary.BigEndian.PutUint64(key[5:13], sentenceID)
	binary.BigEndian.PutUint32(key[13:17], position)
	return key
}

func postingPrefixKey(lemmaID uint32) []byte {
	key := make([]byte, 5)
	key[0] = postingPrefix
	binary.BigEndian.PutUint32(key[1:5], lemmaID)
	return key
}

func tagPostingKey(posGroup byte, lemmaID uint32, sentenceID uint64, position uint32) []byte {
	key := make([]byte, 1+1+4+8+4)
	key[0] = tagPostingPrefix
	key[1] = posGroup
	binary.BigEndian.PutUint32(key[2:6], lemmaID)
	binary.BigEndian.PutUint64(key[6:14], sentenceID)
	binary.BigEndian.PutUint32(key[14:18], position)
	return key
}

func tagPostingPrefixKey(posGroup byte, lemmaID uint32) []byte {
	key := make([]byte, 6)
	key[0] = tagPostingPrefix
	key[1] = posGroup
	binary.BigEndian.PutUint32(key[2:6], lemmaID)
	return key
}

// Append stores sent and indexes every token's lemma id for positional and
// span search. Intended to be called from a single ingest goroutine per
// §5's "SentenceStore writer is single-threaded" requirement.
func (s *Store) Append(sent Sentence) error {
	return s.bdb.Update(func(txn *badger.Txn) error {
		encoded, err := json.Marshal(sent)
		if err != nil {
			return err
		}
		if err := txn.Set(sentenceKey(sent.ID), encoded); err != nil {
			return err
		}
		for _, tok := range sent.Toks {
			if tok.LemmaID == NoLemmaID {
				continue
			}
			if err := txn.Set(postingKey(tok.LemmaID, sent.ID, tok.Position), nil); err != nil {
				return err
			}
			grp := record.POSGroupCode(record.ClassifyPOS(tok.Tag))
			if err := txn.Set(tagPostingKey(grp, tok.LemmaID, sent.ID, tok.Position), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the sentence stored under id.
func (s *Store) Get(id uint64) (Sentence, bool, error) {
	var sent Sentence
	found := false
	err := s.bdb.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sentenceKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sent)
		})
	})
	if err != nil {
		return Sentence{}, false, err
	}
	return sent, found, nil
}

// Match is one positional hit: a sentence id and the position within it.
type Match struct {
	SentenceID uint64
	Position   uint32
}

// PositionalSearch enumerates every (sentence_id, position) pair where
// lemmaID occurs.
func (s *Store) PositionalSearch(lemmaID uint32) ([]Match, error) {
	var matches []Match
	err := s.bdb.View(func(txn *badger.Txn) error {
		prefix := postingPrefixKey(lemmaID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			sentenceID := binary.BigEndian.Uint64(key[5:13])
			position := binary.BigEndian.Uint32(key[13:17])
			matches = append(matches, Match{SentenceID: sentenceID, Position: position})
		}
		return nil
	})
	return matches, err
}

// TagPositionalSearch is PositionalSearch restricted to occurrences of
// lemmaID tagged with posGroup, satisfying §4.2's "optional tag-class
// predicate" requirement without scanning the full lemma posting list.
func (s *Store) TagPositionalSearch(lemmaID uint32, posGroup record.POSGroup) ([]Match, error) {
	var matches []Match
	err := s.bdb.View(func(txn *badger.Txn) error {
		prefix := tagPostingPrefixKey(record.POSGroupCode(posGroup), lemmaID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			sentenceID := binary.BigEndian.Uint64(key[6:14])
			position := binary.BigEndian.Uint32(key[14:18])
			matches = append(matches, Match{SentenceID: sentenceID, Position: position})
		}
		return nil
	})
	return matches, err
}

// HasAny reports whether lemmaID has at least one posting, i.e. whether it
// is "present in the SentenceStore inverted index" per the Reducer's
// lemma-present check (§4.6).
func (s *Store) HasAny(lemmaID uint32) (bool, error) {
	found := false
	err := s.bdb.View(func(txn *badger.Txn) error {
		prefix := postingPrefixKey(lemmaID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		found = it.Valid()
		return nil
	})
	return found, err
}

// SpanMatch is one witness for a head/collocate pair: the sentence they
// co-occurred in and their positions.
type SpanMatch struct {
	SentenceID   uint64
	HeadPos      uint32
	CollocatePos uint32
}

// SpanSearch enumerates sentences containing both headID and collID within
// w positions of each other, per §4.2's required capability. It is backed
// by the inverted postings: it reads the full posting lists of both
// lemmas, so cost is proportional to their combined occurrence counts,
// not corpus size.
func (s *Store) SpanSearch(headID, collID uint32, w uint32, limit int) ([]SpanMatch, error) {
	headMatches, err := s.PositionalSearch(headID)
	if err != nil {
		return nil, err
	}
	collMatches, err := s.PositionalSearch(collID)
	if err != nil {
		return nil, err
	}

	bySentence := make(map[uint64][]uint32, len(collMatches))
	for _, m := range collMatches {
		bySentence[m.SentenceID] = append(bySentence[m.SentenceID], m.Position)
	}

	var out []SpanMatch
	for _, hm := range headMatches {
		positions, ok := bySentence[hm.SentenceID]
		if !ok {
			continue
		}
		for _, cp := range positions {
			dist := int64(hm.Position) - int64(cp)
			if dist < 0 {
				dist = -dist
			}
			if uint32(dist) <= w {
				out = append(out, SpanMatch{
					SentenceID:   hm.SentenceID,
					HeadPos:      hm.Position,
					CollocatePos: cp,
				})
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}
