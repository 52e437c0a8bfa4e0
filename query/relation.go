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

// Package query implements the §4.8/§4.9 read path: a RelationRegistry
// of named filters, a QueryExecutor over the sealed collocations file,
// and the scoring/RRF math used by its "algorithm" configuration.
package query

import "github.com/czcorpus/wordsketch/record"

// Relation is one declarative entry in the RelationRegistry: a head POS
// class plus a predicate over each candidate collocate's (lemma, tag).
// The executor never hard-codes relation semantics; adding a relation is
// adding an entry here. Generalizes the source's four PredefinedSearch
// constants (deprel-keyed CQL fragments) to the tag-class-glob predicate
// shape §4.9 specifies, since the precomputed record carries a POS group
// rather than a dependency relation.
type Relation struct {
	ID           string
	DisplayName  string
	Category     string
	HeadPOSGroup record.POSGroup
	Predicate    func(lemma, pos string) bool
}

// RelationRegistry is the sole authority for which relations a query can
// request.
type RelationRegistry struct {
	byID map[string]Relation
	ids  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *RelationRegistry {
	return &RelationRegistry{byID: make(map[string]Relation)}
}

// Register adds rel to the registry, overwriting any existing entry with
// the same id.
func (rr *RelationRegistry) Register(rel Relation) {
	if _, exists := rr.byID[rel.ID]; !exists {
		rr.ids = append(rr.ids, rel.ID)
	}
	rr.byID[rel.ID] = rel
}

// Get returns the relation registered under id.
func (rr *RelationRegistry) Get(id string) (Relation, bool) {
	rel, ok := rr.byID[id]
	return rel, ok
}

// List returns every registered relation, in registration order.
func (rr *RelationRegistry) List() []Relation {
	out := make([]Relation, 0, len(rr.ids))
	for _, id := range rr.ids {
		out = append(out, rr.byID[id])
	}
	return out
}

// DefaultRegistry builds the four built-in relations the source exposes
// as ModifiersOf / NounsModifiedBy / VerbsSubject / VerbsObject, adapted
// from deprel-keyed CQL fragments to POS-class predicates over the
// precomputed collocate record.
func DefaultRegistry() *RelationRegistry {
	rr := NewRegistry()
	rr.Register(Relation{
		ID:           "modifiers-of",
		DisplayName:  "modifiers of",
		Category:     "noun->modifier",
		HeadPOSGroup: record.GroupNoun,
		Predicate: func(_, pos string) bool {
			return record.ClassifyPOS(pos) == record.GroupAdj
		},
	})
	rr.Register(Relation{
		ID:           "nouns-modified-by",
		DisplayName:  "nouns modified by",
		Category:     "modifier->noun",
		HeadPOSGroup: record.GroupAdj,
		Predicate: func(_, pos string) bool {
			return record.ClassifyPOS(pos) == record.GroupNoun
		},
	})
	rr.Register(Relation{
		ID:           "verbs-subject",
		DisplayName:  "subjects of",
		Category:     "verb->subject",
		HeadPOSGroup: record.GroupVerb,
		Predicate: func(_, pos string) bool {
			return record.ClassifyPOS(pos) == record.GroupNoun
		},
	})
	rr.Register(Relation{
		ID:           "verbs-object",
		DisplayName:  "objects of",
		Category:     "verb->object",
		HeadPOSGroup: record.GroupVerb,
		Predicate: func(_, pos string) bool {
			return record.ClassifyPOS(pos) == record.GroupNoun
		},
	})
	return rr
}
