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

package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPOS(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected POSGroup
	}{
		{name: "noun NN", tag: "NN", expected: GroupNoun},
		{name: "noun NNS lowercased input", tag: "nns", expected: GroupNoun},
		{name: "UD NOUN", tag: "NOUN", expected: GroupNoun},
		{name: "verb VB", tag: "VB", expected: GroupVerb},
		{name: "UD AUX", tag: "AUX", expected: GroupVerb},
		{name: "adjective JJ", tag: "JJR", expected: GroupAdj},
		{name: "UD ADJ exact match", tag: "ADJ", expected: GroupAdj},
		{name: "adverb RB", tag: "RB", expected: GroupAdv},
		{name: "UD ADV exact match", tag: "ADV", expected: GroupAdv},
		{name: "preposition IN", tag: "IN", expected: GroupPrep},
		{name: "UD ADP", tag: "ADP", expected: GroupPrep},
		{name: "determiner DT", tag: "DT", expected: GroupDet},
		{name: "pronoun PRP", tag: "PRP", expected: GroupPron},
		{name: "conjunction CC", tag: "CC", expected: GroupConj},
		{name: "UD SCONJ", tag: "SCONJ", expected: GroupConj},
		{name: "particle TO", tag: "TO", expected: GroupPart},
		{name: "empty tag", tag: "", expected: GroupOther},
		{name: "unrecognized prefix", tag: "XYZ", expected: GroupOther},
		{name: "single-letter tag", tag: "X", expected: GroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPOS(tt.tag))
		})
	}
}

func TestPOSGroupCodeIsDenseAndDistinct(t *testing.T) {
	codes := make(map[byte]POSGroup)
	for grp := range posGroupCodes {
		code := POSGroupCode(grp)
		other, seen := codes[code]
		assert.False(t, seen, "code %d reused by both %q and %q", code, other, grp)
		codes[code] = grp
	}
	assert.Equal(t, len(posGroupCodes), len(codes))
}
