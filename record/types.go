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

import "strings"

// POSGroup is the broad part-of-speech class derived from a corpus-specific
// tag, per the first two letters of the tag string.
type POSGroup string

const (
	GroupNoun  POSGroup = "noun"
	GroupVerb  POSGroup = "verb"
	GroupAdj   POSGroup = "adj"
	GroupAdv   POSGroup = "adv"
	GroupPrep  POSGroup = "prep"
	GroupDet   POSGroup = "det"
	GroupPron  POSGroup = "pron"
	GroupConj  POSGroup = "conj"
	GroupPart  POSGroup = "part"
	GroupOther POSGroup = "other"
)

// tagPrefixGroups maps the first two (upper-cased) letters of a corpus tag
// to a broad POS group. Covers common Penn-Treebank-ish and UD tag prefixes
// seen across dependency-parsed corpora.
var tagPrefixGroups = map[string]POSGroup{
	"NN": GroupNoun,
	"NO": GroupNoun, // NOUN
	"PR": GroupPron, // PRP, PRON
	"VB": GroupVerb,
	"VE": GroupVerb, // VERB
	"AU": GroupVerb, // AUX
	"JJ": GroupAdj,
	"RB": GroupAdv,
	"IN": GroupPrep,
	"AP": GroupPrep, // ADP
	"DT": GroupDet,
	"DE": GroupDet, // DET
	"CC": GroupConj,
	"SC": GroupConj, // SCONJ
	"TO": GroupPart,
	"RP": GroupPart,
	"PA": GroupPart, // PART
}

// posGroupCodes assigns each POSGroup a single dense byte code for use in
// compact binary keys (e.g. sentstore's tag-filtered postings), since the
// group names themselves share prefixes and can't be distinguished by
// their first byte alone.
var posGroupCodes = map[POSGroup]byte{
	GroupNoun:  0,
	GroupVerb:  1,
	GroupAdj:   2,
	GroupAdv:   3,
	GroupPrep:  4,
	GroupDet:   5,
	GroupPron:  6,
	GroupConj:  7,
	GroupPart:  8,
	GroupOther: 9,
}

// POSGroupCode returns the dense byte code for grp.
func POSGroupCode(grp POSGroup) byte {
	return posGroupCodes[grp]
}

// ClassifyPOS derives the broad POS group for a tag string. The two UD tags
// that share a prefix with another class ("ADJ"/"ADV") are disambiguated by
// matching the full tag first.
func ClassifyPOS(tag string) POSGroup {
	if tag == "" {
		return GroupOther
	}
	upper := strings.ToUpper(tag)
	switch upper {
	case "ADV":
		return GroupAdv
	case "ADJ":
		return GroupAdj
	}
	prefix := upper
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	if grp, ok := tagPrefixGroups[prefix]; ok {
		return grp
	}
	return GroupOther
}
