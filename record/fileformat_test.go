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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEntryRoundTrip(t *testing.T) {
	entry := CollocationEntry{
		Headword:          "house",
		HeadwordFrequency: 1234,
		Collocates: []CollocateRecord{
			{Lemma: "big", MostFrequentPOS: "JJ", Cooccurrence: 10, CollocateFrequency: 50, LogDice: 8.5},
			{Lemma: "small", MostFrequentPOS: "JJ", Cooccurrence: 4, CollocateFrequency: 20, LogDice: 6.25},
		},
	}

	buf, err := EncodeEntry(entry)
	require.NoError(t, err)

	decoded, n, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, entry.Equal(decoded))
}

func TestEncodeDecodeEntryRoundTripNoCollocates(t *testing.T) {
	entry := CollocationEntry{Headword: "lonely", HeadwordFrequency: 1}

	buf, err := EncodeEntry(entry)
	require.NoError(t, err)

	decoded, n, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, entry.Equal(decoded))
}

// TestEncodeEntryDropsOversizedCollocate exercises EncodeEntry's silent-drop
// path: a collocate lemma longer than the u8 length prefix can hold is
// omitted instead of failing the whole entry.
func TestEncodeEntryDropsOversizedCollocate(t *testing.T) {
	oversizedLemma := strings.Repeat("x", maxU8Len+1)
	entry := CollocationEntry{
		Headword:          "house",
		HeadwordFrequency: 10,
		Collocates: []CollocateRecord{
			{Lemma: oversizedLemma, MostFrequentPOS: "JJ", Cooccurrence: 1, CollocateFrequency: 1, LogDice: 1},
			{Lemma: "small", MostFrequentPOS: "JJ", Cooccurrence: 4, CollocateFrequency: 20, LogDice: 6.25},
		},
	}

	buf, err := EncodeEntry(entry)
	require.NoError(t, err)

	decoded, _, err := DecodeEntry(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Collocates, 1, "the oversized lemma must be dropped, not cause a failure")
	assert.Equal(t, "small", decoded.Collocates[0].Lemma)
}

// TestEncodeEntryDropsOversizedCollocatePOS mirrors the lemma case for the
// POS tag, which shares the same u8 length prefix.
func TestEncodeEntryDropsOversizedCollocatePOS(t *testing.T) {
	oversizedPOS := strings.Repeat("p", maxU8Len+1)
	entry := CollocationEntry{
		Headword:          "house",
		HeadwordFrequency: 10,
		Collocates: []CollocateRecord{
			{Lemma: "big", MostFrequentPOS: oversizedPOS, Cooccurrence: 1, CollocateFrequency: 1, LogDice: 1},
		},
	}

	buf, err := EncodeEntry(entry)
	require.NoError(t, err)

	decoded, _, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Empty(t, decoded.Collocates)
}

func TestEncodeEntryRejectsOversizedHeadword(t *testing.T) {
	entry := CollocationEntry{Headword: strings.Repeat("h", maxU16Len+1)}
	_, err := EncodeEntry(entry)
	assert.Error(t, err)
}

func TestDecodeEntryRejectsTruncatedBuffer(t *testing.T) {
	entry := CollocationEntry{
		Headword:          "house",
		HeadwordFrequency: 10,
		Collocates:        []CollocateRecord{{Lemma: "big", MostFrequentPOS: "JJ", Cooccurrence: 1, CollocateFrequency: 1, LogDice: 1}},
	}
	buf, err := EncodeEntry(entry)
	require.NoError(t, err)

	_, _, err = DecodeEntry(buf[:len(buf)-1])
	assert.Error(t, err)
}

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	h := CollFileHeader{
		Magic:             CollFileMagic,
		Version:           CollFileVersion,
		EntryCount:        42,
		WindowSize:        5,
		TopK:              10,
		TotalCorpusTokens: 1_000_000,
		OffsetTableOffset: 2048,
		OffsetTableSize:   512,
	}
	buf := EncodeHeader(h)
	require.Len(t, buf, HeaderSize)

	decoded, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHeaderRejectsTruncatedBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestEncodeDecodeOffsetTableRoundTrip(t *testing.T) {
	entries := []OffsetTableEntry{
		{Lemma: "big", EntryOffset: 0},
		{Lemma: "house", EntryOffset: 128},
		{Lemma: "small", EntryOffset: 256},
	}
	buf, err := EncodeOffsetTable(entries)
	require.NoError(t, err)

	decoded, err := DecodeOffsetTable(buf)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}
