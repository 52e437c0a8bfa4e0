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
	"encoding/binary"
	"fmt"
	"math"
)

// CollFileMagic and CollFileVersion identify a collocations.bin file.
const (
	CollFileMagic   uint32 = 0x434F4C4C // 'COLL'
	CollFileVersion uint32 = 1

	// HeaderSize is the fixed size, in bytes, of the file header preceding
	// the first entry.
	HeaderSize = 64
)

// CollFileHeader is the fixed 64-byte header of a collocations.bin file.
type CollFileHeader struct {
	Magic              uint32
	Version            uint32
	EntryCount         uint32
	WindowSize         uint32
	TopK               uint32
	TotalCorpusTokens  uint64
	OffsetTableOffset  uint64
	OffsetTableSize    uint64
}

// EncodeHeader serializes h into the fixed 64-byte on-disk layout, zero-
// filling the 20 reserved trailing bytes.
func EncodeHeader(h CollFileHeader) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.EntryCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.WindowSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.TopK)
	binary.LittleEndian.PutUint64(buf[20:28], h.TotalCorpusTokens)
	binary.LittleEndian.PutUint64(buf[28:36], h.OffsetTableOffset)
	binary.LittleEndian.PutUint64(buf[36:44], h.OffsetTableSize)
	// buf[44:64] stays zeroed (reserved)
	return buf
}

// DecodeHeader parses the fixed 64-byte header. It does not validate magic
// or version; callers check those explicitly so they can distinguish
// CorruptArtifact from a short read.
func DecodeHeader(buf []byte) (CollFileHeader, error) {
	if len(buf) < HeaderSize {
		return CollFileHeader{}, fmt.Errorf("truncated header: need %d bytes, got %d", HeaderSize, len(buf))
	}
	return CollFileHeader{
		Magic:             binary.LittleEndian.Uint32(buf[0:4]),
		Version:           binary.LittleEndian.Uint32(buf[4:8]),
		EntryCount:        binary.LittleEndian.Uint32(buf[8:12]),
		WindowSize:        binary.LittleEndian.Uint32(buf[12:16]),
		TopK:              binary.LittleEndian.Uint32(buf[16:20]),
		TotalCorpusTokens: binary.LittleEndian.Uint64(buf[20:28]),
		OffsetTableOffset: binary.LittleEndian.Uint64(buf[28:36]),
		OffsetTableSize:   binary.LittleEndian.Uint64(buf[36:44]),
	}, nil
}

// CollocateRecord is one collocate within a headword's entry.
type CollocateRecord struct {
	Lemma              string
	MostFrequentPOS    string
	Cooccurrence       uint64
	CollocateFrequency uint64
	LogDice            float32
}

// CollocationEntry is a single headword's complete record, as written to
// and read from collocations.bin.
type CollocationEntry struct {
	Headword          string
	HeadwordFrequency uint64
	Collocates        []CollocateRecord
}

// Equal reports structural equality under the round-trip contract: same
// headword, same frequency, same collocates in the same order.
func (e CollocationEntry) Equal(other CollocationEntry) bool {
	if e.Headword != other.Headword || e.HeadwordFrequency != other.HeadwordFrequency {
		return false
	}
	if len(e.Collocates) != len(other.Collocates) {
		return false
	}
	for i, c := range e.Collocates {
		o := other.Collocates[i]
		if c.Lemma != o.Lemma || c.MostFrequentPOS != o.MostFrequentPOS ||
			c.Cooccurrence != o.Cooccurrence || c.CollocateFrequency != o.CollocateFrequency {
			return false
		}
		if math.Abs(float64(c.LogDice-o.LogDice)) > 1e-4 {
			return false
		}
	}
	return true
}

// maxU8Len and maxU16Len are the largest lengths a length-prefixed byte
// string may have under the fixed-width prefixes used in this file (u8 for
// collocate lemma/POS, u16 for the headword).
const (
	maxU8Len  = 255
	maxU16Len = 65535
)

// EncodeEntry serializes one CollocationEntry in the §4.7 layout. Collocate
// records whose lemma or POS tag exceeds 255 bytes are silently omitted
// rather than failing the whole entry; the caller is not told how many
// were dropped. A headword longer than the u16 cap makes EncodeEntry
// return an error.
func EncodeEntry(e CollocationEntry) ([]byte, error) {
	headBytes := []byte(e.Headword)
	if len(headBytes) > maxU16Len {
		return nil, fmt.Errorf("headword %q exceeds %d bytes", e.Headword, maxU16Len)
	}

	kept := make([]CollocateRecord, 0, len(e.Collocates))
	for _, c := range e.Collocates {
		if len([]byte(c.Lemma)) > maxU8Len || len([]byte(c.MostFrequentPOS)) > maxU8Len {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) > maxU16Len {
		kept = kept[:maxU16Len]
	}

	size := 2 + len(headBytes) + 8 + 2
	for _, c := range kept {
		size += 1 + len(c.Lemma) + 1 + len(c.MostFrequentPOS) + 8 + 8 + 4
	}

	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(headBytes)))
	off += 2
	off += copy(buf[off:], headBytes)
	binary.LittleEndian.PutUint64(buf[off:off+8], e.HeadwordFrequency)
	off += 8
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(kept)))
	off += 2
	for _, c := range kept {
		lemmaBytes := []byte(c.Lemma)
		posBytes := []byte(c.MostFrequentPOS)
		buf[off] = byte(len(lemmaBytes))
		off++
		off += copy(buf[off:], lemmaBytes)
		buf[off] = byte(len(posBytes))
		off++
		off += copy(buf[off:], posBytes)
		binary.LittleEndian.PutUint64(buf[off:off+8], c.Cooccurrence)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:off+8], c.CollocateFrequency)
		off += 8
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(c.LogDice))
		off += 4
	}
	return buf[:off], nil
}

// DecodeEntry parses one CollocationEntry starting at the beginning of buf,
// returning the entry and the number of bytes consumed.
func DecodeEntry(buf []byte) (CollocationEntry, int, error) {
	if len(buf) < 2 {
		return CollocationEntry{}, 0, fmt.Errorf("truncated entry: missing headword length")
	}
	off := 0
	headLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	if len(buf) < off+headLen+8+2 {
		return CollocationEntry{}, 0, fmt.Errorf("truncated entry: headword/frequency/count")
	}
	headword := string(buf[off : off+headLen])
	off += headLen
	freq := binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	count := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2

	collocates := make([]CollocateRecord, 0, count)
	for i := 0; i < count; i++ {
		if len(buf) < off+1 {
			return CollocationEntry{}, 0, fmt.Errorf("truncated entry: collocate %d lemma length", i)
		}
		lemmaLen := int(buf[off])
		off++
		if len(buf) < off+lemmaLen+1 {
			return CollocationEntry{}, 0, fmt.Errorf("truncated entry: collocate %d lemma", i)
		}
		lemma := string(buf[off : off+lemmaLen])
		off += lemmaLen
		posLen := int(buf[off])
		off++
		if len(buf) < off+posLen+8+8+4 {
			return CollocationEntry{}, 0, fmt.Errorf("truncated entry: collocate %d pos/counts", i)
		}
		pos := string(buf[off : off+posLen])
		off += posLen
		cooc := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		collFreq := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		logDice := math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		collocates = append(collocates, CollocateRecord{
			Lemma:              lemma,
			MostFrequentPOS:    pos,
			Cooccurrence:       cooc,
			CollocateFrequency: collFreq,
			LogDice:            logDice,
		})
	}
	return CollocationEntry{
		Headword:          headword,
		HeadwordFrequency: freq,
		Collocates:        collocates,
	}, off, nil
}

// OffsetTableEntry maps one headword lemma to its byte offset within the
// entries region of a collocations.bin file.
type OffsetTableEntry struct {
	Lemma       string
	EntryOffset uint64
}

// EncodeOffsetTable serializes the offset table: a u32 count followed by
// count entries of { u16 lemma_len; lemma bytes; u64 entry_offset }.
func EncodeOffsetTable(entries []OffsetTableEntry) ([]byte, error) {
	size := 4
	for _, e := range entries {
		if len([]byte(e.Lemma)) > maxU16Len {
			return nil, fmt.Errorf("offset table lemma %q exceeds %d bytes", e.Lemma, maxU16Len)
		}
		size += 2 + len(e.Lemma) + 8
	}
	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(entries)))
	off += 4
	for _, e := range entries {
		lemmaBytes := []byte(e.Lemma)
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(lemmaBytes)))
		off += 2
		off += copy(buf[off:], lemmaBytes)
		binary.LittleEndian.PutUint64(buf[off:off+8], e.EntryOffset)
		off += 8
	}
	return buf, nil
}

// DecodeOffsetTable parses the serialized offset table produced by
// EncodeOffsetTable.
func DecodeOffsetTable(buf []byte) ([]OffsetTableEntry, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("truncated offset table: missing count")
	}
	off := 0
	count := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	entries := make([]OffsetTableEntry, 0, count)
	for i := 0; i < count; i++ {
		if len(buf) < off+2 {
			return nil, fmt.Errorf("truncated offset table: entry %d lemma length", i)
		}
		lemmaLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
		off += 2
		if len(buf) < off+lemmaLen+8 {
			return nil, fmt.Errorf("truncated offset table: entry %d lemma/offset", i)
		}
		lemma := string(buf[off : off+lemmaLen])
		off += lemmaLen
		entryOffset := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		entries = append(entries, OffsetTableEntry{Lemma: lemma, EntryOffset: entryOffset})
	}
	return entries, nil
}
