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

package lexicon

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/record"
)

// StatsFileMagic identifies a stats.bin lexicon file ('WSLS').
const StatsFileMagic uint32 = 0x57534C53

// StatsFileVersion is the current stats.bin format version.
const StatsFileVersion uint32 = 1

// WriteStats persists the lexicon to stats.bin at path, in ascending id
// order, following the §6 header-then-records layout. totalSentences is
// supplied by the caller since the lexicon itself has no notion of a
// sentence boundary.
func (lx *Lexicon) WriteStats(path string, totalSentences uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.TransientIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	header := make([]byte, 28) // magic, version, total_tokens, total_sentences, entry_count
	binary.LittleEndian.PutUint32(header[0:4], StatsFileMagic)
	binary.LittleEndian.PutUint32(header[4:8], StatsFileVersion)
	binary.LittleEndian.PutUint64(header[8:16], lx.TotalTokens())
	binary.LittleEndian.PutUint64(header[16:24], totalSentences)
	// header[24:28] (entry_count) is patched after the entries are written
	if _, err := w.Write(header); err != nil {
		return errs.New(errs.TransientIO, err)
	}

	ids := lx.sortedIDs()
	for _, id := range ids {
		lemma, _ := lx.Lemma(id)
		if err := writeStatsEntry(w, lemma, lx.Frequency(id), lx.DocFrequency(id), lx.PosHistogram(id)); err != nil {
			return errs.New(errs.TransientIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		return errs.New(errs.TransientIO, err)
	}

	// entry_count sits at header offset 24 (after magic+version+total_tokens+total_sentences)
	if _, err := f.Seek(24, 0); err != nil {
		return errs.New(errs.TransientIO, err)
	}
	countBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(countBuf, uint32(len(ids)))
	if _, err := f.Write(countBuf); err != nil {
		return errs.New(errs.TransientIO, err)
	}
	return nil
}

func writeStatsEntry(w *bufio.Writer, lemma string, totalFreq, docFreq uint64, histo map[record.POSGroup]uint64) error {
	lemmaBytes := []byte(lemma)
	if len(lemmaBytes) > maxLemmaBytes {
		lemmaBytes = lemmaBytes[:maxLemmaBytes]
	}
	head := make([]byte, 2)
	binary.LittleEndian.PutUint16(head, uint16(len(lemmaBytes)))
	if _, err := w.Write(head); err != nil {
		return err
	}
	if _, err := w.Write(lemmaBytes); err != nil {
		return err
	}
	freqBuf := make([]byte, 12)
	binary.LittleEndian.PutUint64(freqBuf[0:8], totalFreq)
	binary.LittleEndian.PutUint32(freqBuf[8:12], uint32(docFreq))
	if _, err := w.Write(freqBuf); err != nil {
		return err
	}
	posCountBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(posCountBuf, uint16(len(histo)))
	if _, err := w.Write(posCountBuf); err != nil {
		return err
	}
	tags := make([]string, 0, len(histo))
	for grp := range histo {
		tags = append(tags, string(grp))
	}
	sort.Strings(tags)
	for _, tag := range tags {
		tagBytes := []byte(tag)
		if len(tagBytes) > maxTagBytes {
			tagBytes = tagBytes[:maxTagBytes]
		}
		if err := w.WriteByte(byte(len(tagBytes))); err != nil {
			return err
		}
		if _, err := w.Write(tagBytes); err != nil {
			return err
		}
		countBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(countBuf, histo[record.POSGroup(tag)])
		if _, err := w.Write(countBuf); err != nil {
			return err
		}
	}
	return nil
}

func (lx *Lexicon) sortedIDs() []uint32 {
	lx.idMu.RLock()
	ids := make([]uint32, 0, len(lx.idToLemma))
	for id := range lx.idToLemma {
		ids = append(ids, id)
	}
	lx.idMu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StatsEntry is one decoded record from stats.bin.
type StatsEntry struct {
	Lemma        string
	TotalFreq    uint64
	DocFreq      uint32
	POSHistogram map[record.POSGroup]uint64
}

// ReadStats reads back everything WriteStats persisted, for tooling and
// tests (the builder itself works from the live in-memory Lexicon).
func ReadStats(path string) (total uint64, sentences uint64, entries []StatsEntry, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return 0, 0, nil, errs.New(errs.MissingArtifact, openErr)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, 24)
	if _, err := readFull(r, header); err != nil {
		return 0, 0, nil, errs.New(errs.CorruptArtifact, err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	version := binary.LittleEndian.Uint32(header[4:8])
	if magic != StatsFileMagic {
		return 0, 0, nil, errs.Newf(errs.CorruptArtifact, "stats.bin: bad magic 0x%08X", magic)
	}
	if version != StatsFileVersion {
		return 0, 0, nil, errs.Newf(errs.CorruptArtifact, "stats.bin: unsupported version %d", version)
	}
	total = binary.LittleEndian.Uint64(header[8:16])
	sentences = binary.LittleEndian.Uint64(header[16:24])

	entryCountBuf := make([]byte, 4)
	if _, err := readFull(r, entryCountBuf); err != nil {
		return 0, 0, nil, errs.New(errs.CorruptArtifact, err)
	}
	entryCount := binary.LittleEndian.Uint32(entryCountBuf)

	entries = make([]StatsEntry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		entry, err := readStatsEntry(r)
		if err != nil {
			return 0, 0, nil, errs.New(errs.CorruptArtifact, fmt.Errorf("entry %d: %w", i, err))
		}
		entries = append(entries, entry)
	}
	return total, sentences, entries, nil
}

func readStatsEntry(r *bufio.Reader) (StatsEntry, error) {
	var lenBuf [2]byte
	if _, err := readFull(r, lenBuf[:]); err != nil {
		return StatsEntry{}, err
	}
	lemmaLen := binary.LittleEndian.Uint16(lenBuf[:])
	lemmaBytes := make([]byte, lemmaLen)
	if _, err := readFull(r, lemmaBytes); err != nil {
		return StatsEntry{}, err
	}
	freqBuf := make([]byte, 12)
	if _, err := readFull(r, freqBuf); err != nil {
		return StatsEntry{}, err
	}
	entry := StatsEntry{
		Lemma:        string(lemmaBytes),
		TotalFreq:    binary.LittleEndian.Uint64(freqBuf[0:8]),
		DocFreq:      binary.LittleEndian.Uint32(freqBuf[8:12]),
		POSHistogram: make(map[record.POSGroup]uint64),
	}
	var posCountBuf [2]byte
	if _, err := readFull(r, posCountBuf[:]); err != nil {
		return StatsEntry{}, err
	}
	posCount := binary.LittleEndian.Uint16(posCountBuf[:])
	for i := uint16(0); i < posCount; i++ {
		tagLenByte, err := r.ReadByte()
		if err != nil {
			return StatsEntry{}, err
		}
		tagBytes := make([]byte, tagLenByte)
		if _, err := readFull(r, tagBytes); err != nil {
			return StatsEntry{}, err
		}
		countBuf := make([]byte, 8)
		if _, err := readFull(r, countBuf); err != nil {
			return StatsEntry{}, err
		}
		entry.POSHistogram[record.POSGroup(tagBytes)] = binary.LittleEndian.Uint64(countBuf)
	}
	return entry, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := r.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
