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
	"os"

	"github.com/czcorpus/wordsketch/errs"
)

// IDIndexMagic identifies a lexicon.bin dense id-index file ('WSLI').
const IDIndexMagic uint32 = 0x57534C49

// IDIndexVersion is the current lexicon.bin format version.
const IDIndexVersion uint32 = 1

// WriteIDIndex persists the dense id<->lemma mapping the builder carries
// in memory, so query-serving processes can resolve a lemma to its id
// (for SentenceStore lookups) without reconstructing the full Lexicon.
// This is §6's "lexicon.bin — dense id-indexed view used by the builder".
func (lx *Lexicon) WriteIDIndex(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.TransientIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:4], IDIndexMagic)
	binary.LittleEndian.PutUint32(header[4:8], IDIndexVersion)
	ids := lx.sortedIDs()
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(ids)))
	if _, err := w.Write(header); err != nil {
		return errs.New(errs.TransientIO, err)
	}
	for _, id := range ids {
		lemma, _ := lx.Lemma(id)
		lemmaBytes := []byte(lemma)
		if len(lemmaBytes) > 0xFFFF {
			lemmaBytes = lemmaBytes[:0xFFFF]
		}
		rec := make([]byte, 4+2+len(lemmaBytes))
		binary.LittleEndian.PutUint32(rec[0:4], id)
		binary.LittleEndian.PutUint16(rec[4:6], uint16(len(lemmaBytes)))
		copy(rec[6:], lemmaBytes)
		if _, err := w.Write(rec); err != nil {
			return errs.New(errs.TransientIO, err)
		}
	}
	return w.Flush()
}

// IDIndex is the read-only lemma<->id resolver loaded from lexicon.bin at
// query-serving startup.
type IDIndex struct {
	byLemma map[string]uint32
	byID    map[uint32]string
}

// LookupID returns the id assigned to lemma, if any.
func (ix *IDIndex) LookupID(lemma string) (uint32, bool) {
	id, ok := ix.byLemma[lemma]
	return id, ok
}

// Lemma returns the lemma registered under id, if any.
func (ix *IDIndex) Lemma(id uint32) (string, bool) {
	l, ok := ix.byID[id]
	return l, ok
}

// ReadIDIndex loads a lexicon.bin file written by WriteIDIndex.
func ReadIDIndex(path string) (*IDIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.MissingArtifact, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, 12)
	if _, err := readFull(r, header); err != nil {
		return nil, errs.New(errs.CorruptArtifact, err)
	}
	if binary.LittleEndian.Uint32(header[0:4]) != IDIndexMagic {
		return nil, errs.Newf(errs.CorruptArtifact, "lexicon.bin: bad magic")
	}
	if binary.LittleEndian.Uint32(header[4:8]) != IDIndexVersion {
		return nil, errs.Newf(errs.CorruptArtifact, "lexicon.bin: unsupported version")
	}
	count := binary.LittleEndian.Uint32(header[8:12])

	ix := &IDIndex{
		byLemma: make(map[string]uint32, count),
		byID:    make(map[uint32]string, count),
	}
	for i := uint32(0); i < count; i++ {
		var head [6]byte
		if _, err := readFull(r, head[:]); err != nil {
			return nil, errs.New(errs.CorruptArtifact, err)
		}
		id := binary.LittleEndian.Uint32(head[0:4])
		lemmaLen := binary.LittleEndian.Uint16(head[4:6])
		lemmaBytes := make([]byte, lemmaLen)
		if _, err := readFull(r, lemmaBytes); err != nil {
			return nil, errs.New(errs.CorruptArtifact, err)
		}
		lemma := string(lemmaBytes)
		ix.byLemma[lemma] = id
		ix.byID[id] = lemma
	}
	return ix, nil
}
