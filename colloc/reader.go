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

package colloc

import (
	"os"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/record"
	"github.com/edsrzf/mmap-go"
)

// Reader memory-maps a sealed collocations.bin file read-only and answers
// Get(headword) by seeking to a precomputed byte offset and decoding one
// entry, per §4.7's "read the offset table once, seek per lookup"
// contract. Lookups are thread-safe (the mmap and offset index are never
// mutated after Open) and allocation-light.
type Reader struct {
	f         *os.File
	data      mmap.MMap
	header    record.CollFileHeader
	byHeadword map[string]uint64 // headword -> absolute byte offset of its entry
}

// Open validates magic/version, memory-maps path, and loads the offset
// table into an in-memory index.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.MissingArtifact, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errs.New(errs.CorruptArtifact, err)
	}

	r := &Reader{f: f, data: data}
	if len(data) < record.HeaderSize {
		r.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "collocations.bin: file smaller than header (%d bytes)", len(data))
	}
	header, err := record.DecodeHeader(data[:record.HeaderSize])
	if err != nil {
		r.Close()
		return nil, errs.New(errs.CorruptArtifact, err)
	}
	if header.Magic != record.CollFileMagic {
		r.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "collocations.bin: bad magic 0x%08X", header.Magic)
	}
	if header.Version != record.CollFileVersion {
		r.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "collocations.bin: unsupported version %d", header.Version)
	}
	r.header = header

	tableStart := header.OffsetTableOffset
	tableEnd := tableStart + header.OffsetTableSize
	if tableEnd > uint64(len(data)) {
		r.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "collocations.bin: offset table out of bounds")
	}
	table, err := record.DecodeOffsetTable(data[tableStart:tableEnd])
	if err != nil {
		r.Close()
		return nil, errs.New(errs.CorruptArtifact, err)
	}
	r.byHeadword = make(map[string]uint64, len(table))
	for _, e := range table {
		r.byHeadword[e.Lemma] = e.EntryOffset
	}
	return r, nil
}

// WindowSize returns the window size the sealed file was built with. It
// is informational: witness-mode span search uses the window its caller
// configures, which need not match this value.
func (r *Reader) WindowSize() uint32 { return r.header.WindowSize }

// TopK returns the per-headword candidate bound the file was built with.
func (r *Reader) TopK() uint32 { return r.header.TopK }

// TotalCorpusTokens returns the corpus size recorded at build time.
func (r *Reader) TotalCorpusTokens() uint64 { return r.header.TotalCorpusTokens }

// EntryCount returns the number of headword entries in the file.
func (r *Reader) EntryCount() uint32 { return r.header.EntryCount }

// Get decodes and returns the entry for headword, if present.
func (r *Reader) Get(headword string) (record.CollocationEntry, bool, error) {
	offset, ok := r.byHeadword[headword]
	if !ok {
		return record.CollocationEntry{}, false, nil
	}
	if offset >= uint64(len(r.data)) {
		return record.CollocationEntry{}, false, errs.Newf(errs.CorruptArtifact, "collocations.bin: entry offset out of bounds for %q", headword)
	}
	entry, _, err := record.DecodeEntry(r.data[offset:])
	if err != nil {
		return record.CollocationEntry{}, false, errs.New(errs.CorruptArtifact, err)
	}
	return entry, true, nil
}

// Headwords returns every headword present in the file, in no particular
// order, mainly for diagnostics/iteration.
func (r *Reader) Headwords() []string {
	out := make([]string, 0, len(r.byHeadword))
	for h := range r.byHeadword {
		out = append(out, h)
	}
	return out
}

// Close unmaps the file and releases its handle.
func (r *Reader) Close() error {
	var firstErr error
	if r.data != nil {
		if err := r.data.Unmap(); err != nil {
			firstErr = err
		}
	}
	if r.f != nil {
		if err := r.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
