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

// Package colloc implements the §4.7 collocations.bin writer and
// mmap-backed reader: the one component with no direct precedent in the
// teacher (which queries its BadgerDB live rather than sealing a query
// artifact). Grounded on the example pack's mmap-backed dictionary readers
// for the "read the offset table once, seek per lookup" discipline.
package colloc

import (
	"bufio"
	"os"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/record"
	"github.com/rs/zerolog/log"
)

// Writer builds a collocations.bin file: entries are appended sequentially
// while their byte offsets are recorded, then the offset table is appended
// and the header is rewritten with final counts and positions. If Abort
// (or a write error) occurs, the partially written file is removed so a
// crash never leaves a half-sealed collocations.bin, per §4.7 and §7.
type Writer struct {
	path       string
	f          *os.File
	w          *bufio.Writer
	offset     uint64 // current byte offset within the entries region, relative to HeaderSize
	offsets    []record.OffsetTableEntry
	entryCount uint32
	windowSize uint32
	topK       uint32
	closed     bool
}

// NewWriter creates path and reserves header space for a build configured
// with the given window size and top-K.
func NewWriter(path string, windowSize, topK uint32) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.New(errs.TransientIO, err)
	}
	if _, err := f.Write(make([]byte, record.HeaderSize)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errs.New(errs.TransientIO, err)
	}
	return &Writer{
		path:       path,
		f:          f,
		w:          bufio.NewWriter(f),
		windowSize: windowSize,
		topK:       topK,
	}, nil
}

// WriteEntry appends one headword's entry, recording its offset for the
// final offset table. Entries whose headword exceeds the u16 on-disk
// width are dropped (OversizedEntry) rather than failing the whole build.
func (w *Writer) WriteEntry(entry record.CollocationEntry) error {
	encoded, err := record.EncodeEntry(entry)
	if err != nil {
		log.Warn().Str("headword", entry.Headword).Err(err).Msg("dropping oversized headword entry")
		return nil
	}
	if _, err := w.w.Write(encoded); err != nil {
		w.abort()
		return errs.New(errs.TransientIO, err)
	}
	w.offsets = append(w.offsets, record.OffsetTableEntry{
		Lemma:       entry.Headword,
		EntryOffset: record.HeaderSize + w.offset,
	})
	w.offset += uint64(len(encoded))
	w.entryCount++
	return nil
}

// Finalize appends the offset table and rewrites the header with the
// final entry count, window size, top-K, total corpus tokens, and offset
// table position/size, then closes the file.
func (w *Writer) Finalize(totalCorpusTokens uint64) error {
	if err := w.w.Flush(); err != nil {
		w.abort()
		return errs.New(errs.TransientIO, err)
	}

	tableOffset := record.HeaderSize + w.offset
	tableBytes, err := record.EncodeOffsetTable(w.offsets)
	if err != nil {
		w.abort()
		return errs.New(errs.OversizedEntry, err)
	}
	if _, err := w.f.Write(tableBytes); err != nil {
		w.abort()
		return errs.New(errs.TransientIO, err)
	}

	header := record.EncodeHeader(record.CollFileHeader{
		Magic:             record.CollFileMagic,
		Version:           record.CollFileVersion,
		EntryCount:        w.entryCount,
		WindowSize:        w.windowSize,
		TopK:              w.topK,
		TotalCorpusTokens: totalCorpusTokens,
		OffsetTableOffset: tableOffset,
		OffsetTableSize:   uint64(len(tableBytes)),
	})
	if _, err := w.f.WriteAt(header, 0); err != nil {
		w.abort()
		return errs.New(errs.TransientIO, err)
	}
	w.closed = true
	return w.f.Close()
}

// Abort discards the file being written, e.g. when a fatal build error
// aborts the pipeline mid-way. The file must never be left half-sealed.
func (w *Writer) Abort() error {
	return w.abort()
}

func (w *Writer) abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.f.Close()
	return os.Remove(w.path)
}
