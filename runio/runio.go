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

// Package runio implements the sorted-run file format and merge cursor
// described in §4.4: a small fixed header followed by (key, count,
// avgDist) records in ascending key order, read back through a RunCursor
// suitable as the element type of a min-heap merge. Grounded on the fixed
// little-endian header convention record/fileformat.go uses for
// collocations.bin, applied here to an intermediate spill file instead.
package runio

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"sort"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/pairmap"
)

// RunFileMagic and RunFileVersion identify a sorted-run spill file.
const (
	RunFileMagic   uint32 = 0x52554E31 // 'RUN1'
	RunFileVersion uint32 = 1

	recordSize = 8 + 4 + 8 // key, count, avgDist (as float64 bits)
)

// WriteRun writes entries (already sorted ascending by Key, as produced by
// pairmap.PairShardMap.SortedEntries) to path as one sorted run.
func WriteRun(path string, entries []pairmap.Entry) error {
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key }) {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.TransientIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:4], RunFileMagic)
	binary.LittleEndian.PutUint32(header[4:8], RunFileVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(entries)))
	if _, err := w.Write(header); err != nil {
		return errs.New(errs.TransientIO, err)
	}

	buf := make([]byte, recordSize)
	for _, e := range entries {
		binary.LittleEndian.PutUint64(buf[0:8], e.Key)
		binary.LittleEndian.PutUint32(buf[8:12], e.Count)
		binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(e.AvgDist))
		if _, err := w.Write(buf); err != nil {
			return errs.New(errs.TransientIO, err)
		}
	}
	return errOrNil(w.Flush())
}

func errOrNil(err error) error {
	if err != nil {
		return errs.New(errs.TransientIO, err)
	}
	return nil
}

// RunCursor reads one sorted-run file sequentially, exposing the current
// record via the Key/Count/AvgDist fields and an Advance method, after §4.4's
// "advance() -> bool with public fields key, value" contract so it can be
// the element type of a container/heap min-heap during merge.
type RunCursor struct {
	f     *os.File
	r     *bufio.Reader
	count uint32
	read  uint32

	Key     uint64
	Count   uint32
	AvgDist float64
}

// OpenRun opens path for sequential reading and validates its header.
func OpenRun(path string) (*RunCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.MissingArtifact, err)
	}
	r := bufio.NewReader(f)
	header := make([]byte, 12)
	if _, err := readFull(r, header); err != nil {
		f.Close()
		return nil, errs.New(errs.CorruptArtifact, err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	version := binary.LittleEndian.Uint32(header[4:8])
	if magic != RunFileMagic {
		f.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "run file %s: bad magic 0x%08X", path, magic)
	}
	if version != RunFileVersion {
		f.Close()
		return nil, errs.Newf(errs.CorruptArtifact, "run file %s: unsupported version %d", path, version)
	}
	count := binary.LittleEndian.Uint32(header[8:12])
	return &RunCursor{f: f, r: r, count: count}, nil
}

// Advance reads the next record into Key/Count/AvgDist, returning false
// once the run is exhausted.
func (c *RunCursor) Advance() bool {
	if c.read >= c.count {
		return false
	}
	buf := make([]byte, recordSize)
	if _, err := readFull(c.r, buf); err != nil {
		return false
	}
	c.Key = binary.LittleEndian.Uint64(buf[0:8])
	c.Count = binary.LittleEndian.Uint32(buf[8:12])
	c.AvgDist = math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20]))
	c.read++
	return true
}

// Close releases the underlying file handle.
func (c *RunCursor) Close() error {
	return c.f.Close()
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
