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

package runio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/czcorpus/wordsketch/pairmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadRunRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run0")
	entries := []pairmap.Entry{
		{Key: 3, Count: 1, AvgDist: 1.5},
		{Key: 1, Count: 2, AvgDist: -2.0},
		{Key: 2, Count: 5, AvgDist: 0.0},
	}
	require.NoError(t, WriteRun(path, entries))

	cur, err := OpenRun(path)
	require.NoError(t, err)
	defer cur.Close()

	var got []uint64
	for cur.Advance() {
		got = append(got, cur.Key)
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestOpenRunRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(path, []byte("not a run file at all......"), 0o644))
	_, err := OpenRun(path)
	assert.Error(t, err)
}

func TestMergerCoalescesDuplicateKeysAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	run1 := filepath.Join(dir, "run1")
	run2 := filepath.Join(dir, "run2")
	require.NoError(t, WriteRun(run1, []pairmap.Entry{
		{Key: 10, Count: 2, AvgDist: 1.0},
		{Key: 20, Count: 1, AvgDist: 2.0},
	}))
	require.NoError(t, WriteRun(run2, []pairmap.Entry{
		{Key: 10, Count: 3, AvgDist: 2.0},
		{Key: 15, Count: 1, AvgDist: 0.5},
	}))

	merger, err := NewMerger([]string{run1, run2})
	require.NoError(t, err)
	defer merger.Close()

	var records []MergedRecord
	for {
		rec, ok := merger.Next()
		if !ok {
			break
		}
		records = append(records, rec)
	}

	require.Len(t, records, 3)
	assert.Equal(t, uint64(10), records[0].Key)
	assert.Equal(t, uint32(5), records[0].Count) // 2+3 coalesced
	assert.InDelta(t, 1.6, records[0].AvgDist, 1e-9) // (1*2 + 2*3)/5
	assert.Equal(t, uint64(15), records[1].Key)
	assert.Equal(t, uint64(20), records[2].Key)
}

func TestMergerAscendingOrder(t *testing.T) {
	dir := t.TempDir()
	runA := filepath.Join(dir, "a")
	runB := filepath.Join(dir, "b")
	require.NoError(t, WriteRun(runA, []pairmap.Entry{{Key: 1, Count: 1}, {Key: 5, Count: 1}}))
	require.NoError(t, WriteRun(runB, []pairmap.Entry{{Key: 2, Count: 1}, {Key: 4, Count: 1}}))

	merger, err := NewMerger([]string{runA, runB})
	require.NoError(t, err)
	defer merger.Close()

	var keys []uint64
	for {
		rec, ok := merger.Next()
		if !ok {
			break
		}
		keys = append(keys, rec.Key)
	}
	assert.Equal(t, []uint64{1, 2, 4, 5}, keys)
}

