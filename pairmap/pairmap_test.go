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

package pairmap

import (
	"sync"
	"testing"

	"github.com/czcorpus/wordsketch/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOccurrenceAccumulates(t *testing.T) {
	pm := New(4, 1000)
	key := record.PackPairKey(1, 2)
	pm.AddOccurrence(key, 1.0)
	pm.AddOccurrence(key, 3.0)

	entries := pm.SortedEntries(record.ShardOf(key, 4))
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(2), entries[0].Count)
	assert.InDelta(t, 2.0, entries[0].AvgDist, 1e-9)
}

func TestShardingByHeadID(t *testing.T) {
	pm := New(4, 1000)
	keyA := record.PackPairKey(0, 99) // shard 0
	keyB := record.PackPairKey(1, 99) // shard 1
	pm.AddOccurrence(keyA, 1.0)
	pm.AddOccurrence(keyB, 1.0)

	assert.Equal(t, 1, pm.ShardSize(0))
	assert.Equal(t, 1, pm.ShardSize(1))
}

func TestSortedEntriesAscendingByKey(t *testing.T) {
	pm := New(1, 1000)
	k1 := record.PackPairKey(0, 5)
	k2 := record.PackPairKey(0, 2)
	k3 := record.PackPairKey(0, 9)
	pm.AddOccurrence(k1, 0)
	pm.AddOccurrence(k2, 0)
	pm.AddOccurrence(k3, 0)

	entries := pm.SortedEntries(0)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Key < entries[1].Key)
	assert.True(t, entries[1].Key < entries[2].Key)
}

func TestClearEmptiesShard(t *testing.T) {
	pm := New(2, 1000)
	key := record.PackPairKey(0, 1)
	pm.AddOccurrence(key, 0)
	require.Equal(t, 1, pm.ShardSize(record.ShardOf(key, 2)))
	pm.Clear(record.ShardOf(key, 2))
	assert.Equal(t, 0, pm.ShardSize(record.ShardOf(key, 2)))
}

func TestThresholdSignal(t *testing.T) {
	pm := New(1, 2)
	k1 := record.PackPairKey(0, 1)
	k2 := record.PackPairKey(0, 2)
	reached := pm.AddOccurrence(k1, 0)
	assert.False(t, reached)
	reached = pm.AddOccurrence(k2, 0)
	assert.True(t, reached)
}

func TestConcurrentAddOccurrence(t *testing.T) {
	pm := New(8, 1_000_000)
	key := record.PackPairKey(3, 7)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pm.AddOccurrence(key, 1.0)
		}()
	}
	wg.Wait()
	entries := pm.SortedEntries(record.ShardOf(key, 8))
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(100), entries[0].Count)
}
