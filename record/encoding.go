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


// PackPairKey packs a (headId, collId) pair into the 64-bit key used
// throughout the accumulation pipeline (PairShardMap, sorted runs): the
// head id occupies the high 32 bits so sorting by key groups all pairs of
// one headword together, and the low bits of headId double as the shard
// selector (see ShardOf).
func PackPairKey(headID, collID uint32) uint64 {
	return uint64(headID)<<32 | uint64(collID)
}

// UnpackPairKey reverses PackPairKey.
func UnpackPairKey(key uint64) (headID, collID uint32) {
	return uint32(key >> 32), uint32(key)
}

// HeadIDOf extracts just the head id from a packed key, which is all the
// reducer needs to detect a headword boundary while scanning a sorted run.
func HeadIDOf(key uint64) uint32 {
	return uint32(key >> 32)
}

// ShardOf returns the shard index for a packed key given a power-of-two
// shard count, selecting on the low bits of the head id.
func ShardOf(key uint64, numShards int) int {
	return int(HeadIDOf(key)) & (numShards - 1)
}
