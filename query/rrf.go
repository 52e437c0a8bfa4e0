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

package query

import "sort"

// rrfConstantD is the standard Reciprocal Rank Fusion smoothing constant,
// same value the source uses.
const rrfConstantD = 60.0

// SortByRRF reorders results by Reciprocal Rank Fusion across three
// independent rankings (logDice, LMI, t-score), the same three-measure
// fusion the source computes via SortByRRF, adapted here to operate on
// Result values keyed by lemma instead of Collocation.Hash().
func SortByRRF(results []Result) {
	n := len(results)
	if n == 0 {
		return
	}

	byLogDice := append([]Result(nil), results...)
	sort.Slice(byLogDice, func(i, j int) bool { return byLogDice[i].LogDice > byLogDice[j].LogDice })

	byLMI := append([]Result(nil), results...)
	sort.Slice(byLMI, func(i, j int) bool { return byLMI[i].LMI > byLMI[j].LMI })

	byTScore := append([]Result(nil), results...)
	sort.Slice(byTScore, func(i, j int) bool { return byTScore[i].TScore > byTScore[j].TScore })

	scores := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		scores[byLogDice[i].Lemma] += 1.0 / (rrfConstantD + float64(i))
		scores[byLMI[i].Lemma] += 1.0 / (rrfConstantD + float64(i))
		scores[byTScore[i].Lemma] += 1.0 / (rrfConstantD + float64(i))
	}
	for i := range results {
		results[i].RRFScore = scores[results[i].Lemma]
	}
	sort.Slice(results, func(i, j int) bool { return results[i].RRFScore > results[j].RRFScore })
}
