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

import "math"

// Measure identifies one of the association scores the "algorithm"
// endpoint can rank by. Only logDice is persisted in collocations.bin;
// the others are recomputed on demand from the frequencies the
// precomputed record already carries plus the corpus size from the file
// header, exactly as the source's CalculateMeasures does against a live
// BadgerDB scan.
type Measure string

const (
	MeasureLogDice Measure = "logdice"
	MeasureTScore  Measure = "tscore"
	MeasureLMI     Measure = "lmi"
	MeasureLL      Measure = "ll"
	MeasureRRF     Measure = "rrf"
)

// TScore is the simple t-test association score.
func TScore(cooc, headFreq, collFreq uint64, corpusSize uint64) float64 {
	if cooc == 0 || corpusSize == 0 {
		return 0
	}
	expected := float64(headFreq) * float64(collFreq) / float64(corpusSize)
	return (float64(cooc) - expected) / math.Sqrt(float64(cooc))
}

// LMI is local mutual information: pointwise mutual information (log2 of
// observed over expected co-occurrence) weighted by the co-occurrence count.
func LMI(cooc, headFreq, collFreq uint64, corpusSize uint64) float64 {
	if cooc == 0 || headFreq == 0 || collFreq == 0 || corpusSize == 0 {
		return 0
	}
	return float64(cooc) * math.Log2(float64(corpusSize)*float64(cooc)/(float64(headFreq)*float64(collFreq)))
}

// LogLikelihood is Dunning's log-likelihood ratio for a 2x2 contingency
// table built from (cooc, headFreq, collFreq, corpusSize).
func LogLikelihood(cooc, headFreq, collFreq, corpusSize uint64) float64 {
	a := float64(cooc)
	b := float64(headFreq) - a
	c := float64(collFreq) - a
	d := float64(corpusSize) - float64(headFreq) - float64(collFreq) + a
	if a <= 0 || b <= 0 || c <= 0 || d <= 0 {
		return 0
	}
	return 2 * (a*math.Log(a) + b*math.Log(b) + c*math.Log(c) + d*math.Log(d) -
		(a+b)*math.Log(a+b) - (a+c)*math.Log(a+c) -
		(b+d)*math.Log(b+d) - (c+d)*math.Log(c+d) +
		(a+b+c+d)*math.Log(a+b+c+d))
}
