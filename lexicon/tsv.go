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
	"fmt"
	"os"
	"sort"

	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/record"
)

// WriteStatsTSV writes the same content as WriteStats in a tab-separated,
// human-inspectable form: lemma, total_freq, doc_freq, then pos:count
// pairs joined by commas.
func (lx *Lexicon) WriteStatsTSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.TransientIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, "lemma\ttotal_freq\tdoc_freq\tpos_histogram"); err != nil {
		return errs.New(errs.TransientIO, err)
	}
	for _, id := range lx.sortedIDs() {
		lemma, _ := lx.Lemma(id)
		histo := lx.PosHistogram(id)
		tags := make([]string, 0, len(histo))
		for grp := range histo {
			tags = append(tags, string(grp))
		}
		sort.Strings(tags)
		histoStr := ""
		for i, tag := range tags {
			if i > 0 {
				histoStr += ","
			}
			histoStr += fmt.Sprintf("%s:%d", tag, histo[record.POSGroup(tag)])
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", lemma, lx.Frequency(id), lx.DocFrequency(id), histoStr); err != nil {
			return errs.New(errs.TransientIO, err)
		}
	}
	return w.Flush()
}
