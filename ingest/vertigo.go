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

package ingest

import (
	"context"
	"fmt"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/tomachalek/vertigo/v6"
)

// VertigoFeed drives vertigo.ParseVerticalFile in its own goroutine and
// exposes the sentences it assembles as a pull-based SentenceFeed,
// bridging vertigo's push-style TokenProcessor callbacks (ProcToken,
// ProcStruct, ProcStructClose) to the Ingester's Next()-driven loop. It
// replaces hand-written CoNLL-U line splitting: the corpus-text parsing
// itself stays an external concern (vertigo's), only sentence boundary
// accumulation is ours, adapted from the source's Searcher.
type VertigoFeed struct {
	lemmaIdx, posIdx int

	prevTokens       *collections.CircularList[*vertigo.Token]
	lastTokenIdx     int
	lastSentStartIdx int
	lastSentEndIdx   int
	foundNewSent     bool

	sentences chan RawSentence
	errs      chan error
	done      chan struct{}
}

// NewVertigoFeed starts parsing conf.InputFilePath in the background.
// lemmaIdx/posIdx are the 0-based positional-attribute indices carrying
// the lemma and POS tag, matching the source's NewSearcher convention.
func NewVertigoFeed(ctx context.Context, conf vertigo.ParserConf, lemmaIdx, posIdx, maxSentSize int) *VertigoFeed {
	vf := &VertigoFeed{
		lemmaIdx:   lemmaIdx,
		posIdx:     posIdx,
		prevTokens: collections.NewCircularList[*vertigo.Token](maxSentSize),
		sentences:  make(chan RawSentence, 16),
		errs:       make(chan error, 1),
		done:       make(chan struct{}),
	}
	go func() {
		defer close(vf.sentences)
		err := vertigo.ParseVerticalFile(ctx, &conf, vf)
		if err != nil {
			vf.errs <- err
		}
		close(vf.done)
	}()
	return vf
}

func (vf *VertigoFeed) ProcToken(tk *vertigo.Token, line int, err error) error {
	if err != nil {
		return err
	}
	vf.prevTokens.Append(tk)
	vf.lastTokenIdx = tk.Idx
	if vf.foundNewSent {
		vf.lastSentStartIdx = tk.Idx
		vf.foundNewSent = false
	}
	return nil
}

func (vf *VertigoFeed) ProcStruct(st *vertigo.Structure, line int, err error) error {
	if err != nil {
		return err
	}
	if st.Name == "s" {
		vf.lastSentEndIdx = vf.lastTokenIdx
		vf.emitLastSentence()
		vf.foundNewSent = true
	}
	return nil
}

func (vf *VertigoFeed) ProcStructClose(st *vertigo.StructureClose, line int, err error) error {
	return err
}

func (vf *VertigoFeed) emitLastSentence() {
	var sentOpen bool
	var sent RawSentence
	vf.prevTokens.ForEach(func(i int, item *vertigo.Token) bool {
		if item.Idx == vf.lastSentStartIdx {
			sentOpen = true
		}
		if sentOpen {
			lemma := item.PosAttrByIndex(vf.lemmaIdx)
			if lemma == "_" || lemma == "" {
				lemma = item.Word
			}
			sent.Toks = append(sent.Toks, RawToken{
				Surface: item.Word,
				Lemma:   lemma,
				Tag:     item.PosAttrByIndex(vf.posIdx),
			})
		}
		if item.Idx == vf.lastSentEndIdx {
			sentOpen = false
		}
		return true
	})
	if len(sent.Toks) == 0 {
		return
	}
	vf.sentences <- sent
}

// Next returns the next assembled sentence, blocking until vertigo
// produces one, the stream is exhausted, or the parser fails.
func (vf *VertigoFeed) Next() (RawSentence, bool, error) {
	sent, ok := <-vf.sentences
	if !ok {
		select {
		case err := <-vf.errs:
			return RawSentence{}, false, fmt.Errorf("vertigo parse failed: %w", err)
		default:
			return RawSentence{}, false, nil
		}
	}
	return sent, true, nil
}
