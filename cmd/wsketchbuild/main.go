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

// Command wsketchbuild runs the full build pipeline over a vertical
// corpus file (or a directory of them): ingest into sentences and
// sorted co-occurrence runs, then reduce into a sealed collocations.bin
// ready for wsearch/wsketchd to open.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/ingest"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/pairmap"
	"github.com/czcorpus/wordsketch/reduce"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/rs/zerolog/log"
	"github.com/tomachalek/vertigo/v6"
)

// multiFileFeed chains a VertigoFeed per file so one Ingester.Run call
// (it is a one-shot state machine, per §4.5) can consume an entire
// directory of vertical files in sequence.
type multiFileFeed struct {
	ctx         context.Context
	files       []string
	lemmaIdx    int
	posIdx      int
	maxSentSize int

	pos     int
	current *ingest.VertigoFeed
}

func (f *multiFileFeed) Next() (ingest.RawSentence, bool, error) {
	for {
		if f.current == nil {
			if f.pos >= len(f.files) {
				return ingest.RawSentence{}, false, nil
			}
			vertFile := f.files[f.pos]
			f.pos++
			log.Info().Str("file", vertFile).Msg("starting ingest")
			f.current = ingest.NewVertigoFeed(f.ctx, vertigo.ParserConf{
				InputFilePath:         vertFile,
				Encoding:              "utf-8",
				StructAttrAccumulator: "comb",
				LogProgressEachNth:    100000,
			}, f.lemmaIdx, f.posIdx, f.maxSentSize)
		}
		sent, ok, err := f.current.Next()
		if err != nil {
			return ingest.RawSentence{}, false, err
		}
		if !ok {
			f.current = nil
			continue
		}
		return sent, true, nil
	}
}

func determineFilesToProc(path string) ([]string, error) {
	isDir, err := fs.IsDir(path)
	if err != nil {
		return []string{}, fmt.Errorf("failed to determine files to process: %w", err)
	}
	ans := make([]string, 0, 50)
	if isDir {
		entries, err := os.ReadDir(path)
		if err != nil {
			return []string{}, fmt.Errorf("failed to list directory contents: %w", err)
		}
		for _, entry := range entries {
			ans = append(ans, filepath.Join(path, entry.Name()))
		}

	} else {
		ans = append(ans, path)
	}
	return ans, nil
}

func main() {
	lemmaIdx := flag.Int("lemma-idx", 2, "vertical file column position where lemma is located")
	posIdx := flag.Int("pos-idx", 5, "vertical file column position where PoS is located")
	window := flag.Uint("window", 5, "symmetric co-occurrence window size (tokens on each side)")
	numShards := flag.Int("num-shards", 16, "number of pair-map shards (must be a power of two)")
	spillThreshold := flag.Int("spill-threshold", 2_000_000, "pairs accumulated in one shard before a global spill")
	maxSentSize := flag.Int("max-sent-size", 200, "largest sentence (in tokens) the ingester will buffer")
	minCooccurrence := flag.Uint64("min-cooccurrence", 2, "drop collocates below this raw co-occurrence count")
	minHeadwordFreq := flag.Uint64("min-headword-frequency", 10, "skip headwords below this corpus frequency")
	topK := flag.Int("top-k", 100, "max collocates retained per headword")
	logLevel := flag.String("log-level", "info", "set log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wsketchbuild - build a collocations.bin from a vertical corpus.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [options] [vert_path] [out_dir]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.SetupLogging(logging.LoggingConf{
		Level: logging.LogLevel(*logLevel),
	})

	vertPath := flag.Arg(0)
	outDir := flag.Arg(1)
	if vertPath == "" || outDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(2)
	}

	lx := lexicon.New(32)
	store, err := sentstore.Open(filepath.Join(outDir, "sentences"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(2)
	}
	defer store.Close()

	runDir := filepath.Join(outDir, "runs")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(2)
	}
	pairs := pairmap.New(*numShards, *spillThreshold)
	ing := ingest.New(lx, store, pairs, uint32(*window), runDir)

	files, err := determineFilesToProc(vertPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(2)
	}

	ctx := context.Background()
	feed := &multiFileFeed{
		ctx:         ctx,
		files:       files,
		lemmaIdx:    *lemmaIdx,
		posIdx:      *posIdx,
		maxSentSize: *maxSentSize,
	}
	report, err := ing.Run(feed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(3)
	}

	log.Info().
		Uint64("totalSentences", report.TotalSentences).
		Uint64("totalTokens", report.TotalTokens).
		Uint64("malformedSkipped", report.MalformedSkipped).
		Msg("ingest finished")

	if err := lx.WriteStats(filepath.Join(outDir, "stats.bin"), report.TotalSentences); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(4)
	}
	if err := lx.WriteStatsTSV(filepath.Join(outDir, "stats.tsv")); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(4)
	}
	if err := lx.WriteIDIndex(filepath.Join(outDir, "lexicon.bin")); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(4)
	}

	w, err := colloc.NewWriter(filepath.Join(outDir, "collocations.bin"), uint32(*window), uint32(*topK))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(4)
	}
	cfg := reduce.Config{
		MinCooccurrence:      *minCooccurrence,
		MinHeadwordFrequency: *minHeadwordFreq,
		TopK:                 *topK,
	}
	if err := reduce.ReduceAll(report.RunPathsByShard, lx, store, cfg, w, lx.TotalTokens()); err != nil {
		_ = w.Abort()
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(5)
	}

	log.Info().Str("outDir", outDir).Msg("build complete")
}
