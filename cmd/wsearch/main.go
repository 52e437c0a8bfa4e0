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

// Command wsearch looks up collocations for a headword against a sealed
// collocations.bin, either once or in an interactive read-eval-print
// loop, printing a table (or JSON) of ranked collocates.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/errs"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/query"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/rs/zerolog/log"
)

type srchCommand struct {
	lemma    string
	relation string
}

func evalREPLCommand(cmd string) srchCommand {
	items := strings.Split(strings.TrimSpace(cmd), " ")
	ans := srchCommand{lemma: items[0]}
	if len(items) > 1 && items[1] != "-" {
		ans.relation = items[1]
	}
	return ans
}

func sortResults(results []query.Result, measure string) {
	switch measure {
	case "tscore":
		sort.SliceStable(results, func(i, j int) bool { return results[i].TScore > results[j].TScore })
	case "lmi":
		sort.SliceStable(results, func(i, j int) bool { return results[i].LMI > results[j].LMI })
	case "ll":
		sort.SliceStable(results, func(i, j int) bool { return results[i].LogLikelihood > results[j].LogLikelihood })
	case "rrf":
		query.SortByRRF(results)
	default: // logdice, the precomputed file's own ranking
		sort.SliceStable(results, func(i, j int) bool { return results[i].LogDice > results[j].LogDice })
	}
}

func main() {
	limit := flag.Int("limit", 10, "max num. of matching items to show")
	sortBy := flag.String("sort-by", "rrf", "sorting measure (logdice, tscore, lmi, ll, rrf)")
	minLogDice := flag.Float64("min-log-dice", 0, "drop collocates below this logDice score")
	relationID := flag.String("relation", "", "restrict to one registered relation (modifiers-of, nouns-modified-by, verbs-subject, verbs-object)")
	witness := flag.Bool("witness", false, "attach example sentences (requires sentences/ and lexicon.bin next to collocations.bin)")
	window := flag.Uint("window", 5, "witness-mode span window (tokens); ignored without -witness")
	jsonOut := flag.Bool("json-out", false, "if set then JSON format will be used to print results")
	logLevel := flag.String("log-level", "info", "set log level (debug, info, warn, error)")
	repl := flag.Bool("repl", false, "if set, then the search will run in an infinite read-eval-print loop (until Ctrl+C is pressed)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wsearch - search for collocations of a provided lemma\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [options] [db_dir] [lemma]\n\t", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.SetupLogging(logging.LoggingConf{
		Level: logging.LogLevel(*logLevel),
	})

	dbDir := flag.Arg(0)
	reader, err := colloc.Open(filepath.Join(dbDir, "collocations.bin"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}
	defer reader.Close()

	registry := query.DefaultRegistry()

	var wx *query.WitnessExecutor
	if *witness {
		ids, err := lexicon.ReadIDIndex(filepath.Join(dbDir, "lexicon.bin"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
		store, err := sentstore.Open(filepath.Join(dbDir, "sentences"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
		defer store.Close()
		wx = query.NewWitnessExecutor(reader, store, ids, uint32(*window), 3)
	}
	ex := query.NewExecutor(reader)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdReader := bufio.NewReader(os.Stdin)

	currCommand := srchCommand{
		lemma:    flag.Arg(1),
		relation: *relationID,
	}

	for {
		if *repl && currCommand.lemma == "" {
			fmt.Println("\nenter a query (lemma [optional relation]):")
			cmdChan := make(chan string, 1)
			go func() {
				cmd, _ := cmdReader.ReadString('\n')
				cmdChan <- cmd
			}()

			select {
			case <-ctx.Done():
				fmt.Println("\nExiting...")
				return
			case cmd := <-cmdChan:
				currCommand = evalREPLCommand(cmd)
			}
		}

		if currCommand.lemma == "" {
			fmt.Println("no query entered")
			continue
		}

		filter := query.Filter{MinLogDice: *minLogDice, Limit: *limit}
		if currCommand.relation != "" {
			rel, ok := registry.Get(currCommand.relation)
			if !ok {
				fmt.Fprintf(os.Stderr, "unknown relation: %s\n", currCommand.relation)
				os.Exit(1)
			}
			filter.Relation = rel
		}

		var results []query.Result
		if wx != nil {
			results, err = wx.FindCollocationsWithWitnesses(ctx, currCommand.lemma, filter)
		} else {
			results, err = ex.FindCollocations(currCommand.lemma, filter)
		}
		if kind, ok := errs.KindOf(err); ok && kind == errs.ClientGone {
			log.Debug().Err(err).Msg("query cancelled")
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
		sortResults(results, *sortBy)
		if *limit > 0 && len(results) > *limit {
			results = results[:*limit]
		}

		if *jsonOut {
			for _, item := range results {
				out, err := json.Marshal(item)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to json-encode value: %s", err)
					os.Exit(1)
				}
				fmt.Println(string(out))
			}

		} else {
			fmt.Println()

			if len(results) > 0 {
				headerFmt := color.New(color.FgGreen).SprintfFunc()
				columnFmt := color.New(color.FgHiMagenta).SprintfFunc()

				tbl := table.New(
					"collocate",
					"PoS",
					"cooccurrence",
					"rel. freq.",
					"T-Score",
					"Log-Dice",
					"LMI",
					"LL",
					"RRF",
					"witness",
				)
				tbl.
					WithHeaderFormatter(headerFmt).
					WithFirstColumnFormatter(columnFmt).
					WithHeaderSeparatorRow('═')
				for _, item := range results {
					witnessCell := ""
					if len(item.Examples) > 0 {
						witnessCell = item.Examples[0].Text
					}
					tbl.AddRow(
						item.Lemma, item.POS, item.Cooccurrence, item.RelativeFrequency,
						item.TScore, item.LogDice, item.LMI, item.LogLikelihood, item.RRFScore,
						witnessCell,
					)
				}
				tbl.Print()

			} else {
				fmt.Println("-- NO RESULT --")
			}
		}

		if *repl {
			currCommand = srchCommand{}

		} else {
			return
		}
	}
}
