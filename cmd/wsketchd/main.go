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

// Command wsketchd loads a server configuration and opens the artifacts
// it names, so that a future HTTP front-end has somewhere to start from.
// The HTTP surface itself is out of scope; this is the config-loading and
// artifact-opening seam it would be built on.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/wordsketch/colloc"
	"github.com/czcorpus/wordsketch/lexicon"
	"github.com/czcorpus/wordsketch/sentstore"
	"github.com/rs/zerolog/log"
)

// Config is the daemon's server configuration, decoded from a TOML file.
type Config struct {
	DBDir           string `toml:"db_dir"`
	ListenAddr      string `toml:"listen_addr"`
	WitnessWindow   uint   `toml:"witness_window"`
	WitnessPerItem  int    `toml:"witness_per_item"`
	LogLevel        string `toml:"log_level"`
	DefaultLimit    int    `toml:"default_limit"`
	EnableWitnesses bool   `toml:"enable_witnesses"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		WitnessWindow:  5,
		WitnessPerItem: 3,
		LogLevel:       "info",
		DefaultLimit:   20,
	}
}

// LoadConfig reads and decodes a TOML configuration file, filling in
// defaults for anything the file leaves unset.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	confPath := flag.String("conf", "", "path to a TOML server configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wsketchd - open a collocation database and validate its server config.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  %s -conf wsketchd.toml\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *confPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := LoadConfig(*confPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	logging.SetupLogging(logging.LoggingConf{
		Level: logging.LogLevel(cfg.LogLevel),
	})

	if cfg.DBDir == "" {
		log.Fatal().Msg("config is missing db_dir")
	}

	reader, err := colloc.Open(filepath.Join(cfg.DBDir, "collocations.bin"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open collocations.bin")
	}
	defer reader.Close()

	if cfg.EnableWitnesses {
		if _, err := lexicon.ReadIDIndex(filepath.Join(cfg.DBDir, "lexicon.bin")); err != nil {
			log.Fatal().Err(err).Msg("failed to open lexicon.bin")
		}
		store, err := sentstore.Open(filepath.Join(cfg.DBDir, "sentences"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sentences store")
		}
		defer store.Close()
	}

	log.Info().
		Str("dbDir", cfg.DBDir).
		Str("listenAddr", cfg.ListenAddr).
		Uint32("windowSize", reader.WindowSize()).
		Uint32("entryCount", reader.EntryCount()).
		Bool("witnessesEnabled", cfg.EnableWitnesses).
		Msg("collocation database opened; HTTP surface not implemented")
}
