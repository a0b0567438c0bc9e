// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	polyglot "github.com/blinklabs-io/gopolyglot"
	"github.com/blinklabs-io/gopolyglot/config"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type globalFlags struct {
	flagset        *pflag.FlagSet
	configFile     string
	network        string
	testnet        bool
	scalingTestnet bool
	logLevel       string
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: pflag.NewFlagSet(os.Args[0], pflag.ExitOnError),
	}
	f.flagset.SetInterspersed(false)
	f.flagset.StringVar(
		&f.configFile,
		"config",
		"",
		"path to YAML config file (defaults to $"+config.EnvConfigPath+")",
	)
	f.flagset.StringVar(
		&f.network,
		"network",
		"",
		"network to use (main, test or stn). this overrides the config file",
	)
	f.flagset.BoolVar(&f.testnet, "testnet", false, "use testnet")
	f.flagset.BoolVar(&f.scalingTestnet, "scaling-testnet", false, "use the scaling testnet")
	f.flagset.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.flagset.Usage = usage(f.flagset)
	return f
}

func usage(flagset *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [global flags] <subcommand> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Subcommands:\n")
		fmt.Fprintf(os.Stderr, "  upload [--compress] <file>\n")
		fmt.Fprintf(os.Stderr, "  download <locator> <output file>\n")
		fmt.Fprintf(os.Stderr, "  set-pointer [--type b|bcat|tx|txt] [--sequence N] <key> <value>\n")
		fmt.Fprintf(os.Stderr, "  address\n\n")
		fmt.Fprintf(os.Stderr, "Global flags:\n")
		flagset.PrintDefaults()
	}
}

// loadConfig applies the command line overrides to the config file
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	switch {
	case f.testnet:
		cfg.Network = polyglot.NetworkTestnet.Name
	case f.scalingTestnet:
		cfg.Network = polyglot.NetworkScalingTestnet.Name
	case f.network != "":
		network := polyglot.NetworkByName(f.network)
		if !network.Valid() {
			return nil, fmt.Errorf("invalid network specified: %s", f.network)
		}
		cfg.Network = network.Name
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func main() {
	f := newGlobalFlags()
	if err := f.flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	cfg, err := f.loadConfig()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if len(f.flagset.Args()) == 0 {
		fmt.Printf("You must specify a subcommand (upload, download, set-pointer or address)\n")
		os.Exit(1)
	}
	args := f.flagset.Args()[1:]
	switch f.flagset.Arg(0) {
	case "upload":
		runUpload(cfg, logger, args)
	case "download":
		runDownload(cfg, logger, args)
	case "set-pointer":
		runSetPointer(cfg, logger, args)
	case "address":
		runAddress(cfg, logger)
	default:
		fmt.Printf("Unknown subcommand: %s\n", f.flagset.Arg(0))
		os.Exit(1)
	}
}
