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
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"time"

	polyglot "github.com/blinklabs-io/gopolyglot"
	"github.com/blinklabs-io/gopolyglot/bitcom"
	"github.com/blinklabs-io/gopolyglot/config"
	"github.com/spf13/pflag"
)

func newClient(cfg *config.Config, logger *slog.Logger, withIdentity bool) *polyglot.Client {
	network := polyglot.NetworkByName(cfg.Network)
	opts := []polyglot.ClientOptionFunc{
		polyglot.WithConfig(cfg),
		polyglot.WithNetwork(network),
		polyglot.WithLogger(logger),
	}
	if withIdentity {
		wif, err := readWIF(network)
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		opts = append(opts, polyglot.WithWIF(wif))
	}
	client, err := polyglot.New(opts...)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	return client
}

func parseSubcommand(flagset *pflag.FlagSet, args []string, numArgs int, usage string) []string {
	if err := flagset.Parse(args); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if flagset.NArg() != numArgs {
		fmt.Printf("Usage: %s\n", usage)
		os.Exit(1)
	}
	return flagset.Args()
}

func runUpload(cfg *config.Config, logger *slog.Logger, args []string) {
	flagset := pflag.NewFlagSet("upload", pflag.ExitOnError)
	compress := flagset.Bool("compress", false, "gzip the file and upload it as BCAT")
	noResume := flagset.Bool("no-resume", false, "do not reuse parts from an interrupted upload")
	posArgs := parseSubcommand(flagset, args, 1, "upload [--compress] [--no-resume] <file>")
	if *noResume {
		cfg.Upload.CheckpointDir = ""
	}
	client := newClient(cfg, logger, true)
	defer client.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	txId, err := client.UploadPath(ctx, posArgs[0], *compress)
	if err != nil {
		fmt.Printf("ERROR: upload failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("txid %s\n", txId)
}

func runDownload(cfg *config.Config, logger *slog.Logger, args []string) {
	flagset := pflag.NewFlagSet("download", pflag.ExitOnError)
	posArgs := parseSubcommand(flagset, args, 2, "download <locator> <output file>")
	client := newClient(cfg, logger, false)
	defer client.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := client.Download(ctx, posArgs[0])
	if err != nil {
		fmt.Printf("ERROR: download failed: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(posArgs[1], res.Data, 0o644); err != nil { // #nosec G306
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	printField("txid", res.TxId)
	printField("protocol", res.Kind.String())
	printField("mediatype", res.MediaType)
	printField("encoding", res.Encoding)
	printField("filename", res.Filename)
	printField("info", res.Info)
	printField("flag", res.Flag)
	printField("size", fmt.Sprint(len(res.Data)))
}

func printField(name string, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%s %s\n", name, value)
}

func runSetPointer(cfg *config.Config, logger *slog.Logger, args []string) {
	flagset := pflag.NewFlagSet("set-pointer", pflag.ExitOnError)
	valueType := flagset.String("type", bitcom.PointerTypeB, "value type: b, bcat, tx or txt")
	sequence := flagset.String("sequence", "", "record sequence number (defaults to the current unix time)")
	posArgs := parseSubcommand(flagset, args, 2, "set-pointer [--type b|bcat|tx|txt] [--sequence N] <key> <value>")
	value, err := bitcom.NewPointerValue(*valueType, posArgs[1])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	seq := big.NewInt(time.Now().Unix())
	if *sequence != "" {
		var ok bool
		seq, ok = new(big.Int).SetString(*sequence, 10)
		if !ok || seq.Sign() < 0 {
			fmt.Printf("ERROR: invalid sequence %q\n", *sequence)
			os.Exit(1)
		}
	}
	client := newClient(cfg, logger, true)
	defer client.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	txId, err := client.SetPointer(ctx, posArgs[0], value, seq)
	if err != nil {
		fmt.Printf("ERROR: set-pointer failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("txid %s\n", txId)
	fmt.Printf("locator d://%s/%s\n", client.Address(), posArgs[0])
}

func runAddress(cfg *config.Config, logger *slog.Logger) {
	client := newClient(cfg, logger, true)
	defer client.Close()
	fmt.Printf("address %s\n", client.Address())
}
