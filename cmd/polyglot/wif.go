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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	polyglot "github.com/blinklabs-io/gopolyglot"
	"github.com/blinklabs-io/gopolyglot/wallet"
	"golang.org/x/term"
)

const envWIF = "POLYGLOT_WIF"

// readWIF returns the signing key from POLYGLOT_WIF or an interactive prompt
// with echo disabled. The key is checked before use
func readWIF(network polyglot.Network) (string, error) {
	wif := strings.TrimSpace(os.Getenv(envWIF))
	if wif == "" {
		var err error
		wif, err = promptWIF(os.Stdin, os.Stderr)
		if err != nil {
			return "", err
		}
	}
	if _, err := wallet.NewPrivateKeyFromWIF(wif, network.Params); err != nil {
		return "", fmt.Errorf("not a valid WIF format private key for network %s: %w", network, err)
	}
	return wif, nil
}

func promptWIF(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	interactive := term.IsTerminal(fd)
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Enter private key in wif format: ")
		var line string
		if interactive {
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("read private key: %w", err)
			}
			line = string(raw)
		} else {
			raw, err := reader.ReadString('\n')
			if err != nil && (!errors.Is(err, io.EOF) || raw == "") {
				return "", fmt.Errorf("read private key: %w", err)
			}
			line = raw
		}
		if wif := strings.TrimSpace(line); wif != "" {
			return wif, nil
		}
		fmt.Fprintln(out, "Was expecting a wif format private key but got an empty string. Try again.")
	}
}
