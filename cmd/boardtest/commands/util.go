// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/toitware/boardtest/cmd/boardtest/directory"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"
)

const settingsEnvHint = directory.SettingsPathEnv

func settingsPath(flags *pflag.FlagSet) (string, error) {
	path, err := flags.GetString("settings")
	if err != nil {
		return "", err
	}
	return directory.GetSettingsPath(path), nil
}

func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	path, err := settingsPath(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return directory.GetSettings(path)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type encoder interface {
	Encode(interface{}) error
}

func parseOutputFlag(cmd *cobra.Command) (encoder, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	w := cmd.OutOrStdout()
	switch strings.ToLower(output) {
	case "json":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e, nil
	case "yaml":
		return yaml.NewEncoder(w), nil
	case "short":
		return newShortEncoder(w), nil
	default:
		return nil, fmt.Errorf("--output flag '%s' was not recognized. Must be either json, yaml or short", output)
	}
}

type shortEncoder struct {
	w io.Writer
}

func newShortEncoder(w io.Writer) *shortEncoder {
	return &shortEncoder{
		w: w,
	}
}

type Elements interface {
	Elements() []Short
}

type Short interface {
	Short() string
}

func (s *shortEncoder) Encode(v interface{}) error {
	es, ok := v.(Elements)
	if !ok {
		return fmt.Errorf("value type %T was not compatible with the Elements interface", v)
	}
	for _, e := range es.Elements() {
		fmt.Fprintln(s.w, e.Short())
	}
	return nil
}
