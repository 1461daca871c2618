// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toitware/boardtest/cmd/boardtest/directory"
)

func VersionCmd(info Info) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "version",
		Short:        "Print the version of boardtest",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:\t %s\n", info.Version)
			fmt.Fprintf(out, "Settings schema: %s\n", directory.SupportedVersion)
			fmt.Fprintf(out, "Build date:\t %s\n", info.Date)
		},
	}
	return cmd
}
