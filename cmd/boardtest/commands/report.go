// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func printResult(w io.Writer, name string, session string, elapsed time.Duration, err error) {
	elapsed = elapsed.Round(time.Millisecond)
	if err != nil {
		failColor.Fprint(w, "FAIL")
		fmt.Fprintf(w, " %s (session %s, %s): %v\n", name, session, elapsed, err)
		return
	}
	passColor.Fprint(w, "PASS")
	fmt.Fprintf(w, " %s (session %s, %s)\n", name, session, elapsed)
}
