// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/toitware/boardtest/cmd/boardtest/commands"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/ledmatrix"
)

var (
	version   = "v0.1.0"
	buildDate = "unknown"
)

func main() {
	info := commands.Info{
		Date:    buildDate,
		Version: version,
	}

	registry := device.NewRegistry(
		ledmatrix.NewFillDevice(nil),
		ledmatrix.NewManualDevice(nil),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = commands.SetInfo(ctx, info)
	cmd := commands.BoardtestCmd(info, registry)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
