// satdash - Secure configuration tool for the satellite node dashboard.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/halversen/satdash/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdStatus:
		err = cli.HandleStatus(args)

	case cli.CmdConfig:
		err = cli.HandleConfig(args)

	case cli.CmdMigrate:
		err = cli.HandleMigrate(args)

	case cli.CmdBackup:
		err = cli.HandleBackup(args)

	case cli.CmdRestore:
		err = cli.HandleRestore(args)

	case cli.CmdRotate:
		err = cli.HandleRotate(args)

	case cli.CmdPermissions:
		err = cli.HandlePermissions(args)

	case cli.CmdTest:
		err = cli.HandleTest(args)

	case cli.CmdVersion:
		cli.PrintVersion()

	case cli.CmdHelp:
		cli.PrintUsage()

	default:
		fmt.Fprintln(os.Stderr, "unknown command")
		os.Exit(cli.ExitUsageError)
	}

	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
	}
}
