// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage for satdash.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdStatus Command = iota
	CmdConfig
	CmdMigrate
	CmdBackup
	CmdRestore
	CmdRotate
	CmdPermissions
	CmdTest
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	Quiet   bool
	Confirm bool // skip interactive confirmation prompts
	Force   bool
	Dir     string // override the state directory (default ~/.satdash)

	Subcommand string

	// Raw args remaining after global flag parsing
	Raw []string
}

const usageText = `satdash %s - satellite node dashboard configuration tool

Manages the dashboard's partitioned configuration: public settings live
in plain TOML, sensitive settings in a partition encrypted with a key
derived from this device's hardware identity. The key is never stored.

Usage:
  satdash status, s            Show secure-configuration status
  satdash config [show|get|set] Inspect or change configuration values
  satdash migrate              Migrate a legacy single-file config
  satdash backup [list|create] Backup management
  satdash restore <id>         Restore from a backup
  satdash rotate               Rotate the key-derivation salt
  satdash permissions          Re-apply required file permissions
  satdash test                 Run the encryption self-test
  satdash version              Show version information
  satdash help                 Show this help

Status:
  satdash status               Human-readable status report
  satdash status --json        Machine-readable status

Config:
  satdash config show          Show the effective configuration
  satdash config get <key>     Print one value (sensitive values redacted
                               unless --reveal is given on a terminal)
  satdash config set <key> <value>
                               Set a value; sensitive keys are encrypted
                               transparently

Migration:
  satdash migrate              Split the legacy config into partitions
  satdash migrate --force      Re-run even if already migrated
    The original file is backed up verbatim and never deleted.

Backup and restore:
  satdash backup               Create a backup of the secure partition
  satdash backup list          List available backups
  satdash restore <id>         Restore files from a backup record
    --confirm                  Skip the interactive prompt

Salt rotation:
  satdash rotate               Re-encrypt under a fresh salt
    --confirm                  Skip the interactive prompt
    A backup is taken automatically before rotating.

Global flags:
  --json                       JSON output (implies no prompts; combine
                               with --confirm for destructive commands)
  --dir PATH                   Use PATH instead of ~/.satdash
  -q, --quiet                  Suppress non-essential output

Files (under ~/.satdash):
  config.toml                  Public settings, world-readable, editable
  secure.conf                  Encrypted sensitive settings (0600)
  secure.salt                  Key-derivation salt (0600)
  backups/                     Backup records (0700)
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("satdash version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	remaining, parsed := parseGlobalFlags(os.Args[1:])

	if len(remaining) == 0 {
		return CmdStatus, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		parsed.Subcommand = remaining[0]
	}

	switch cmd {
	case "status", "s":
		return CmdStatus, parsed

	case "config", "cfg":
		return CmdConfig, parsed

	case "migrate", "migration":
		return CmdMigrate, parsed

	case "backup", "backups":
		return CmdBackup, parsed

	case "restore":
		return CmdRestore, parsed

	case "rotate", "rotate-salt":
		return CmdRotate, parsed

	case "permissions", "perms":
		return CmdPermissions, parsed

	case "test", "selftest":
		return CmdTest, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "--json":
			parsed.JSON = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "--confirm", "-y", "--yes":
			parsed.Confirm = true
		case "--force":
			parsed.Force = true
		case "--dir":
			if i+1 < len(args) {
				i++
				parsed.Dir = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--dir=") {
				parsed.Dir = strings.TrimPrefix(arg, "--dir=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}
