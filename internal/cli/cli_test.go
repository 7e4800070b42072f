// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/secureconfig"
)

func parseArgs(t *testing.T, argv ...string) (Command, Args) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"satdash"}, argv...)
	defer func() { os.Args = oldArgs }()
	return Parse()
}

func TestParseDefaultsToStatus(t *testing.T) {
	cmd, _ := parseArgs(t)
	require.Equal(t, CmdStatus, cmd)
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"status"}, CmdStatus},
		{[]string{"s"}, CmdStatus},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"migrate"}, CmdMigrate},
		{[]string{"backup", "list"}, CmdBackup},
		{[]string{"restore", "20250101-000000"}, CmdRestore},
		{[]string{"rotate"}, CmdRotate},
		{[]string{"permissions"}, CmdPermissions},
		{[]string{"perms"}, CmdPermissions},
		{[]string{"test"}, CmdTest},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"bogus"}, CmdHelp},
	}

	for _, tt := range tests {
		cmd, _ := parseArgs(t, tt.argv...)
		require.Equal(t, tt.want, cmd, "argv %v", tt.argv)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs(t, "--json", "--dir", "/tmp/state", "rotate", "--confirm")
	require.Equal(t, CmdRotate, cmd)
	require.True(t, args.JSON)
	require.True(t, args.Confirm)
	require.Equal(t, "/tmp/state", args.Dir)

	_, args = parseArgs(t, "--dir=/var/lib/satdash", "migrate", "--force")
	require.Equal(t, "/var/lib/satdash", args.Dir)
	require.True(t, args.Force)
}

func TestParseSubcommand(t *testing.T) {
	_, args := parseArgs(t, "backup", "list")
	require.Equal(t, "list", args.Subcommand)

	_, args = parseArgs(t, "backup")
	require.Equal(t, "", args.Subcommand)
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"restore", "20250101-000000", "--confirm", "--format=json", "--lines", "50"})

	require.Equal(t, "restore", p.Subcommand())
	require.Equal(t, "20250101-000000", p.Positional(1))
	require.True(t, p.BoolFlag("confirm"))
	require.Equal(t, "json", p.Flag("format"))
	require.Equal(t, "50", p.Flag("lines"))
	require.Equal(t, 2, p.PositionalCount())
	require.False(t, p.BoolFlag("absent"))
	require.Equal(t, "fallback", p.FlagOrDefault("absent", "fallback"))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{&ValidationError{Field: "key", Reason: "missing"}, ExitUsageError},
		{secureconfig.ErrAlreadyMigrated, ExitAlreadyMigrated},
		{secureconfig.ErrDecryptionFailed, ExitDecryptionError},
		{secureconfig.ErrNotSecure, ExitNotSecure},
		{secureconfig.ErrSecureUnavailable, ExitNotSecure},
		{fingerprint.ErrUnavailable, ExitFingerprintError},
		{NewCommandError("migrate", "", secureconfig.ErrAlreadyMigrated), ExitAlreadyMigrated},
		{&selfTestError{}, ExitSelfTestFailed},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, GetExitCode(tt.err), "error %v", tt.err)
	}
}

func TestHandleStatusJSONOnFreshDir(t *testing.T) {
	args := Args{JSON: true, Dir: t.TempDir()}
	require.NoError(t, HandleStatus(args))
}

func TestHandleConfigSetAndGetRoundTrip(t *testing.T) {
	dir := t.TempDir()

	err := setConfigValue(Args{Dir: dir, JSON: true}, "language", "en")
	require.NoError(t, err)

	err = getConfigValue(Args{Dir: dir, JSON: true}, "language", false)
	require.NoError(t, err)

	err = getConfigValue(Args{Dir: dir, JSON: true}, "missing_key", false)
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleBackupWithoutState(t *testing.T) {
	err := HandleBackup(Args{Dir: t.TempDir(), JSON: true})
	require.Error(t, err)
}

func TestHandleRestoreMissingID(t *testing.T) {
	err := HandleRestore(Args{Dir: t.TempDir(), JSON: true})
	require.Error(t, err)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleRotateRequiresConfirmInJSONMode(t *testing.T) {
	err := HandleRotate(Args{Dir: t.TempDir(), JSON: true})
	require.Error(t, err)
}
