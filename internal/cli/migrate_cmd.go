// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// migrate_cmd.go - Migrate a legacy single-file configuration.
//
// Command: migrate
//
// Examples:
//   satdash migrate              One-shot migration into partitions
//   satdash migrate --force      Re-run over an existing secure partition
//   satdash migrate --json       Machine-readable result
//
// The legacy file is backed up verbatim before anything is written and is
// never deleted, so migration is always reversible by hand.
package cli

import (
	"fmt"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleMigrate handles the "migrate" command.
func HandleMigrate(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("migrate", "", err)
	}

	if args.Force {
		confirmed, err := RequireConfirmation(args.Confirm,
			"overwrite the existing encrypted partition with a fresh migration", args.JSON)
		if err != nil {
			return err
		}
		if !confirmed {
			ShowCancellationMessage()
			return nil
		}
	}

	result, err := secureconfig.Migrate(paths, provider(), args.Force)
	if err != nil {
		return NewCommandError("migrate", "", err)
	}

	return OutputJSON(args.JSON, "migrate", func() (interface{}, error) {
		data := MigrateData{
			BackupPath:  result.BackupPath,
			SaltCreated: result.SaltCreated,
			PublicKeys:  result.PublicKeys,
			SecureKeys:  result.SecureKeys,
		}
		if args.JSON {
			return data, nil
		}

		fmt.Println()
		fmt.Println(SuccessStyle.Render("[OK] Migration complete"))
		fmt.Printf("  %s%d\n", RenderLabel("Public keys:"), result.PublicKeys)
		fmt.Printf("  %s%d\n", RenderLabel("Encrypted keys:"), result.SecureKeys)
		fmt.Printf("  %s%s\n", RenderLabel("Legacy backup:"), ValueStyle.Render(result.BackupPath))
		if result.SaltCreated {
			fmt.Printf("  %s%s\n", RenderLabel("Device salt:"), ValueStyle.Render("created"))
		}
		for _, w := range result.Warnings {
			fmt.Println(WarningStyle.Render("[WARN] " + w.String()))
		}
		fmt.Println()
		fmt.Println(DimStyle.Render("The original legacy file was left in place."))
		fmt.Println()
		return data, nil
	})
}
