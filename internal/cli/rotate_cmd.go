// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// rotate_cmd.go - Salt rotation.
//
// Command: rotate
//
// Examples:
//   satdash rotate               Rotate with interactive confirmation
//   satdash rotate --confirm     Rotate without prompting
//
// Rotation takes a backup automatically; if anything fails between the
// salt write and the re-encryption, that backup restores the previous
// state.
package cli

import (
	"fmt"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleRotate handles the "rotate" command.
func HandleRotate(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("rotate", "", err)
	}

	confirmed, err := RequireConfirmation(args.Confirm,
		"rotate the encryption salt and re-encrypt the secure partition", args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	result, err := secureconfig.Rotate(paths, provider())
	if err != nil {
		return NewCommandError("rotate", "", err)
	}

	return OutputJSON(args.JSON, "rotate", func() (interface{}, error) {
		data := RotateData{Backup: result.BackupName, SecureKeys: result.SecureKeys}
		if args.JSON {
			return data, nil
		}
		fmt.Println()
		fmt.Println(SuccessStyle.Render("[OK] Salt rotated"))
		fmt.Printf("  %s%d\n", RenderLabel("Re-encrypted keys:"), result.SecureKeys)
		fmt.Printf("  %s%s\n", RenderLabel("Pre-rotation backup:"), ValueStyle.Render(result.BackupName))
		for _, w := range result.Warnings {
			fmt.Println(WarningStyle.Render("[WARN] " + w.String()))
		}
		fmt.Println()
		return data, nil
	})
}
