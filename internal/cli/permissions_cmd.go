// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// permissions_cmd.go - Re-apply required file permissions.
//
// Command: permissions (alias: perms)
//
// Examples:
//   satdash permissions          Repair owner-only modes on secure files
//   satdash permissions --json   Machine-readable result
package cli

import (
	"fmt"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandlePermissions handles the "permissions" command.
func HandlePermissions(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("permissions", "", err)
	}

	targets := []string{paths.SecureFile, paths.SaltFile, paths.LegacyFile}
	warnings := secureconfig.EnforceOwnerOnly(targets...)

	failed := map[string]bool{}
	for _, w := range warnings {
		failed[w.Path] = true
	}

	return OutputJSON(args.JSON, "permissions", func() (interface{}, error) {
		data := PermissionsData{}
		for _, path := range targets {
			if failed[path] {
				data.Failed = append(data.Failed, path)
			} else {
				data.Repaired = append(data.Repaired, path)
			}
		}
		if args.JSON {
			if len(data.Failed) > 0 {
				return data, fmt.Errorf("%d file(s) could not be repaired", len(data.Failed))
			}
			return data, nil
		}

		fmt.Println()
		if len(warnings) == 0 {
			fmt.Println(SuccessStyle.Render("[OK] All secure files are owner-only"))
		}
		for _, w := range warnings {
			fmt.Println(ErrorStyle.Render("[FAIL] ") + w.String())
		}
		fmt.Println()
		if len(warnings) > 0 {
			return data, fmt.Errorf("%d file(s) could not be repaired", len(warnings))
		}
		return data, nil
	})
}
