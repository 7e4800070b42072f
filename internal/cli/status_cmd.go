// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - Secure-configuration status report.
//
// Command: status (alias: s)
//
// Examples:
//   satdash status              Human-readable status
//   satdash status --json       Machine-readable status
//
// Status never decrypts anything and never derives a key, so it is safe
// on any device, including one the files did not originate from.
package cli

import (
	"fmt"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("status", "", err)
	}

	status := secureconfig.ComputeStatus(paths, provider())

	return OutputJSON(args.JSON, "status", func() (interface{}, error) {
		if args.JSON {
			return status, nil
		}
		renderStatus(paths, status)
		return nil, nil
	})
}

func renderStatus(paths secureconfig.Paths, status *secureconfig.Status) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("satdash secure configuration"))
	fmt.Println(RenderSeparator(60))

	fmt.Printf("  %s%s\n", RenderLabel("State directory:"), ValueStyle.Render(paths.Dir))
	fmt.Printf("  %s%s\n", RenderLabel("Device fingerprint:"), ValueStyle.Render(status.FingerprintDiag))

	if status.EncryptionEnabled {
		fmt.Printf("  %s%s\n", RenderLabel("Encryption:"), SuccessStyle.Render("enabled"))
	} else {
		fmt.Printf("  %s%s\n", RenderLabel("Encryption:"), WarningStyle.Render("disabled"))
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Files"))
	for _, f := range status.Files {
		marker := DimStyle.Render("[absent]")
		detail := ""
		if f.Present {
			if f.Compliant {
				marker = RenderStatus("ok")
			} else {
				marker = RenderStatus("warn")
			}
			detail = DimStyle.Render(" (" + f.ModeOctal + ")")
		}
		fmt.Printf("  %s %s%s\n", marker, ValueStyle.Render(f.Path), detail)
	}

	if !status.Compliant() {
		fmt.Println()
		fmt.Println(WarningStyle.Render("Some files have loose permissions. Run: satdash permissions"))
	}
	if status.LegacyPresent && !status.EncryptionEnabled {
		fmt.Println()
		fmt.Println(WarningStyle.Render("A legacy plaintext config exists. Run: satdash migrate"))
	}
	fmt.Println()
}
