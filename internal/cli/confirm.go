// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive commands.
//
// One pattern everywhere:
//  1. If --confirm was passed, proceed without prompting
//  2. In --json mode, require --confirm (no interactive prompts)
//  3. If stdin is not a TTY, require --confirm (cannot prompt)
//  4. Otherwise, show an interactive prompt
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RequireConfirmation checks whether the user has confirmed a destructive
// action. Returns (false, nil) on an explicit interactive "no"; returns an
// error when confirmation is required but cannot be obtained.
//
// Example:
//
//	confirmed, err := RequireConfirmation(args.Confirm, "rotate the encryption salt", args.JSON)
//	if err != nil {
//	    return err
//	}
//	if !confirmed {
//	    ShowCancellationMessage()
//	    return nil
//	}
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm for destructive actions in JSON mode")
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm")
	}

	fmt.Println()
	fmt.Printf("Are you sure you want to %s? [y/N]: ", action)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// RequireConfirmationWithDetails is like RequireConfirmation but shows
// labeled details before prompting.
func RequireConfirmationWithDetails(confirmFlag bool, action string, details map[string]string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm for destructive actions in JSON mode")
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm")
	}

	fmt.Println()
	fmt.Println(WarningStyle.Render("WARNING: Destructive Action"))
	fmt.Println(RenderSeparator(50))
	fmt.Println()
	for label, value := range details {
		fmt.Printf("  %s%s\n", RenderLabel(label+":", 20), value)
	}
	fmt.Println()
	fmt.Printf("Are you sure you want to %s? [y/N]: ", action)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// ShowCancellationMessage displays a standard cancellation message after a
// declined confirmation.
func ShowCancellationMessage() {
	fmt.Println()
	fmt.Println(DimStyle.Render("Cancelled."))
	fmt.Println()
}
