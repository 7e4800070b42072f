// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all CLI commands.
//
// Every handler returns its error; display and exit-code selection happen
// in one place so scripts get stable, category-specific exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/secureconfig"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitDecryptionError indicates the secure partition could not be decrypted
	ExitDecryptionError = 3
	// ExitFingerprintError indicates the device identity could not be read
	ExitFingerprintError = 4
	// ExitAlreadyMigrated indicates migration was refused without --force
	ExitAlreadyMigrated = 5
	// ExitNotSecure indicates a command that requires secure mode ran without it
	ExitNotSecure = 6
	// ExitSelfTestFailed indicates the encryption self-test did not pass
	ExitSelfTestFailed = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "backup", "rotate")
	Action  string // Action being performed (e.g., "restore", "list")
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError wraps an underlying error with command context.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// =============================================================================
// DISPLAY AND EXIT
// =============================================================================

// DisplayError displays an error in a consistent format. In JSON mode the
// output is a structured JSON object on stdout.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	fmt.Println()
	fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	fmt.Println()
}

// GetExitCode maps an error to its exit code. Sentinel errors from the
// secure-configuration layer get dedicated codes so scripts can branch on
// them.
func GetExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, secureconfig.ErrAlreadyMigrated):
		return ExitAlreadyMigrated
	case errors.Is(err, secureconfig.ErrDecryptionFailed):
		return ExitDecryptionError
	case errors.Is(err, secureconfig.ErrNotSecure),
		errors.Is(err, secureconfig.ErrSecureUnavailable):
		return ExitNotSecure
	case errors.Is(err, fingerprint.ErrUnavailable):
		return ExitFingerprintError
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var stErr *selfTestError
	if errors.As(err, &stErr) {
		return ExitSelfTestFailed
	}
	return ExitGeneralError
}

// HandleErrorAndExit displays an error and exits with its exit code. Use
// this for fatal errors in main.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}
