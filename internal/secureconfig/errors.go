// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error taxonomy for the secure configuration subsystem.
//
// Sentinel errors are matched with errors.Is; callers never parse message
// text. No sensitive value ever appears in an error message - diagnostics
// use truncated hashes only.
package secureconfig

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrDecryptionFailed indicates the ciphertext failed authentication:
	// wrong device, corrupted file, or tampering. Data is never partially
	// trusted or silently truncated in this case.
	ErrDecryptionFailed = errors.New("decryption failed: ciphertext did not authenticate")

	// ErrPartitionConflict indicates the same key is present in both the
	// public and secure partitions with different values. This points at a
	// corrupted or hand-edited file and requires operator intervention; it
	// is never auto-resolved by preferring one side.
	ErrPartitionConflict = errors.New("partition conflict: key present in both partitions with different values")

	// ErrAlreadyMigrated guards against destructive re-migration: a secure
	// partition already exists and --force was not given.
	ErrAlreadyMigrated = errors.New("secure partition already exists: migration refused")

	// ErrSecureUnavailable indicates secure mode could not be initialized
	// and was explicitly required.
	ErrSecureUnavailable = errors.New("secure mode unavailable")

	// ErrNotSecure indicates an operation that needs the secure backend was
	// invoked while running in plaintext fallback mode.
	ErrNotSecure = errors.New("operation requires secure mode")
)

// PermissionWarning reports that owner-only permissions could not be
// enforced on a file. The filesystem may simply not support the requested
// mode, so this is a warning surfaced to the caller, never a fatal error.
type PermissionWarning struct {
	Path string
	Mode os.FileMode // mode that was requested
	Err  error
}

func (w PermissionWarning) String() string {
	return fmt.Sprintf("could not enforce mode %04o on %s: %v", w.Mode, w.Path, w.Err)
}
