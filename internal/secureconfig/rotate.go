// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// rotate.go - Operator-invoked salt rotation.
//
// Rotation decrypts the partition under the current salt, generates a
// fresh salt, and re-encrypts under the new derived key. A backup record
// is taken first, so a crash between the salt write and the ciphertext
// write is recoverable by restoring that record.
package secureconfig

import (
	"fmt"

	"github.com/halversen/satdash/internal/fingerprint"
)

// RotationResult reports what a rotation did.
type RotationResult struct {
	// BackupName is the backup record taken before rotation.
	BackupName string `json:"backup"`
	SecureKeys int    `json:"secure_keys"`

	Warnings []PermissionWarning `json:"-"`
}

// Rotate replaces the device salt and re-encrypts the secure partition
// under the new derived key. It requires an existing secure partition; on
// a device that never migrated there is nothing to rotate.
func Rotate(paths Paths, provider fingerprint.Provider) (*RotationResult, error) {
	if !fileExists(paths.SecureFile) {
		return nil, fmt.Errorf("%w: no secure partition to rotate", ErrNotSecure)
	}

	fp, err := provider.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("cannot rotate without a device fingerprint: %w", err)
	}

	oldSalt, err := LoadSalt(paths.SaltFile)
	if err != nil {
		return nil, fmt.Errorf("salt unavailable for existing secure partition: %w", ErrDecryptionFailed)
	}

	oldKey := DeriveKey(fp, oldSalt)
	defer ZeroBytes(oldKey)

	oldStore, err := NewStore(paths.SecureFile, paths.SaltFile, oldKey)
	if err != nil {
		return nil, err
	}
	cfg, err := oldStore.Load()
	if err != nil {
		return nil, err
	}

	// Backup before any write. Restoring this record undoes the rotation.
	record, err := NewBackupTool(paths).Backup()
	if err != nil {
		return nil, fmt.Errorf("rotation aborted, backup failed: %w", err)
	}

	newSalt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := writeSalt(paths.SaltFile, newSalt); err != nil {
		return nil, err
	}

	newKey := DeriveKey(fp, newSalt)
	defer ZeroBytes(newKey)

	newStore, err := NewStore(paths.SecureFile, paths.SaltFile, newKey)
	if err != nil {
		return nil, err
	}
	warnings, err := newStore.Save(cfg)
	if err != nil {
		return nil, fmt.Errorf("rotation failed after salt replacement, restore backup %s: %w", record.Name(), err)
	}

	return &RotationResult{
		BackupName: record.Name(),
		SecureKeys: len(cfg),
		Warnings:   warnings,
	}, nil
}
