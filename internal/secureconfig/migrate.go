// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// migrate.go - One-shot migration of the legacy single-file configuration
// into the partitioned layout.
//
// Migration never deletes the original file, and it refuses to overwrite
// an existing secure partition unless forced: re-running it by accident
// must not destroy anything.
package secureconfig

import (
	"fmt"
	"time"

	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/util"
)

// MigrationResult reports what a migration did.
type MigrationResult struct {
	// BackupPath is the verbatim copy of the legacy file taken before
	// anything was written.
	BackupPath string `json:"backup_path"`
	// SaltCreated is true when this migration created the device salt.
	SaltCreated bool `json:"salt_created"`

	PublicKeys int `json:"public_keys"`
	SecureKeys int `json:"secure_keys"`

	Warnings []PermissionWarning `json:"-"`
}

// Migrate reads the legacy unpartitioned config, backs it up verbatim,
// splits it by the key classification, and writes both partitions. With an
// existing secure partition it fails with ErrAlreadyMigrated unless force
// is set. The original legacy file is left in place in either case.
func Migrate(paths Paths, provider fingerprint.Provider, force bool) (*MigrationResult, error) {
	if fileExists(paths.SecureFile) && !force {
		return nil, ErrAlreadyMigrated
	}

	legacy, err := ReadLegacy(paths.LegacyFile)
	if err != nil {
		return nil, err
	}

	fp, err := provider.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("cannot migrate without a device fingerprint: %w", err)
	}

	// Verbatim backup before any write. The timestamp keeps repeated
	// (forced) migrations from clobbering earlier backups.
	backupPath := paths.LegacyFile + ".bak-" + time.Now().Format("20060102-150405")
	if err := util.CopyFile(paths.LegacyFile, backupPath, OwnerOnlyMode); err != nil {
		return nil, fmt.Errorf("failed to back up legacy config: %w", err)
	}

	pub, sec := Split(legacy)

	salt, saltCreated, err := LoadOrCreateSalt(paths.SaltFile)
	if err != nil {
		return nil, err
	}

	key := DeriveKey(fp, salt)
	defer ZeroBytes(key)

	store, err := NewStore(paths.SecureFile, paths.SaltFile, key)
	if err != nil {
		return nil, err
	}

	warnings, err := store.Save(sec)
	if err != nil {
		return nil, err
	}

	if err := WritePublic(paths.PublicFile, pub); err != nil {
		return nil, err
	}

	return &MigrationResult{
		BackupPath:  backupPath,
		SaltCreated: saltCreated,
		PublicKeys:  len(pub),
		SecureKeys:  len(sec),
		Warnings:    warnings,
	}, nil
}
