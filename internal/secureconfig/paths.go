// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// paths.go - On-disk layout of the configuration partitions.
package secureconfig

import (
	"os"
	"path/filepath"
)

// File and directory modes used across the subsystem. The public partition
// is deliberately world-readable; everything else is owner-only.
const (
	DirMode        = os.FileMode(0700)
	OwnerOnlyMode  = os.FileMode(0600)
	PublicFileMode = os.FileMode(0644)
)

// Paths describes where the configuration partitions live on disk.
type Paths struct {
	// Dir is the satdash state directory (~/.satdash).
	Dir string
	// PublicFile holds the public partition as plain TOML (world-readable).
	PublicFile string
	// SecureFile holds the encrypted secure partition (owner-only).
	SecureFile string
	// SaltFile holds the PBKDF2 salt - never the derived key (owner-only).
	SaltFile string
	// LegacyFile is the unpartitioned single-file config: migration input
	// and plaintext fallback source.
	LegacyFile string
	// BackupDir holds timestamped backup records.
	BackupDir string
}

// PathsIn returns the standard layout rooted at dir.
func PathsIn(dir string) Paths {
	return Paths{
		Dir:        dir,
		PublicFile: filepath.Join(dir, "config.toml"),
		SecureFile: filepath.Join(dir, "secure.conf"),
		SaltFile:   filepath.Join(dir, "secure.salt"),
		LegacyFile: filepath.Join(dir, "config.legacy.toml"),
		BackupDir:  filepath.Join(dir, "backups"),
	}
}

// DefaultPaths returns the layout under the user's home directory.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, err
	}
	return PathsIn(filepath.Join(home, ".satdash")), nil
}
