// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Subsystem status reporting for the operator CLI.
//
// Status computation reads metadata only: it never derives a key and never
// decrypts anything, so it is safe to run on any device against any files.
package secureconfig

import (
	"os"

	"github.com/halversen/satdash/internal/fingerprint"
)

// FileStatus reports presence and permission compliance for one file.
type FileStatus struct {
	Role      string      `json:"role"` // "secure", "salt", "public", "legacy"
	Path      string      `json:"path"`
	Present   bool        `json:"present"`
	Mode      os.FileMode `json:"-"`
	ModeOctal string      `json:"mode,omitempty"`
	Compliant bool        `json:"compliant"`
}

// Status is the operator-facing state report of the subsystem.
type Status struct {
	// EncryptionEnabled is true when an encrypted partition exists together
	// with its salt.
	EncryptionEnabled bool `json:"encryption_enabled"`
	SaltPresent       bool `json:"salt_present"`
	PublicPresent     bool `json:"public_present"`
	LegacyPresent     bool `json:"legacy_present"`

	// FingerprintDiag is the truncated fingerprint hash, or "unavailable".
	FingerprintDiag string `json:"fingerprint"`

	Files []FileStatus `json:"files"`
}

// Compliant reports whether every present file meets its permission
// requirement.
func (s *Status) Compliant() bool {
	for _, f := range s.Files {
		if f.Present && !f.Compliant {
			return false
		}
	}
	return true
}

// ComputeStatus inspects the on-disk layout and the fingerprint provider.
func ComputeStatus(paths Paths, provider fingerprint.Provider) *Status {
	status := &Status{FingerprintDiag: "unavailable"}

	if fp, err := provider.Fingerprint(); err == nil {
		status.FingerprintDiag = fp.Diagnostic()
	}

	status.Files = []FileStatus{
		fileStatus("secure", paths.SecureFile, true),
		fileStatus("salt", paths.SaltFile, true),
		fileStatus("public", paths.PublicFile, false),
		fileStatus("legacy", paths.LegacyFile, true),
	}

	for _, f := range status.Files {
		switch f.Role {
		case "secure":
			status.EncryptionEnabled = f.Present
		case "salt":
			status.SaltPresent = f.Present
		case "public":
			status.PublicPresent = f.Present
		case "legacy":
			status.LegacyPresent = f.Present
		}
	}
	status.EncryptionEnabled = status.EncryptionEnabled && status.SaltPresent

	return status
}

// fileStatus stats one file. ownerOnly files are compliant when no
// group/other bits are set; public files are compliant whenever present.
func fileStatus(role, path string, ownerOnly bool) FileStatus {
	fs := FileStatus{Role: role, Path: path, Compliant: true}

	info, err := os.Stat(path)
	if err != nil {
		return fs
	}

	fs.Present = true
	fs.Mode = info.Mode().Perm()
	fs.ModeOctal = modeOctal(fs.Mode)
	if ownerOnly {
		fs.Compliant = fs.Mode&0077 == 0
	}
	return fs
}

func modeOctal(mode os.FileMode) string {
	const digits = "01234567"
	return string([]byte{
		'0',
		digits[(mode>>6)&7],
		digits[(mode>>3)&7],
		digits[mode&7],
	})
}
