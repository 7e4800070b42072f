// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secureconfig implements the satdash secure configuration
// subsystem: device-bound key derivation, authenticated encryption of the
// sensitive configuration partition, and the merged configuration view the
// rest of the dashboard consumes.
//
// # Partitions
//
// Configuration is split by a fixed key classification into two partitions:
//
//   - Public: display, network, and hardware settings. Plain TOML,
//     world-readable, hand-editable.
//   - Secure: wallet addresses, XPUBs, credential hashes, API secrets.
//     On disk only as an AES-256-GCM ciphertext blob, owner-only.
//
// The encryption key is derived at startup from the device fingerprint and
// a persisted random salt via PBKDF2-SHA-256. The key itself never touches
// disk; ciphertext copied to another machine will not authenticate there
// and decryption fails with ErrDecryptionFailed instead of producing
// garbage.
//
// # Manager
//
// Manager is the single entry point for the application:
//
//	mgr, err := secureconfig.NewManager(secureconfig.Options{
//	    Paths:    paths,
//	    Provider: fingerprint.NewHardwareProvider(),
//	})
//	lang := mgr.Get("language", "en")
//
// When secure initialization cannot complete (no fingerprint, missing salt,
// failed authentication) and secure mode is not required, the manager falls
// back to the legacy plaintext file as the whole configuration, logging a
// degraded-mode warning, so the dashboard keeps running.
//
// # Operator tools
//
// Migrate, BackupTool, Rotate, ComputeStatus, and SelfTest back the
// operator CLI (satdash migrate/backup/restore/rotate/status/test). They
// abort without partial state changes on failure; every file write in this
// package goes through an atomic temp-then-rename replace.
package secureconfig
