// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// kdf.go - Device-bound key derivation.
//
// The encryption key is PBKDF2-SHA-256 over (fingerprint, salt). The salt
// is random, persisted, and not secret; the fingerprint is never persisted.
// Together they reproduce the key on the same device only - which is the
// whole binding mechanism, without the key ever being written anywhere.
package secureconfig

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/util"
)

const (
	// KeySize is the size of the AES-256 key (32 bytes / 256 bits).
	KeySize = 32

	// SaltSize is the size of the key-derivation salt (32 bytes).
	SaltSize = 32

	// PBKDF2Iterations is the PBKDF2-SHA-256 cost parameter. OWASP 2023
	// recommends 600,000+ against modern hardware; on a Raspberry Pi 4 this
	// completes in roughly a quarter second, and derivation runs once per
	// process start plus once per configuration write at most.
	PBKDF2Iterations = 600000
)

// ZeroBytes securely zeros sensitive byte slices.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// DeriveKey derives the partition encryption key from the device
// fingerprint and salt. Identical inputs always yield the identical key.
func DeriveKey(fp fingerprint.Fingerprint, salt []byte) []byte {
	return pbkdf2.Key(fp, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// GenerateSalt returns a fresh cryptographically random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// LoadOrCreateSalt reads the persisted salt, generating and persisting a
// fresh one on first use. The salt is never regenerated implicitly - that
// would orphan all existing ciphertext. Returns the salt and whether it was
// newly created.
func LoadOrCreateSalt(path string) ([]byte, bool, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != SaltSize {
			return nil, false, fmt.Errorf("salt file %s has wrong size %d (want %d)", path, len(salt), SaltSize)
		}
		return salt, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("failed to read salt file: %w", err)
	}

	salt, err = GenerateSalt()
	if err != nil {
		return nil, false, err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFileWithDir(path, salt, OwnerOnlyMode, DirMode); err != nil {
		return nil, false, fmt.Errorf("failed to persist salt: %w", err)
	}

	return salt, true, nil
}

// writeSalt atomically replaces the persisted salt. Only rotation calls
// this; everywhere else the salt is immutable once created.
func writeSalt(path string, salt []byte) error {
	if err := util.AtomicWriteFileWithDir(path, salt, OwnerOnlyMode, DirMode); err != nil {
		return fmt.Errorf("failed to persist salt: %w", err)
	}
	return nil
}

// LoadSalt reads an existing salt and fails if it is absent. Used on paths
// that must not create one (restore validation, rotation, loading an
// existing partition).
func LoadSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt file %s: %w", filepath.Base(path), err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt file %s has wrong size %d (want %d)", filepath.Base(path), len(salt), SaltSize)
	}
	return salt, nil
}
