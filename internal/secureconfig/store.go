// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// store.go - Encrypted on-disk store for the secure partition.
//
// On disk the secure partition is a single opaque blob:
//
//	ENC:base64(nonce || ciphertext || tag)
//
// AES-256-GCM authenticates as well as encrypts, so a wrong key, a flipped
// bit, or a truncated write all surface as ErrDecryptionFailed - never as
// silently wrong data. Each Save uses a fresh random nonce; nonce reuse
// under the same key would void the GCM guarantees.
package secureconfig

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/halversen/satdash/internal/util"
)

// EncPrefix marks an encrypted partition file.
const EncPrefix = "ENC:"

// NonceSize is the AES-GCM nonce size (12 bytes / 96 bits).
const NonceSize = 12

// =============================================================================
// CONFIG TYPES
// =============================================================================

// PublicConfig is the non-sensitive partition: display, network, and
// hardware settings. Stored as plain TOML, world-readable.
type PublicConfig map[string]any

// SecureConfig is the sensitive partition: addresses, XPUBs, credential
// hashes, secret tokens. Exists in plaintext only transiently in memory.
type SecureConfig map[string]any

// EffectiveConfig is the runtime merge of the two partitions - the only
// view the rest of the application observes.
type EffectiveConfig map[string]any

// =============================================================================
// STORE
// =============================================================================

// Store owns the encrypted partition file. It is constructed with an
// already-derived key and performs no key management itself.
type Store struct {
	path     string
	saltPath string
	aead     cipher.AEAD
}

// NewStore builds a store over path using the given 32-byte key. saltPath
// is tracked only for permission enforcement after writes.
func NewStore(path, saltPath string, key []byte) (*Store, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return &Store{path: path, saltPath: saltPath, aead: gcm}, nil
}

// Exists reports whether the encrypted partition file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and decrypts the secure partition. A missing file is an empty
// partition, not an error. Any authentication or format failure is
// ErrDecryptionFailed: the data is never partially trusted.
func (s *Store) Load() (SecureConfig, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return SecureConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secure partition: %w", err)
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(plaintext)

	var cfg SecureConfig
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("secure partition decoded to invalid content: %w", ErrDecryptionFailed)
	}
	normalizeNumbers(cfg)
	return cfg, nil
}

// normalizeNumbers rewrites json.Number values in place: integral numbers
// come back as int64, everything else as float64. The TOML side decodes
// integers as int64, and a sensitive integer must not change type or lose
// precision across a save/load cycle.
func normalizeNumbers(m map[string]any) {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		for i, e := range n {
			n[i] = normalizeValue(e)
		}
	case map[string]any:
		normalizeNumbers(n)
	}
	return v
}

// Save serializes, encrypts, and atomically persists the secure partition,
// then enforces owner-only permissions on the partition and salt files.
// Permission failures are returned as warnings alongside a nil error.
func (s *Store) Save(cfg SecureConfig) ([]PermissionWarning, error) {
	plaintext, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize secure partition: %w", err)
	}
	defer ZeroBytes(plaintext)

	blob, err := s.encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFileWithDir(s.path, blob, OwnerOnlyMode, DirMode); err != nil {
		return nil, fmt.Errorf("failed to write secure partition: %w", err)
	}

	return EnforceOwnerOnly(s.path, s.saltPath), nil
}

// encrypt produces the on-disk blob for plaintext.
func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, nil)

	blob := make([]byte, 0, len(EncPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	blob = append(blob, EncPrefix...)
	blob = append(blob, base64.StdEncoding.EncodeToString(sealed)...)
	return blob, nil
}

// decrypt reverses encrypt. Every failure mode maps to ErrDecryptionFailed;
// the distinction between wrong key, corruption, and tampering is not
// observable and must not change behavior.
func (s *Store) decrypt(blob []byte) ([]byte, error) {
	content := string(blob)
	if !strings.HasPrefix(content, EncPrefix) {
		return nil, fmt.Errorf("secure partition is not in encrypted format: %w", ErrDecryptionFailed)
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, EncPrefix))
	if err != nil {
		return nil, fmt.Errorf("secure partition is corrupted: %w", ErrDecryptionFailed)
	}
	if len(sealed) < NonceSize {
		return nil, fmt.Errorf("secure partition is truncated: %w", ErrDecryptionFailed)
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// =============================================================================
// PERMISSION ENFORCEMENT
// =============================================================================

// statFile is swapped in tests that simulate verification failures.
var statFile = os.Stat

// EnforceOwnerOnly applies owner-only mode to each existing path and
// verifies the result. Failure to set or verify a mode yields a warning,
// not an error: the filesystem may not support the mode at all, and the
// caller decides how loudly to report it. A warning distinguishes a mode
// that could not be set from one that could not be verified afterwards.
func EnforceOwnerOnly(paths ...string) []PermissionWarning {
	var warnings []PermissionWarning
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue // absent files have nothing to enforce
		}
		if info.Mode().Perm()&0077 == 0 {
			continue
		}
		if err := os.Chmod(path, OwnerOnlyMode); err != nil {
			warnings = append(warnings, PermissionWarning{Path: path, Mode: OwnerOnlyMode, Err: err})
			continue
		}
		info, err = statFile(path)
		if err != nil {
			warnings = append(warnings, PermissionWarning{
				Path: path,
				Mode: OwnerOnlyMode,
				Err:  fmt.Errorf("mode applied but could not be verified: %w", err),
			})
			continue
		}
		if info.Mode().Perm()&0077 != 0 {
			warnings = append(warnings, PermissionWarning{
				Path: path,
				Mode: OwnerOnlyMode,
				Err:  fmt.Errorf("mode still %04o after chmod", info.Mode().Perm()),
			})
		}
	}
	return warnings
}
