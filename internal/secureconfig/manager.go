// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// manager.go - Unified configuration facade.
//
// Manager composes fingerprinting, key derivation, the encrypted store,
// and partitioning into the one read/write API the rest of the dashboard
// consumes. The secure/plaintext decision is made once at startup and
// captured in a backend value; call sites never branch on it again.
//
// Concurrency model: reads hit an immutable snapshot through an atomic
// pointer and take no lock. All mutations (Set, Reload) serialize on one
// mutex because persisting is a read-modify-write of whole partition
// files.
package secureconfig

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/halversen/satdash/internal/fingerprint"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Manager. The zero value of Paths selects the
// default layout under the user's home directory.
type Options struct {
	Paths    Paths
	Provider fingerprint.Provider

	// RequireSecure makes secure-mode initialization failures fatal instead
	// of degrading to the plaintext fallback. Operator tools set this;
	// normal dashboard startup does not.
	RequireSecure bool

	// Logf receives degraded-mode and security warnings. Defaults to
	// stderr. No sensitive value is ever passed through it.
	Logf func(format string, args ...any)
}

// =============================================================================
// BACKEND STRATEGY
// =============================================================================

// backend is the two-variant strategy behind the facade: full secure path
// or plaintext fallback, selected once at startup.
type backend interface {
	load() (EffectiveConfig, error)
	persist(eff EffectiveConfig) ([]PermissionWarning, error)
	secure() bool
}

// -----------------------------------------------------------------------------
// secure backend
// -----------------------------------------------------------------------------

// secureBackend merges the public TOML partition with the decrypted secure
// partition. The derived key is cached for the process lifetime so repeated
// writes never re-derive from hardware; InvalidateKey drops the cache.
type secureBackend struct {
	paths Paths
	fp    fingerprint.Fingerprint
	key   []byte
	store *Store
}

func newSecureBackend(paths Paths, provider fingerprint.Provider) (*secureBackend, error) {
	fp, err := provider.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint unavailable: %w", err)
	}
	return &secureBackend{paths: paths, fp: fp}, nil
}

// ensureStoreForRead prepares the store when an encrypted partition exists
// on disk. The salt must already exist in that case; creating a fresh one
// would silently orphan the ciphertext, so its absence is surfaced as a
// decryption failure.
func (b *secureBackend) ensureStoreForRead() error {
	if b.store != nil || !fileExists(b.paths.SecureFile) {
		return nil
	}
	salt, err := LoadSalt(b.paths.SaltFile)
	if err != nil {
		return fmt.Errorf("salt unavailable for existing secure partition: %w", ErrDecryptionFailed)
	}
	return b.initStore(salt)
}

// ensureStoreForWrite prepares the store for persisting, generating the
// salt on first secure write.
func (b *secureBackend) ensureStoreForWrite() error {
	if b.store != nil {
		return nil
	}
	salt, _, err := LoadOrCreateSalt(b.paths.SaltFile)
	if err != nil {
		return err
	}
	return b.initStore(salt)
}

func (b *secureBackend) initStore(salt []byte) error {
	b.key = DeriveKey(b.fp, salt)
	store, err := NewStore(b.paths.SecureFile, b.paths.SaltFile, b.key)
	if err != nil {
		return err
	}
	b.store = store
	return nil
}

// invalidateKey drops the cached key material; the next load or persist
// re-derives it.
func (b *secureBackend) invalidateKey() {
	ZeroBytes(b.key)
	b.key = nil
	b.store = nil
}

func (b *secureBackend) load() (EffectiveConfig, error) {
	if err := b.ensureStoreForRead(); err != nil {
		return nil, err
	}

	pub, err := ReadPublic(b.paths.PublicFile)
	if err != nil {
		return nil, err
	}

	sec := SecureConfig{}
	if b.store != nil {
		if sec, err = b.store.Load(); err != nil {
			return nil, err
		}
	}

	return Merge(pub, sec)
}

func (b *secureBackend) persist(eff EffectiveConfig) ([]PermissionWarning, error) {
	pub, sec := Split(map[string]any(eff))

	var warnings []PermissionWarning
	// The secure half is written first: if it fails, the public file is
	// untouched and the previous state remains fully consistent.
	if len(sec) > 0 || fileExists(b.paths.SecureFile) {
		if err := b.ensureStoreForWrite(); err != nil {
			return nil, err
		}
		var err error
		if warnings, err = b.store.Save(sec); err != nil {
			return warnings, err
		}
	}

	if err := WritePublic(b.paths.PublicFile, pub); err != nil {
		return warnings, err
	}
	return warnings, nil
}

func (b *secureBackend) secure() bool { return true }

// -----------------------------------------------------------------------------
// plaintext backend (degraded fallback)
// -----------------------------------------------------------------------------

// plaintextBackend treats the legacy single file as the entire effective
// configuration. Selected only when secure initialization fails and secure
// mode is not required: availability over confidentiality, loudly logged.
type plaintextBackend struct {
	path string
}

func (b *plaintextBackend) load() (EffectiveConfig, error) {
	if !fileExists(b.path) {
		return EffectiveConfig{}, nil
	}
	cfg, err := ReadLegacy(b.path)
	if err != nil {
		return nil, err
	}
	return EffectiveConfig(cfg), nil
}

func (b *plaintextBackend) persist(eff EffectiveConfig) ([]PermissionWarning, error) {
	return nil, WriteLegacy(b.path, eff)
}

func (b *plaintextBackend) secure() bool { return false }

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the single configuration entry point for the application.
// Construct it once at process start and inject it into consumers.
type Manager struct {
	mu       sync.Mutex
	paths    Paths
	provider fingerprint.Provider
	backend  backend
	snapshot atomic.Pointer[EffectiveConfig]
	warnings []PermissionWarning
	logf     func(format string, args ...any)
}

// NewManager initializes the full secure path: fingerprint, derive key,
// decrypt partition, merge. If any step fails and RequireSecure is unset,
// it degrades to the plaintext fallback instead of refusing to start.
func NewManager(opts Options) (*Manager, error) {
	paths := opts.Paths
	if paths.Dir == "" {
		var err error
		if paths, err = DefaultPaths(); err != nil {
			return nil, err
		}
	}

	provider := opts.Provider
	if provider == nil {
		provider = fingerprint.NewHardwareProvider()
	}

	logf := opts.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	m := &Manager{paths: paths, provider: provider, logf: logf}

	var eff EffectiveConfig
	sb, err := newSecureBackend(paths, provider)
	if err == nil {
		eff, err = sb.load()
	}

	switch {
	case err == nil && !opts.RequireSecure && unmigratedLegacy(paths):
		// A never-migrated device has only the legacy single file on disk.
		// The secure view would be empty and every legacy setting invisible,
		// so the legacy file is served until migration runs.
		m.logf("[SECURITY WARNING] legacy configuration has not been migrated; serving plaintext config at %s (run: satdash migrate)", paths.LegacyFile)
		pb := &plaintextBackend{path: paths.LegacyFile}
		if eff, err = pb.load(); err != nil {
			return nil, fmt.Errorf("legacy config unreadable: %w", err)
		}
		m.backend = pb
	case err == nil:
		m.backend = sb
	case opts.RequireSecure:
		return nil, fmt.Errorf("%w: %w", ErrSecureUnavailable, err)
	default:
		// SECURITY: Degraded mode - configuration is unencrypted from here
		// on. Keep the application available, but say so clearly.
		m.logf("[SECURITY WARNING] secure configuration unavailable (%v); falling back to plaintext config at %s", err, paths.LegacyFile)
		pb := &plaintextBackend{path: paths.LegacyFile}
		if eff, err = pb.load(); err != nil {
			return nil, fmt.Errorf("plaintext fallback also failed: %w", err)
		}
		m.backend = pb
	}

	m.snapshot.Store(&eff)
	return m, nil
}

// Get returns the value for key from the effective configuration, or def
// when absent. Lock-free; safe under concurrent Set/Reload.
func (m *Manager) Get(key string, def any) any {
	eff := *m.snapshot.Load()
	if v, ok := eff[key]; ok {
		return v
	}
	return def
}

// GetString is Get with a string assertion, falling back to def on a
// missing key or non-string value.
func (m *Manager) GetString(key, def string) string {
	if s, ok := m.Get(key, def).(string); ok {
		return s
	}
	return def
}

// All returns a copy of the effective configuration.
func (m *Manager) All() EffectiveConfig {
	eff := *m.snapshot.Load()
	out := make(EffectiveConfig, len(eff))
	for k, v := range eff {
		out[k] = v
	}
	return out
}

// Set updates one key and persists both partitions, preserving the
// partitioning invariant. Writes serialize on the manager mutex; the
// cached derived key is reused, never re-derived from hardware. Permission
// warnings from the write are returned for reporting.
func (m *Manager) Set(key string, value any) ([]PermissionWarning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := *m.snapshot.Load()
	next := make(EffectiveConfig, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[key] = value

	warnings, err := m.backend.persist(next)
	if err != nil {
		return warnings, err
	}

	m.snapshot.Store(&next)
	m.warnings = warnings
	return warnings, nil
}

// Reload re-reads and re-merges the partitions from disk, using the cached
// derived key. Mutually exclusive with in-flight writes.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	eff, err := m.backend.load()
	if err != nil {
		return err
	}
	m.snapshot.Store(&eff)
	return nil
}

// InvalidateKey drops the cached derived key; the next operation
// re-derives it from the fingerprint and salt. No-op in plaintext mode.
func (m *Manager) InvalidateKey() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sb, ok := m.backend.(*secureBackend); ok {
		sb.invalidateKey()
	}
}

// Secure reports whether the manager runs the full secure path (false in
// the degraded plaintext fallback).
func (m *Manager) Secure() bool {
	return m.backend.secure()
}

// Paths returns the on-disk layout in use.
func (m *Manager) Paths() Paths {
	return m.paths
}

// PermissionWarnings returns the warnings from the most recent write.
func (m *Manager) PermissionWarnings() []PermissionWarning {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnings
}

// unmigratedLegacy reports a pre-migration layout: the legacy single file
// exists and neither partition does.
func unmigratedLegacy(paths Paths) bool {
	return fileExists(paths.LegacyFile) &&
		!fileExists(paths.PublicFile) &&
		!fileExists(paths.SecureFile)
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
