// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secureconfig

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halversen/satdash/internal/fingerprint"
)

func newTestStore(t *testing.T, dir, seed string) *Store {
	t.Helper()
	fp := mustFingerprint(t, fingerprint.NewStaticProvider(seed))
	salt, _, err := LoadOrCreateSalt(filepath.Join(dir, "secure.salt"))
	require.NoError(t, err)

	key := DeriveKey(fp, salt)
	store, err := NewStore(filepath.Join(dir, "secure.conf"), filepath.Join(dir, "secure.salt"), key)
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir, "device-a")

	cfg := SecureConfig{
		"admin_password_hash": "pbkdf2$600000$deadbeef",
		"addresses":           []any{"bc1qxyz", "bc1qabc"},
	}

	_, err := store.Save(cfg)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, cfg["admin_password_hash"], loaded["admin_password_hash"])
	require.Equal(t, cfg["addresses"], loaded["addresses"])
}

func TestStoreNumbersSurviveRoundTrip(t *testing.T) {
	store := newTestStore(t, t.TempDir(), "device-a")

	_, err := store.Save(SecureConfig{
		"wallet_gap_limit": int64(20),
		"wallet_birth":     int64(1<<53 + 1), // beyond float64 integer precision
		"price_threshold":  0.25,
		"api_secret":       "hunter2",
		"limits":           []any{int64(1), int64(2)},
	})
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, int64(20), loaded["wallet_gap_limit"])
	require.Equal(t, int64(1<<53+1), loaded["wallet_birth"])
	require.Equal(t, 0.25, loaded["price_threshold"])
	require.Equal(t, "hunter2", loaded["api_secret"])
	require.Equal(t, []any{int64(1), int64(2)}, loaded["limits"])
}

func TestStoreOnDiskFormat(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir, "device-a")

	_, err := store.Save(SecureConfig{"api_secret": "hunter2"})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "secure.conf"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), EncPrefix))

	// The plaintext must never appear in the blob.
	require.NotContains(t, string(raw), "hunter2")
	require.NotContains(t, string(raw), "api_secret")
}

func TestStoreMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t, t.TempDir(), "device-a")

	cfg, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, cfg)
}

func TestStoreWrongKeyFailsClosed(t *testing.T) {
	dirA := t.TempDir()
	storeA := newTestStore(t, dirA, "device-a")
	_, err := storeA.Save(SecureConfig{"api_secret": "hunter2"})
	require.NoError(t, err)

	// Same ciphertext, key derived on a different device.
	fpB := mustFingerprint(t, fingerprint.NewStaticProvider("device-b"))
	salt, err := LoadSalt(filepath.Join(dirA, "secure.salt"))
	require.NoError(t, err)
	keyB := DeriveKey(fpB, salt)

	storeB, err := NewStore(filepath.Join(dirA, "secure.conf"), "", keyB)
	require.NoError(t, err)

	_, err = storeB.Load()
	require.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestStoreCorruptionFailsClosed(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir, "device-a")
	_, err := store.Save(SecureConfig{"api_secret": "hunter2"})
	require.NoError(t, err)

	path := filepath.Join(dir, "secure.conf")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	cases := map[string][]byte{
		"missing prefix": raw[len(EncPrefix):],
		"bad base64":     append(append([]byte{}, raw...), '!'),
		"truncated":      raw[:len(EncPrefix)+8],
		"flipped bit":    flipLastByte(raw),
		"plaintext toml": []byte("api_secret = \"hunter2\"\n"),
	}

	for name, blob := range cases {
		require.NoError(t, os.WriteFile(path, blob, 0600))
		_, err := store.Load()
		require.True(t, errors.Is(err, ErrDecryptionFailed), "case %q: %v", name, err)
	}
}

func TestStoreFreshNoncePerWrite(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir, "device-a")
	path := filepath.Join(dir, "secure.conf")

	_, err := store.Save(SecureConfig{"api_secret": "same"})
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = store.Save(SecureConfig{"api_secret": "same"})
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NotEqual(t, first, second, "identical plaintext must not produce identical ciphertext")
}

func TestStoreSaveEnforcesOwnerOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission semantics")
	}

	dir := t.TempDir()
	store := newTestStore(t, dir, "device-a")

	warnings, err := store.Save(SecureConfig{"api_secret": "hunter2"})
	require.NoError(t, err)
	require.Empty(t, warnings)

	for _, name := range []string{"secure.conf", "secure.salt"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0), info.Mode().Perm()&0077, "%s must be owner-only", name)
	}
}

func TestEnforceOwnerOnlyRepairs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission semantics")
	}

	path := filepath.Join(t.TempDir(), "secure.conf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	warnings := EnforceOwnerOnly(path, "", filepath.Join(t.TempDir(), "absent"))
	require.Empty(t, warnings)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, OwnerOnlyMode, info.Mode().Perm())
}

func TestEnforceOwnerOnlyReportsVerifyFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission semantics")
	}

	path := filepath.Join(t.TempDir(), "secure.conf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	// The chmod succeeds but the follow-up stat fails; the warning must say
	// the mode could not be verified, not that it could not be set.
	orig := statFile
	statFile = func(string) (os.FileInfo, error) {
		return nil, errors.New("stat denied")
	}
	defer func() { statFile = orig }()

	warnings := EnforceOwnerOnly(path)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].String(), "could not be verified")
}

func flipLastByte(b []byte) []byte {
	out := append([]byte{}, b...)
	out[len(out)-1] ^= 0x01
	return out
}
