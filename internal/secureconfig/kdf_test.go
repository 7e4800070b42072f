// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secureconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halversen/satdash/internal/fingerprint"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	fp := mustFingerprint(t, fingerprint.NewStaticProvider("device-a"))
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key1 := DeriveKey(fp, salt)
	key2 := DeriveKey(fp, salt)

	require.Len(t, key1, KeySize)
	require.Equal(t, key1, key2)
}

func TestDeriveKeyVariesWithInputs(t *testing.T) {
	fpA := mustFingerprint(t, fingerprint.NewStaticProvider("device-a"))
	fpB := mustFingerprint(t, fingerprint.NewStaticProvider("device-b"))

	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)

	base := DeriveKey(fpA, salt1)
	require.NotEqual(t, base, DeriveKey(fpB, salt1), "different fingerprint must change the key")
	require.NotEqual(t, base, DeriveKey(fpA, salt2), "different salt must change the key")
}

func TestGenerateSaltUnique(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	require.Len(t, a, SaltSize)
	require.NotEqual(t, a, b)
}

func TestLoadOrCreateSalt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.salt")

	salt, created, err := LoadOrCreateSalt(path)
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, salt, SaltSize)

	// Second call returns the identical salt and does not recreate it.
	again, created, err := LoadOrCreateSalt(path)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, salt, again)
}

func TestLoadOrCreateSaltRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.salt")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))

	_, _, err := LoadOrCreateSalt(path)
	require.Error(t, err)
}

func TestLoadSaltStrict(t *testing.T) {
	_, err := LoadSalt(filepath.Join(t.TempDir(), "absent.salt"))
	require.Error(t, err)
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
}

func mustFingerprint(t *testing.T, p fingerprint.Provider) fingerprint.Fingerprint {
	t.Helper()
	fp, err := p.Fingerprint()
	require.NoError(t, err)
	return fp
}
