// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secureconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halversen/satdash/internal/fingerprint"
)

func testOptions(t *testing.T, provider fingerprint.Provider) Options {
	t.Helper()
	return Options{
		Paths:    PathsIn(t.TempDir()),
		Provider: provider,
		Logf:     t.Logf,
	}
}

func TestManagerFreshDevice(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))

	mgr, err := NewManager(opts)
	require.NoError(t, err)
	require.True(t, mgr.Secure())
	require.Empty(t, mgr.All())

	// No files materialize from a read-only start.
	require.False(t, fileExists(opts.Paths.SecureFile))
	require.False(t, fileExists(opts.Paths.SaltFile))
}

func TestManagerSetAndGet(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	_, err = mgr.Set("language", "en")
	require.NoError(t, err)
	_, err = mgr.Set("admin_password_hash", "hash-v1")
	require.NoError(t, err)

	require.Equal(t, "en", mgr.GetString("language", ""))
	require.Equal(t, "hash-v1", mgr.GetString("admin_password_hash", ""))
	require.Equal(t, "fallback", mgr.GetString("absent", "fallback"))

	// The sensitive write created the salt and the encrypted partition;
	// the public write created plain TOML.
	require.True(t, fileExists(opts.Paths.SaltFile))
	require.True(t, fileExists(opts.Paths.SecureFile))
	require.True(t, fileExists(opts.Paths.PublicFile))
}

func TestManagerPartitioningOnDisk(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	_, err = mgr.Set("language", "en")
	require.NoError(t, err)
	_, err = mgr.Set("api_secret", "hunter2")
	require.NoError(t, err)

	pubRaw, err := os.ReadFile(opts.Paths.PublicFile)
	require.NoError(t, err)
	require.NotContains(t, string(pubRaw), "hunter2")
	require.NotContains(t, string(pubRaw), "api_secret")

	secRaw, err := os.ReadFile(opts.Paths.SecureFile)
	require.NoError(t, err)
	require.NotContains(t, string(secRaw), "hunter2")
}

func TestManagerPersistenceAcrossRestart(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))

	mgr, err := NewManager(opts)
	require.NoError(t, err)
	_, err = mgr.Set("language", "fi")
	require.NoError(t, err)
	_, err = mgr.Set("auth_token", "tok-1")
	require.NoError(t, err)

	// Same paths, fresh manager: simulates a process restart.
	mgr2, err := NewManager(opts)
	require.NoError(t, err)
	require.True(t, mgr2.Secure())
	require.Equal(t, "fi", mgr2.GetString("language", ""))
	require.Equal(t, "tok-1", mgr2.GetString("auth_token", ""))
}

func TestManagerForeignDeviceFallsBack(t *testing.T) {
	paths := PathsIn(t.TempDir())

	mgr, err := NewManager(Options{Paths: paths, Provider: fingerprint.NewStaticProvider("device-a"), Logf: t.Logf})
	require.NoError(t, err)
	_, err = mgr.Set("auth_token", "tok-1")
	require.NoError(t, err)

	// Same files, different device: decryption fails and the manager
	// degrades to the plaintext fallback rather than refusing to start.
	var logged []string
	mgr2, err := NewManager(Options{
		Paths:    paths,
		Provider: fingerprint.NewStaticProvider("device-b"),
		Logf: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		},
	})
	require.NoError(t, err)
	require.False(t, mgr2.Secure())
	require.Equal(t, "", mgr2.GetString("auth_token", ""))

	require.NotEmpty(t, logged)
	require.Contains(t, logged[0], "[SECURITY WARNING]")
}

func TestManagerRequireSecure(t *testing.T) {
	opts := testOptions(t, fingerprint.NewFailingProvider(fingerprint.ErrUnavailable))
	opts.RequireSecure = true

	_, err := NewManager(opts)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSecureUnavailable))
}

func TestManagerFallbackReadsLegacyFile(t *testing.T) {
	paths := PathsIn(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.Dir, DirMode))
	require.NoError(t, os.WriteFile(paths.LegacyFile, []byte("language = \"sv\"\n"), 0600))

	mgr, err := NewManager(Options{
		Paths:    paths,
		Provider: fingerprint.NewFailingProvider(fingerprint.ErrUnavailable),
		Logf:     t.Logf,
	})
	require.NoError(t, err)
	require.False(t, mgr.Secure())
	require.Equal(t, "sv", mgr.GetString("language", ""))
}

func TestManagerServesLegacyFileBeforeMigration(t *testing.T) {
	paths := PathsIn(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.Dir, DirMode))
	legacy := "language = \"en\"\nadmin_password_hash = \"hash-v1\"\n"
	require.NoError(t, os.WriteFile(paths.LegacyFile, []byte(legacy), 0600))

	// Secure initialization succeeds on this device, but with no partitions
	// on disk the secure view is empty. The legacy settings must still be
	// visible until migration runs.
	var logged []string
	mgr, err := NewManager(Options{
		Paths:    paths,
		Provider: fingerprint.NewStaticProvider("device-a"),
		Logf: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		},
	})
	require.NoError(t, err)
	require.False(t, mgr.Secure())
	require.Equal(t, "en", mgr.GetString("language", ""))
	require.Equal(t, "hash-v1", mgr.GetString("admin_password_hash", ""))

	require.NotEmpty(t, logged)
	require.Contains(t, logged[0], "[SECURITY WARNING]")
	require.Contains(t, logged[0], "satdash migrate")

	// After migration the partitions exist and the secure path serves them.
	_, err = Migrate(paths, fingerprint.NewStaticProvider("device-a"), false)
	require.NoError(t, err)

	mgr2, err := NewManager(Options{Paths: paths, Provider: fingerprint.NewStaticProvider("device-a"), Logf: t.Logf})
	require.NoError(t, err)
	require.True(t, mgr2.Secure())
	require.Equal(t, "hash-v1", mgr2.GetString("admin_password_hash", ""))
}

func TestManagerRequireSecureSkipsLegacyFallback(t *testing.T) {
	paths := PathsIn(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.Dir, DirMode))
	require.NoError(t, os.WriteFile(paths.LegacyFile, []byte("auth_token = \"tok-1\"\n"), 0600))

	mgr, err := NewManager(Options{
		Paths:         paths,
		Provider:      fingerprint.NewStaticProvider("device-a"),
		RequireSecure: true,
		Logf:          t.Logf,
	})
	require.NoError(t, err)
	require.True(t, mgr.Secure())
	require.Equal(t, "", mgr.GetString("auth_token", ""))
}

func TestManagerConcurrentSets(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := mgr.Set(fmt.Sprintf("key_%d", i), i)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every write survived: no lost updates across concurrent Sets.
	mgr2, err := NewManager(opts)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		require.NotNil(t, mgr2.Get(fmt.Sprintf("key_%d", i), nil))
	}
}

func TestManagerReloadPicksUpExternalEdit(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	_, err = mgr.Set("language", "en")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(opts.Paths.PublicFile, []byte("language = \"ja\"\n"), PublicFileMode))
	require.NoError(t, mgr.Reload())
	require.Equal(t, "ja", mgr.GetString("language", ""))
}

func TestManagerInvalidateKeyRederives(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	_, err = mgr.Set("api_secret", "before")
	require.NoError(t, err)

	mgr.InvalidateKey()

	require.NoError(t, mgr.Reload())
	require.Equal(t, "before", mgr.GetString("api_secret", ""))

	_, err = mgr.Set("api_secret", "after")
	require.NoError(t, err)
	require.Equal(t, "after", mgr.GetString("api_secret", ""))
}

func TestManagerAllReturnsCopy(t *testing.T) {
	opts := testOptions(t, fingerprint.NewStaticProvider("device-a"))
	mgr, err := NewManager(opts)
	require.NoError(t, err)

	_, err = mgr.Set("language", "en")
	require.NoError(t, err)

	all := mgr.All()
	all["language"] = "mutated"
	require.Equal(t, "en", mgr.GetString("language", ""))
}

func TestManagerDefaultPathsUnderHome(t *testing.T) {
	paths, err := DefaultPaths()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".satdash"), paths.Dir)
}
