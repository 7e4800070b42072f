// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fingerprint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHardwareProvider_Deterministic(t *testing.T) {
	provider := NewHardwareProvider()

	fp1, err := provider.Fingerprint()
	require.NoError(t, err, "platform and uid attributes should always be collectible")
	require.Len(t, []byte(fp1), Size)

	// Repeated calls within a process must return the identical value.
	for i := 0; i < 10; i++ {
		fp2, err := provider.Fingerprint()
		require.NoError(t, err)
		require.True(t, bytes.Equal(fp1, fp2), "fingerprint must be idempotent (call %d)", i)
	}
}

func TestHardwareProvider_MatchesFreshProvider(t *testing.T) {
	// Two providers on the same device must agree, otherwise a restart
	// would orphan the encrypted partition.
	fp1, err := NewHardwareProvider().Fingerprint()
	require.NoError(t, err)

	fp2, err := NewHardwareProvider().Fingerprint()
	require.NoError(t, err)

	require.True(t, bytes.Equal(fp1, fp2))
}

func TestStaticProvider(t *testing.T) {
	a, err := NewStaticProvider("device-a").Fingerprint()
	require.NoError(t, err)
	require.Len(t, []byte(a), Size)

	// Same seed, same fingerprint.
	a2, err := NewStaticProvider("device-a").Fingerprint()
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, a2))

	// Different seed, different fingerprint.
	b, err := NewStaticProvider("device-b").Fingerprint()
	require.NoError(t, err)
	require.False(t, bytes.Equal(a, b))
}

func TestFailingProvider(t *testing.T) {
	_, err := NewFailingProvider(nil).Fingerprint()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDiagnostic(t *testing.T) {
	fp, err := NewStaticProvider("device-a").Fingerprint()
	require.NoError(t, err)

	diag := fp.Diagnostic()
	require.Len(t, diag, DiagnosticLen)

	// The truncated form must never leak the full fingerprint.
	require.Less(t, len(diag), Size*2)

	// Empty fingerprint has a readable placeholder.
	require.Equal(t, "unavailable", Fingerprint(nil).Diagnostic())
}

func TestPrimaryMAC_Stable(t *testing.T) {
	mac1, ok1 := primaryMAC()
	mac2, ok2 := primaryMAC()
	require.Equal(t, ok1, ok2)
	require.Equal(t, mac1, mac2, "interface selection must be stable")
}
