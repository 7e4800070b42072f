// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secureconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halversen/satdash/internal/fingerprint"
)

func TestSelfTestPasses(t *testing.T) {
	result := SelfTest(fingerprint.NewStaticProvider("device-a"))

	require.True(t, result.Passed)
	require.Len(t, result.Checks, 6)
	for _, check := range result.Checks {
		require.True(t, check.Passed, "check %q: %s", check.Name, check.Detail)
	}
}

func TestSelfTestFingerprintFailure(t *testing.T) {
	result := SelfTest(fingerprint.NewFailingProvider(fingerprint.ErrUnavailable))

	require.False(t, result.Passed)
	require.Len(t, result.Checks, 1)
	require.False(t, result.Checks[0].Passed)
	require.NotEmpty(t, result.Checks[0].Detail)
}
