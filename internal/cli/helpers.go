// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring for command handlers.
package cli

import (
	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/secureconfig"
)

// layout resolves the on-disk layout for a command, honoring --dir.
func layout(args Args) (secureconfig.Paths, error) {
	if args.Dir != "" {
		return secureconfig.PathsIn(args.Dir), nil
	}
	return secureconfig.DefaultPaths()
}

// provider returns the device fingerprint provider used by all commands.
func provider() fingerprint.Provider {
	return fingerprint.NewHardwareProvider()
}

// openManager constructs a Manager over the resolved layout. Operator
// commands that must not silently degrade pass requireSecure.
func openManager(args Args, requireSecure bool) (*secureconfig.Manager, error) {
	paths, err := layout(args)
	if err != nil {
		return nil, err
	}
	return secureconfig.NewManager(secureconfig.Options{
		Paths:         paths,
		Provider:      provider(),
		RequireSecure: requireSecure,
	})
}
