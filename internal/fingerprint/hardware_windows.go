// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

// hardware_windows.go - Hardware attribute collection on Windows.
//
// Windows is not a deployment target for the dashboard hardware; this
// implementation exists so development builds work. Only lower-entropy
// environment attributes are available without WMI.
package fingerprint

import (
	"os"
	"runtime"
)

// cpuSerial has no portable source on Windows without WMI; the processor
// identifier string is the best available stand-in.
func cpuSerial() (string, bool) {
	if id := os.Getenv("PROCESSOR_IDENTIFIER"); id != "" {
		return id, true
	}
	return "", false
}

// platformName returns the GOOS/GOARCH pair.
func platformName() (string, bool) {
	return runtime.GOOS + "/" + runtime.GOARCH, true
}
