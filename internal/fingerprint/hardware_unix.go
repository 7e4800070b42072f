// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

// hardware_unix.go - Hardware attribute collection on Unix systems.
//
// The primary deployment target is a Raspberry Pi class board, which
// exposes its CPU serial both in /proc/cpuinfo and the device tree. On
// machines without a readable CPU serial the machine id stands in as a
// lower-entropy substitute.
package fingerprint

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// cpuSerial returns the CPU serial number, or a machine-id fallback.
func cpuSerial() (string, bool) {
	if serial, ok := procCPUSerial(); ok {
		return serial, true
	}
	// Device tree exposes the serial on ARM boards even when /proc/cpuinfo
	// does not list it.
	return readFirstExisting(
		"/sys/firmware/devicetree/base/serial-number",
		"/etc/machine-id",
		"/var/lib/dbus/machine-id",
	)
}

// procCPUSerial scans /proc/cpuinfo for a "Serial" line.
func procCPUSerial() (string, bool) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Serial") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		serial := strings.TrimSpace(parts[1])
		// Some kernels report an all-zero serial when unavailable.
		if serial != "" && strings.Trim(serial, "0") != "" {
			return serial, true
		}
	}
	return "", false
}

// platformName returns "sysname/machine" from uname. Kernel release is
// deliberately excluded: it changes on upgrades and would orphan existing
// ciphertext.
func platformName() (string, bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", false
	}
	return utsString(uts.Sysname[:]) + "/" + utsString(uts.Machine[:]), true
}

// utsString converts a NUL-terminated utsname field to a Go string.
func utsString(field []byte) string {
	end := len(field)
	for i, b := range field {
		if b == 0 {
			end = i
			break
		}
	}
	return string(field[:end])
}
