// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fingerprint derives a stable, device-bound identifier from
// hardware and platform attributes.
//
// The fingerprint is the key-derivation input that binds the encrypted
// configuration partition to one physical device: ciphertext copied off an
// SD card cannot be decrypted elsewhere because the attacker's machine
// produces a different fingerprint. It is never persisted and never shown
// in full; diagnostics only ever see a truncated hash.
//
// # Attributes
//
// Collection is best-effort, in order:
//
//   - CPU serial number (Raspberry Pi class boards expose one)
//   - machine id (fallback when no CPU serial is available)
//   - first non-loopback hardware MAC address
//   - platform name (uname on Unix)
//   - numeric user id
//
// A missing attribute is substituted with lower-entropy platform/user
// information rather than failing: a provider that required every attribute
// would be unusable across heterogeneous hardware. Collection only fails
// hard (ErrUnavailable) when not a single identifying attribute can be
// obtained.
//
// # Usage
//
//	provider := fingerprint.NewHardwareProvider()
//	fp, err := provider.Fingerprint()
//	if err != nil {
//	    // fall back to plaintext mode
//	}
//
// Tests substitute a deterministic fixture:
//
//	provider := fingerprint.NewStaticProvider("test-device")
package fingerprint
