// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// fingerprint.go - Fingerprint type, provider interface, and test fixture.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnavailable indicates that no identifying hardware attribute at all
// could be obtained. Secure-mode initialization treats this as fatal;
// normal startup degrades to plaintext mode instead.
var ErrUnavailable = errors.New("no device-identifying attribute available")

// =============================================================================
// FINGERPRINT
// =============================================================================

// Size is the length of a fingerprint in bytes (SHA-256 output).
const Size = 32

// DiagnosticLen is the number of hex characters exposed for diagnostics.
const DiagnosticLen = 8

// Fingerprint is an opaque, fixed-length device identifier. It is used only
// as key-derivation input and is never persisted.
type Fingerprint []byte

// Diagnostic returns a short truncated hex form for status output and logs.
// SECURITY: Never expose the full fingerprint - it is key material input.
func (fp Fingerprint) Diagnostic() string {
	if len(fp) == 0 {
		return "unavailable"
	}
	h := hex.EncodeToString(fp)
	if len(h) > DiagnosticLen {
		h = h[:DiagnosticLen]
	}
	return h
}

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// Provider produces a device fingerprint. Implementations must be
// deterministic for a given device and idempotent across calls within a
// process lifetime.
type Provider interface {
	Fingerprint() (Fingerprint, error)
}

// =============================================================================
// HARDWARE PROVIDER
// =============================================================================

// HardwareProvider derives the fingerprint from hardware and platform
// attributes. The result is computed once and cached for the process
// lifetime: the inputs do not change while the process runs and collection
// touches several files and syscalls.
type HardwareProvider struct {
	once sync.Once
	fp   Fingerprint
	err  error
}

// NewHardwareProvider returns a provider backed by real hardware attributes.
func NewHardwareProvider() *HardwareProvider {
	return &HardwareProvider{}
}

// Fingerprint returns the cached device fingerprint, computing it on first
// call.
func (p *HardwareProvider) Fingerprint() (Fingerprint, error) {
	p.once.Do(func() {
		p.fp, p.err = collect()
	})
	return p.fp, p.err
}

// collect gathers the identifying attributes and reduces them to a single
// SHA-256 digest. Attribute order is fixed so the result is deterministic.
func collect() (Fingerprint, error) {
	var attrs []string

	if serial, ok := cpuSerial(); ok {
		attrs = append(attrs, "cpu:"+serial)
	}
	if mac, ok := primaryMAC(); ok {
		attrs = append(attrs, "mac:"+mac)
	}
	if platform, ok := platformName(); ok {
		attrs = append(attrs, "platform:"+platform)
	}
	if uid, ok := currentUser(); ok {
		attrs = append(attrs, "uid:"+uid)
	}

	if len(attrs) == 0 {
		return nil, ErrUnavailable
	}

	sum := sha256.Sum256([]byte(strings.Join(attrs, "\n")))
	return Fingerprint(sum[:]), nil
}

// primaryMAC returns the hardware address of the first non-loopback
// interface that has one. Interfaces are sorted by name so the choice is
// stable across boots regardless of enumeration order.
func primaryMAC() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}

	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String(), true
	}
	return "", false
}

// =============================================================================
// STATIC PROVIDER (TEST FIXTURE)
// =============================================================================

// StaticProvider returns a fixed fingerprint derived from a seed. It stands
// in for HardwareProvider in tests and virtualized environments where
// hardware attributes are absent or unstable.
type StaticProvider struct {
	fp  Fingerprint
	err error
}

// NewStaticProvider derives a deterministic fingerprint from the given seed.
func NewStaticProvider(seed string) *StaticProvider {
	sum := sha256.Sum256([]byte(seed))
	return &StaticProvider{fp: Fingerprint(sum[:])}
}

// NewFailingProvider returns a provider whose Fingerprint always fails with
// the given error (defaults to ErrUnavailable). Used to exercise fallback
// paths.
func NewFailingProvider(err error) *StaticProvider {
	if err == nil {
		err = ErrUnavailable
	}
	return &StaticProvider{err: err}
}

// Fingerprint returns the fixed fingerprint or the configured error.
func (p *StaticProvider) Fingerprint() (Fingerprint, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.fp, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// readFirstExisting returns the trimmed contents of the first path that can
// be read. Device-tree files are NUL terminated, so trailing NULs are
// stripped too.
func readFirstExisting(paths ...string) (string, bool) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		s := strings.TrimRight(strings.TrimSpace(string(data)), "\x00")
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// currentUser returns the numeric uid as a string.
func currentUser() (string, bool) {
	return fmt.Sprintf("%d", os.Getuid()), true
}
