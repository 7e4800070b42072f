// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// selftest.go - In-memory verification of the cryptographic pipeline.
//
// The self-test exercises fingerprinting, key derivation, encryption,
// decryption, and partitioning without touching any live file. Operators
// run it after hardware changes to learn whether existing ciphertext is
// still reachable on this device.
package secureconfig

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/halversen/satdash/internal/fingerprint"
)

// SelfTestCheck is the outcome of one pipeline stage.
type SelfTestCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SelfTestResult collects all stage outcomes.
type SelfTestResult struct {
	Passed bool            `json:"passed"`
	Checks []SelfTestCheck `json:"checks"`
}

func (r *SelfTestResult) add(name string, err error) {
	check := SelfTestCheck{Name: name, Passed: err == nil}
	if err != nil {
		check.Detail = err.Error()
		r.Passed = false
	}
	r.Checks = append(r.Checks, check)
}

// SelfTest runs every stage against throwaway key material. Nothing is
// written to disk and no live salt or partition is read.
func SelfTest(provider fingerprint.Provider) *SelfTestResult {
	result := &SelfTestResult{Passed: true}

	fp, err := provider.Fingerprint()
	result.add("device fingerprint", err)
	if err != nil {
		return result
	}

	salt, err := GenerateSalt()
	result.add("salt generation", err)
	if err != nil {
		return result
	}

	key := DeriveKey(fp, salt)
	defer ZeroBytes(key)
	result.add("key derivation", checkKeySize(key))

	result.add("encrypt/decrypt round trip", checkRoundTrip(key))
	result.add("wrong key rejected", checkWrongKey(fp, key))
	result.add("partition split/merge", checkPartitioning())

	return result
}

func checkKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("derived key is %d bytes, want %d", len(key), KeySize)
	}
	return nil
}

// checkRoundTrip seals a known plaintext and opens it again through the
// same wire format the store uses. The store path stays empty; nothing
// touches disk.
func checkRoundTrip(key []byte) error {
	plaintext := []byte(`{"selftest":"round-trip"}`)

	store, err := NewStore("", "", key)
	if err != nil {
		return err
	}
	blob, err := store.encrypt(plaintext)
	if err != nil {
		return err
	}
	opened, err := store.decrypt(blob)
	if err != nil {
		return err
	}
	if !bytes.Equal(opened, plaintext) {
		return errors.New("decrypted output differs from input")
	}
	return nil
}

// checkWrongKey proves that ciphertext under one salt fails authentication
// under another.
func checkWrongKey(fp fingerprint.Fingerprint, key []byte) error {
	otherSalt, err := GenerateSalt()
	if err != nil {
		return err
	}
	otherKey := DeriveKey(fp, otherSalt)
	defer ZeroBytes(otherKey)

	store, err := NewStore("", "", key)
	if err != nil {
		return err
	}
	blob, err := store.encrypt([]byte("selftest"))
	if err != nil {
		return err
	}

	otherStore, err := NewStore("", "", otherKey)
	if err != nil {
		return err
	}
	if _, err := otherStore.decrypt(blob); err == nil {
		return errors.New("ciphertext decrypted under a different key")
	}
	return nil
}

// checkPartitioning verifies merge(split(x)) == x for a representative
// mixed configuration.
func checkPartitioning() error {
	input := map[string]any{
		"language":            "en",
		"refresh_interval":    int64(30),
		"admin_password_hash": "selftest-hash",
		"api_secret":          "selftest-secret",
	}

	pub, sec := Split(input)
	eff, err := Merge(pub, sec)
	if err != nil {
		return err
	}
	if len(eff) != len(input) {
		return fmt.Errorf("merge produced %d keys, want %d", len(eff), len(input))
	}
	for k, v := range input {
		if eff[k] != v {
			return fmt.Errorf("key %q changed across split/merge", k)
		}
	}
	if _, ok := pub["admin_password_hash"]; ok {
		return errors.New("sensitive key landed in the public partition")
	}
	return nil
}
