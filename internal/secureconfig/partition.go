// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// partition.go - Classification of configuration keys into public and
// sensitive sets, and the split/merge operations built on it.
//
// The classification is fixed and name-based. Partitioning is total and
// exclusive over the key namespace: every key is either public or
// sensitive, never both, never neither.
package secureconfig

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// sensitiveKeys lists exact key names that always belong to the secure
// partition. These are the keys the dashboard actually stores today.
var sensitiveKeys = map[string]bool{
	"addresses":           true, // watched wallet addresses
	"xpubs":               true, // extended public keys for balance scanning
	"admin_password_hash": true,
	"admin_password":      true,
	"rpc_password":        true,
	"api_secret":          true,
	"auth_token":          true,
}

// sensitiveSuffixes classifies key families by suffix, so a new credential
// key added later lands in the secure partition without a code change.
var sensitiveSuffixes = []string{
	"_password",
	"_password_hash",
	"_secret",
	"_token",
	"_api_key",
	"_xpub",
}

// sensitivePrefixes classifies wallet material by prefix.
var sensitivePrefixes = []string{
	"xpub",
	"wallet_",
	"address_",
}

// IsSensitive reports whether a configuration key belongs to the secure
// partition. Matching is case-insensitive on the key name.
func IsSensitive(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	for _, prefix := range sensitivePrefixes {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// =============================================================================
// SPLIT / MERGE
// =============================================================================

// Split partitions a mapping into its public and sensitive halves. Every
// input key appears in exactly one of the results.
func Split(m map[string]any) (PublicConfig, SecureConfig) {
	pub := PublicConfig{}
	sec := SecureConfig{}
	for key, value := range m {
		if IsSensitive(key) {
			sec[key] = value
		} else {
			pub[key] = value
		}
	}
	return pub, sec
}

// Merge combines the two partitions into the effective configuration. A
// key present in both with different values means a corrupted or
// hand-edited file: Merge fails with ErrPartitionConflict and never
// resolves the conflict by preferring one side.
func Merge(pub PublicConfig, sec SecureConfig) (EffectiveConfig, error) {
	eff := make(EffectiveConfig, len(pub)+len(sec))
	for key, value := range pub {
		eff[key] = value
	}

	var conflicts []string
	for key, value := range sec {
		if existing, ok := eff[key]; ok && !reflect.DeepEqual(existing, value) {
			conflicts = append(conflicts, key)
			continue
		}
		eff[key] = value
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		// Key names are not sensitive; values must never appear here.
		return nil, fmt.Errorf("%w: %s", ErrPartitionConflict, strings.Join(conflicts, ", "))
	}
	return eff, nil
}
