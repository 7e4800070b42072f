// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// publicfile.go - Plain TOML reader/writer for the public partition and
// the legacy single-file configuration.
package secureconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/halversen/satdash/internal/util"
)

// ReadPublic loads the public partition. A missing file is an empty
// partition, not an error - a fresh device starts with no files at all.
func ReadPublic(path string) (PublicConfig, error) {
	cfg := PublicConfig{}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return PublicConfig{}, nil
		}
		return nil, fmt.Errorf("failed to parse public config: %w", err)
	}
	return cfg, nil
}

// WritePublic persists the public partition as world-readable TOML. The
// file stays hand-editable; sensitive keys never pass through here.
func WritePublic(path string, cfg PublicConfig) error {
	var buf bytes.Buffer
	buf.WriteString("# satdash public configuration.\n")
	buf.WriteString("# Sensitive settings live in the encrypted partition; edit them\n")
	buf.WriteString("# through the application, not here.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode public config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), PublicFileMode, DirMode); err != nil {
		return fmt.Errorf("failed to write public config: %w", err)
	}
	return nil
}

// ReadLegacy loads the unpartitioned legacy configuration file. Unlike
// ReadPublic, a missing file is an error: callers only reach for the
// legacy file when they expect it to exist (migration input, plaintext
// fallback).
func ReadLegacy(path string) (map[string]any, error) {
	cfg := map[string]any{}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read legacy config: %w", err)
	}
	return cfg, nil
}

// WriteLegacy persists the whole mapping to the legacy file. Only the
// plaintext fallback backend writes through here, and only with owner-only
// permissions: in degraded mode the file carries sensitive values.
func WriteLegacy(path string, cfg map[string]any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode legacy config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), OwnerOnlyMode, DirMode); err != nil {
		return fmt.Errorf("failed to write legacy config: %w", err)
	}
	return nil
}
