// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the satdash operator command surface: parsing,
// styled terminal output, JSON output for scripting, and the handlers for
// the secure-configuration maintenance commands.
package cli
