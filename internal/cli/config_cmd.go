// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Inspect and change configuration values.
//
// Command: config [show|get|set]
//
// Subcommands:
//   show (default)      Show the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value
//
// Examples:
//   satdash config                          Show everything
//   satdash config get language             Print one public value
//   satdash config get auth_token           Prints [redacted] unless --reveal
//   satdash config set language de          Update the public partition
//   satdash config set auth_token abc123    Encrypted transparently
//
// Sensitive values are redacted in show/get output by default; --reveal
// prints them, and only on a terminal (never into a pipe by accident).
package cli

import (
	"fmt"
	"sort"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)
	reveal := parser.BoolFlag("reveal")

	switch parser.Subcommand() {
	case "", "show":
		return showConfig(args, reveal)
	case "get":
		return getConfigValue(args, parser.Positional(1), reveal)
	case "set":
		return setConfigValue(args, parser.Positional(1), parser.Positional(2))
	default:
		return &ValidationError{
			Field:   "subcommand",
			Reason:  fmt.Sprintf("unknown config subcommand %q", parser.Subcommand()),
			Example: "satdash config [show|get|set]",
		}
	}
}

func showConfig(args Args, reveal bool) error {
	mgr, err := openManager(args, false)
	if err != nil {
		return NewCommandError("config", "show", err)
	}

	all := mgr.All()
	return OutputJSON(args.JSON, "config show", func() (interface{}, error) {
		if args.JSON {
			return redactedView(all, reveal && IsStdoutTTY()), nil
		}

		fmt.Println()
		fmt.Println(TitleStyle.Render("Effective configuration"))
		if !mgr.Secure() {
			fmt.Println(WarningStyle.Render("Running in degraded plaintext mode."))
		}
		fmt.Println(RenderSeparator(60))

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Printf("  %s%s\n", RenderLabel(k+":"), ValueStyle.Render(displayValue(k, all[k], reveal)))
		}
		fmt.Println()
		return nil, nil
	})
}

func getConfigValue(args Args, key string, reveal bool) error {
	if key == "" {
		return ErrMissingArgument("key", "satdash config get language")
	}

	mgr, err := openManager(args, false)
	if err != nil {
		return NewCommandError("config", "get", err)
	}

	value := mgr.Get(key, nil)
	if value == nil {
		return &ValidationError{Field: "key", Reason: fmt.Sprintf("%q is not set", key)}
	}

	return OutputJSON(args.JSON, "config get", func() (interface{}, error) {
		rendered := displayValue(key, value, reveal)
		if args.JSON {
			return map[string]any{"key": key, "value": rendered, "sensitive": secureconfig.IsSensitive(key)}, nil
		}
		fmt.Println(rendered)
		return nil, nil
	})
}

func setConfigValue(args Args, key, value string) error {
	if key == "" || value == "" {
		return ErrMissingArgument("key/value", "satdash config set language de")
	}

	// Writes never degrade silently: setting a sensitive key in plaintext
	// mode would store it unencrypted.
	requireSecure := secureconfig.IsSensitive(key)
	mgr, err := openManager(args, requireSecure)
	if err != nil {
		return NewCommandError("config", "set", err)
	}

	warnings, err := mgr.Set(key, value)
	if err != nil {
		return NewCommandError("config", "set", err)
	}

	return OutputJSON(args.JSON, "config set", func() (interface{}, error) {
		data := map[string]any{"key": key, "sensitive": secureconfig.IsSensitive(key)}
		if args.JSON {
			return data, nil
		}
		if secureconfig.IsSensitive(key) {
			fmt.Printf("%s %s stored in the encrypted partition\n", SuccessStyle.Render("[OK]"), key)
		} else {
			fmt.Printf("%s %s updated\n", SuccessStyle.Render("[OK]"), key)
		}
		for _, w := range warnings {
			fmt.Println(WarningStyle.Render("[WARN] " + w.String()))
		}
		return data, nil
	})
}

// displayValue renders a value for output, redacting sensitive keys
// unless reveal is set on a terminal.
func displayValue(key string, value any, reveal bool) string {
	if secureconfig.IsSensitive(key) && !(reveal && IsStdoutTTY()) {
		return "[redacted]"
	}
	return fmt.Sprintf("%v", value)
}

// redactedView applies the same redaction to a whole map for JSON output.
func redactedView(all secureconfig.EffectiveConfig, reveal bool) map[string]any {
	out := make(map[string]any, len(all))
	for k, v := range all {
		if secureconfig.IsSensitive(k) && !reveal {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}
