// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for subcommands.
package cli

import (
	"strings"
)

// ArgParser provides unified argument parsing for command handlers.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//   - Subcommands: first positional argument
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser creates a new argument parser from raw arguments.
//
// Example:
//
//	p := NewArgParser([]string{"restore", "20250102-030405", "--confirm"})
//	p.Subcommand()        // "restore"
//	p.Positional(1)       // "20250102-030405"
//	p.BoolFlag("confirm") // true
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if !strings.HasPrefix(arg, "-") {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// --flag=value form
		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			name := strings.TrimLeft(parts[0], "-")
			if parts[1] == "true" || parts[1] == "false" {
				parser.boolFlags[name] = parts[1] == "true"
			} else {
				parser.flags[name] = parts[1]
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			parser.flags[name] = raw[i+1]
			i += 2
		} else {
			parser.boolFlags[name] = true
			i++
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not set.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// BoolFlag returns the value of a boolean flag.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// HasFlag returns true if the flag was given in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "". Index 0 is
// the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return nil
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}
