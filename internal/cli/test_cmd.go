// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// test_cmd.go - Encryption self-test.
//
// Command: test (alias: selftest)
//
// Examples:
//   satdash test                 Run the self-test
//   satdash test --json          Machine-readable result for CI
//
// The self-test runs entirely in memory with throwaway key material. Run
// it after a hardware change to learn whether existing ciphertext is
// still reachable before anything tries to decrypt it.
package cli

import (
	"fmt"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleTest handles the "test" command. Returns a non-nil error on any
// failed check so the process exits non-zero.
func HandleTest(args Args) error {
	result := secureconfig.SelfTest(provider())

	err := OutputJSON(args.JSON, "test", func() (interface{}, error) {
		if args.JSON {
			return result, nil
		}

		fmt.Println()
		fmt.Println(TitleStyle.Render("Encryption self-test"))
		fmt.Println(RenderSeparator(60))
		for _, check := range result.Checks {
			if check.Passed {
				fmt.Printf("  %s %s\n", RenderStatus("pass"), check.Name)
			} else {
				fmt.Printf("  %s %s\n", RenderStatus("fail"), check.Name)
				fmt.Printf("         %s\n", DimStyle.Render(check.Detail))
			}
		}
		fmt.Println()
		if result.Passed {
			fmt.Println(SuccessStyle.Render("All checks passed."))
		} else {
			fmt.Println(ErrorStyle.Render("Self-test FAILED."))
		}
		fmt.Println()
		return result, nil
	})
	if err != nil {
		return err
	}

	if !result.Passed {
		return &selfTestError{}
	}
	return nil
}

type selfTestError struct{}

func (*selfTestError) Error() string { return "self-test failed" }
