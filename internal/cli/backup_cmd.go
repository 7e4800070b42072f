// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// backup_cmd.go - Backup and restore of the secure configuration.
//
// Command: backup [subcommand], restore <id>
//
// Subcommands:
//   create (default)    Create a new backup record
//   list                List all backup records (aliases: ls, l)
//
// Examples:
//   satdash backup                       Create a backup
//   satdash backup list                  List available backups
//   satdash restore 20250102-030405      Restore (interactive confirm)
//   satdash restore 20250102-030405 --confirm
//
// Restores are device-bound: a record taken on another device fails
// decryption validation before any live file is touched.
package cli

import (
	"fmt"
	"sort"

	"github.com/halversen/satdash/internal/secureconfig"
)

// HandleBackup handles the "backup" command.
func HandleBackup(args Args) error {
	switch args.Subcommand {
	case "", "create":
		return createBackup(args)
	case "list", "ls", "l":
		return listBackups(args)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Reason:  fmt.Sprintf("unknown backup subcommand %q", args.Subcommand),
			Example: "satdash backup [create|list]",
		}
	}
}

func createBackup(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("backup", "create", err)
	}

	record, err := secureconfig.NewBackupTool(paths).Backup()
	if err != nil {
		return NewCommandError("backup", "create", err)
	}

	return OutputJSON(args.JSON, "backup create", func() (interface{}, error) {
		data := backupData(record)
		if args.JSON {
			return data, nil
		}
		fmt.Println()
		fmt.Println(SuccessStyle.Render("[OK] Backup created"))
		fmt.Printf("  %s%s\n", RenderLabel("Record:"), ValueStyle.Render(record.Name()))
		fmt.Printf("  %s%s\n", RenderLabel("Location:"), ValueStyle.Render(record.Dir))
		fmt.Printf("  %s%d\n", RenderLabel("Files:"), len(record.Files))
		fmt.Println()
		return data, nil
	})
}

func listBackups(args Args) error {
	paths, err := layout(args)
	if err != nil {
		return NewCommandError("backup", "list", err)
	}

	records, err := secureconfig.NewBackupTool(paths).List()
	if err != nil {
		return NewCommandError("backup", "list", err)
	}

	return OutputJSON(args.JSON, "backup list", func() (interface{}, error) {
		data := BackupListData{}
		for _, record := range records {
			data.Backups = append(data.Backups, backupData(record))
		}
		if args.JSON {
			return data, nil
		}

		fmt.Println()
		if len(records) == 0 {
			fmt.Println(DimStyle.Render("No backups found."))
			fmt.Println()
			return data, nil
		}
		fmt.Println(TitleStyle.Render("Backups"))
		for _, record := range records {
			fmt.Printf("  %s  %s  %s\n",
				ValueStyle.Render(record.Name()),
				DimStyle.Render(record.Timestamp.Format("2006-01-02 15:04:05 MST")),
				DimStyle.Render(fmt.Sprintf("%d files", len(record.Files))))
		}
		fmt.Println()
		return data, nil
	})
}

// HandleRestore handles the "restore" command.
func HandleRestore(args Args) error {
	parser := NewArgParser(args.Raw)
	ref := parser.Positional(0)
	if ref == "" {
		return ErrMissingArgument("backup id", "satdash restore 20250102-030405")
	}

	paths, err := layout(args)
	if err != nil {
		return NewCommandError("restore", "", err)
	}

	tool := secureconfig.NewBackupTool(paths)
	record, err := tool.Find(ref)
	if err != nil {
		return NewCommandError("restore", "", err)
	}

	confirmed, err := RequireConfirmationWithDetails(args.Confirm,
		"replace the live configuration with this backup",
		map[string]string{
			"Record":  record.Name(),
			"Created": record.Timestamp.Format("2006-01-02 15:04:05 MST"),
			"Files":   fmt.Sprintf("%d", len(record.Files)),
		}, args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	if err := tool.Restore(record, provider()); err != nil {
		return NewCommandError("restore", "", err)
	}

	return OutputJSON(args.JSON, "restore", func() (interface{}, error) {
		data := backupData(record)
		if args.JSON {
			return data, nil
		}
		fmt.Println()
		fmt.Println(SuccessStyle.Render("[OK] Restore complete"))
		fmt.Printf("  %s%s\n", RenderLabel("Record:"), ValueStyle.Render(record.Name()))
		fmt.Println()
		return data, nil
	})
}

func backupData(record *secureconfig.Record) BackupData {
	files := make([]string, 0, len(record.Files))
	for name := range record.Files {
		files = append(files, name)
	}
	sort.Strings(files)

	return BackupData{
		ID:        record.ID,
		Name:      record.Name(),
		Dir:       record.Dir,
		Timestamp: record.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Files:     files,
	}
}
