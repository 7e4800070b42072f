// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting and monitoring.
//
// Every command supports --json with one standardized envelope so cron
// jobs and dashboards parse a single shape.
package cli

import (
	"encoding/json"
	"os"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout. Human-readable messages go
// to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// OutputJSON runs handler and, in JSON mode, wraps its result in the
// standard envelope. In normal mode the handler is expected to have
// printed its own human-readable output.
func OutputJSON(jsonMode bool, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	if !jsonMode {
		return err
	}

	if err != nil {
		NewJSONErrorResponse(command, err).Print()
		return err
	}
	return NewJSONResponse(command, data).Print()
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// MigrateData is the JSON payload of the migrate command.
type MigrateData struct {
	BackupPath  string `json:"backup_path"`
	SaltCreated bool   `json:"salt_created"`
	PublicKeys  int    `json:"public_keys"`
	SecureKeys  int    `json:"secure_keys"`
}

// BackupData is the JSON payload of backup create.
type BackupData struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Dir       string   `json:"dir"`
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
}

// BackupListData is the JSON payload of backup list.
type BackupListData struct {
	Backups []BackupData `json:"backups"`
}

// RotateData is the JSON payload of the rotate command.
type RotateData struct {
	Backup     string `json:"backup"`
	SecureKeys int    `json:"secure_keys"`
}

// PermissionsData is the JSON payload of the permissions command.
type PermissionsData struct {
	Repaired []string `json:"repaired"`
	Failed   []string `json:"failed"`
}

// VersionData is the JSON payload of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}
