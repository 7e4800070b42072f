// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// backup.go - Timestamped backup and restore of the secure partition.
//
// A backup record is a directory under backups/ holding verbatim copies of
// the secure partition, the salt, and the public file (plus the legacy
// file when present), together with a meta.json carrying checksums.
// Backups stay device-bound: the ciphertext inside is the same ciphertext,
// so restoring a record taken on a different device fails authentication
// instead of producing garbage.
package secureconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halversen/satdash/internal/fingerprint"
	"github.com/halversen/satdash/internal/util"
)

const backupMetaFile = "meta.json"

// Record describes one backup: which files it holds and their checksums.
type Record struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Files     map[string]string `json:"files"` // base name -> sha256 hex
	Dir       string            `json:"-"`
}

// Name returns the record's directory name (its timestamp label).
func (r *Record) Name() string {
	return filepath.Base(r.Dir)
}

// BackupTool creates and restores backup records for one layout.
type BackupTool struct {
	paths Paths
}

// NewBackupTool returns a tool over the given layout.
func NewBackupTool(paths Paths) *BackupTool {
	return &BackupTool{paths: paths}
}

// =============================================================================
// BACKUP
// =============================================================================

// Backup copies the current secure partition, salt, and public file (and
// the legacy file if still present) into a fresh timestamped record.
func (t *BackupTool) Backup() (*Record, error) {
	if !fileExists(t.paths.SecureFile) {
		return nil, fmt.Errorf("nothing to back up: no secure partition at %s", t.paths.SecureFile)
	}

	dir := filepath.Join(t.paths.BackupDir, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	record := &Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Files:     map[string]string{},
		Dir:       dir,
	}

	sources := []struct {
		path     string
		perm     os.FileMode
		required bool
	}{
		{t.paths.SecureFile, OwnerOnlyMode, true},
		{t.paths.SaltFile, OwnerOnlyMode, true},
		{t.paths.PublicFile, PublicFileMode, false},
		{t.paths.LegacyFile, OwnerOnlyMode, false},
	}

	for _, src := range sources {
		if !fileExists(src.path) {
			if src.required {
				return nil, fmt.Errorf("backup aborted: %s is missing", src.path)
			}
			continue
		}
		name := filepath.Base(src.path)
		if err := util.CopyFile(src.path, filepath.Join(dir, name), src.perm); err != nil {
			return nil, fmt.Errorf("backup aborted: %w", err)
		}
		sum, err := checksumFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		record.Files[name] = sum
	}

	meta, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := util.AtomicWriteFile(filepath.Join(dir, backupMetaFile), meta, OwnerOnlyMode); err != nil {
		return nil, err
	}

	return record, nil
}

// =============================================================================
// LISTING
// =============================================================================

// List returns all backup records, newest first.
func (t *BackupTool) List() ([]*Record, error) {
	entries, err := os.ReadDir(t.paths.BackupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := t.readRecord(filepath.Join(t.paths.BackupDir, entry.Name()))
		if err != nil {
			continue // unreadable record: skip rather than fail the listing
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// Find resolves a record by directory name or record id.
func (t *BackupTool) Find(ref string) (*Record, error) {
	records, err := t.List()
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.Name() == ref || record.ID == ref {
			return record, nil
		}
	}
	return nil, fmt.Errorf("no backup record %q", ref)
}

func (t *BackupTool) readRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, backupMetaFile))
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	record.Dir = dir
	return &record, nil
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore replaces the live files with the record's copies. Before
// touching anything it verifies the record's checksums and proves the
// backed-up ciphertext decrypts under the current device fingerprint and
// the backed-up salt - a record from another device, or one taken before a
// salt rotation it does not include, fails with ErrDecryptionFailed and
// the live state is left untouched.
func (t *BackupTool) Restore(record *Record, provider fingerprint.Provider) error {
	if err := t.verify(record); err != nil {
		return err
	}

	if err := t.proveDecryptable(record, provider); err != nil {
		return err
	}

	// Salt first, then ciphertext: both come from the same record, so the
	// pair is consistent once the second replace lands. Each individual
	// replace is atomic.
	targets := []struct {
		name string
		dst  string
		perm os.FileMode
	}{
		{filepath.Base(t.paths.SaltFile), t.paths.SaltFile, OwnerOnlyMode},
		{filepath.Base(t.paths.SecureFile), t.paths.SecureFile, OwnerOnlyMode},
		{filepath.Base(t.paths.PublicFile), t.paths.PublicFile, PublicFileMode},
		{filepath.Base(t.paths.LegacyFile), t.paths.LegacyFile, OwnerOnlyMode},
	}

	for _, target := range targets {
		if _, ok := record.Files[target.name]; !ok {
			continue
		}
		src := filepath.Join(record.Dir, target.name)
		if err := util.CopyFile(src, target.dst, target.perm); err != nil {
			return fmt.Errorf("restore failed at %s: %w", target.name, err)
		}
	}

	return nil
}

// verify checks every file in the record against its recorded checksum.
func (t *BackupTool) verify(record *Record) error {
	for name, want := range record.Files {
		got, err := checksumFile(filepath.Join(record.Dir, name))
		if err != nil {
			return fmt.Errorf("backup record %s is incomplete: %w", record.Name(), err)
		}
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("backup record %s failed checksum verification for %s", record.Name(), name)
		}
	}
	return nil
}

// proveDecryptable decrypts the backed-up ciphertext in place (read-only)
// using the backed-up salt and the current fingerprint.
func (t *BackupTool) proveDecryptable(record *Record, provider fingerprint.Provider) error {
	secureName := filepath.Base(t.paths.SecureFile)
	saltName := filepath.Base(t.paths.SaltFile)
	if _, ok := record.Files[secureName]; !ok {
		return fmt.Errorf("backup record %s has no secure partition", record.Name())
	}

	fp, err := provider.Fingerprint()
	if err != nil {
		return fmt.Errorf("cannot validate restore without a device fingerprint: %w", err)
	}

	salt, err := LoadSalt(filepath.Join(record.Dir, saltName))
	if err != nil {
		return fmt.Errorf("backup record %s has no usable salt: %w", record.Name(), err)
	}

	key := DeriveKey(fp, salt)
	defer ZeroBytes(key)

	store, err := NewStore(filepath.Join(record.Dir, secureName), "", key)
	if err != nil {
		return err
	}
	if _, err := store.Load(); err != nil {
		return err // ErrDecryptionFailed: wrong device or corrupted record
	}
	return nil
}

// checksumFile returns the sha256 of a file as lowercase hex.
func checksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
