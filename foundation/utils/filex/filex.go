// File: filex.go
// Title: File Utilities
// Description: Implements the file helpers used by the CCL store and the
//              external tool wrappers: existence and mtime checks, suffix
//              swapping, atomic writes, copies, touches and backups.
// Author: msto63
// Version: v0.2.1
// Created: 2026-10-02
// Modified: 2026-10-14
//
// Change History:
// - 2026-10-02 v0.1.0: Trimmed to the case-file helpers
// - 2026-10-09 v0.2.0: Added WriteAtomic, LatestModTime and IsNewer
// - 2026-10-14 v0.2.1: Removed Move

package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileCopyOptions configures copy operations
type FileCopyOptions struct {
	PreserveMode    bool // Preserve file permissions
	PreserveTime    bool // Preserve modification time
	CreateDirs      bool // Create parent directories if they don't exist
	OverwriteTarget bool // Overwrite target if it exists
}

// DefaultCopyOptions returns default options for file copying
func DefaultCopyOptions() FileCopyOptions {
	return FileCopyOptions{
		PreserveMode:    true,
		PreserveTime:    true,
		CreateDirs:      true,
		OverwriteTarget: false,
	}
}

// ===============================
// File Existence and Basic Info
// ===============================

// Exists checks if a file or directory exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsFile checks if the path exists and is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir checks if the path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ModTime returns the modification time of path
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// LatestModTime returns the newest modification time among the paths that
// exist. ok is false when none of them exists.
func LatestModTime(paths ...string) (latest time.Time, ok bool) {
	for _, p := range paths {
		mt, err := ModTime(p)
		if err != nil {
			continue
		}
		if !ok || mt.After(latest) {
			latest = mt
			ok = true
		}
	}
	return latest, ok
}

// IsNewer reports whether path a was modified strictly after path b.
// A missing b counts as older than anything.
func IsNewer(a, b string) (bool, error) {
	ta, err := ModTime(a)
	if err != nil {
		return false, err
	}
	tb, err := ModTime(b)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return ta.After(tb), nil
}

// ===============================
// Path Manipulation
// ===============================

// ChangeSuffix replaces the extension of path with suffix.
// suffix includes the dot, e.g. ".ccl".
func ChangeSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// HasSuffix reports whether path ends in one of the given extensions,
// compared case-insensitively
func HasSuffix(path string, suffixes ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range suffixes {
		if ext == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// ===============================
// Write Operations
// ===============================

// WriteAtomic writes data to a temporary file in the target directory and
// renames it over path, so readers see either the old or the new content
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteAtomicFunc(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteAtomicFunc is WriteAtomic with the content produced by fn
func WriteAtomicFunc(path string, perm os.FileMode, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directories: %w", err)
	}

	tmp := TempSibling(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// TempSibling returns an unused file name next to path
func TempSibling(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}

// ===============================
// File Copy Operations
// ===============================

// Copy copies a file from source to destination with options
func Copy(src, dst string, options ...FileCopyOptions) error {
	opts := DefaultCopyOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source file does not exist: %s", src)
	}

	if Exists(dst) && !opts.OverwriteTarget {
		return fmt.Errorf("destination file exists and overwrite is disabled: %s", dst)
	}

	if opts.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create parent directories: %w", err)
		}
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	if opts.PreserveMode {
		if err := os.Chmod(dst, srcInfo.Mode()); err != nil {
			return fmt.Errorf("failed to preserve file mode: %w", err)
		}
	}

	if opts.PreserveTime {
		if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
			return fmt.Errorf("failed to preserve file time: %w", err)
		}
	}

	return nil
}

// ===============================
// Utility Functions
// ===============================

// Touch creates an empty file or updates the modification time of an existing file
func Touch(path string) error {
	if !Exists(path) {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", path, err)
		}
		return file.Close()
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("failed to update modification time for %s: %w", path, err)
	}
	return nil
}

// Backup creates a backup copy of a file with a timestamp suffix
func Backup(path string) (string, error) {
	if !Exists(path) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}

	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backupPath := fmt.Sprintf("%s_%s%s", base, timestamp, ext)

	if err := Copy(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	return backupPath, nil
}
