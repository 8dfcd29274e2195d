// Package storage holds the file primitives shared by all YAML-backed stores.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFile writes data to path through a temp file in the same directory and
// renames it into place, so readers see either the old or the new content.
func WriteFile(path string, data []byte) error {
	const op = "storage.WriteFile"

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("%s: create directory for %q: %w", op, path, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePerm); err != nil {
		return fmt.Errorf("%s: write temp file %q: %w", op, tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		renameErr := fmt.Errorf("%s: rename %q to %q: %w", op, tempPath, path, err)
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			return errors.Join(renameErr, fmt.Errorf("%s: remove temp file %q: %w", op, tempPath, removeErr))
		}
		return renameErr
	}

	return nil
}

// WriteYAML marshals v and writes it with WriteFile.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage.WriteYAML: marshal %q: %w", path, err)
	}
	return WriteFile(path, data)
}

// ReadYAML unmarshals the file at path into v. A missing file is reported as
// os.ErrNotExist so callers can map it to their own not-found error.
func ReadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage.ReadYAML: parse %q: %w", path, err)
	}
	return nil
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
