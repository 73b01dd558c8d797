package repository

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	tmpName, err := writeTemp(path, data, mode)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpName)
	}()
	return os.Rename(tmpName, path)
}

// createFileAtomic is writeFileAtomic that refuses to replace an existing
// file. It reports fs.ErrExist when path is taken.
func createFileAtomic(path string, data []byte, mode fs.FileMode) error {
	tmpName, err := writeTemp(path, data, mode)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if err := os.Link(tmpName, path); err != nil {
		if os.IsExist(err) {
			return fs.ErrExist
		}
		return err
	}
	return nil
}

func writeTemp(path string, data []byte, mode fs.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}

func marshalIndent(v interface{}) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(b, '\n'), nil
}
