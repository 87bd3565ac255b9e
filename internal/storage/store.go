// Package storage persists accepted upload bytes on local disk, standing in
// for the platform's hosted object bucket. Objects are grouped by upload
// profile and keyed by a generated identifier; the key is what upload records
// store and what retrieval goes through.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes and reads upload objects under a root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save writes data as a new object under the given profile and returns its
// key. The original filename contributes only its extension; the stored name
// is a generated UUID so attacker-controlled names never reach the
// filesystem. The write goes to a temp file first and is renamed into place
// so a crash cannot leave a partial object under a valid key.
func (s *Store) Save(profile, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, profile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create profile dir: %w", err)
	}

	key := profile + "/" + uuid.NewString() + safeExt(filename)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: close object: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: finalize object: %w", err)
	}

	return key, nil
}

// Open returns the object bytes for a key previously returned by Save.
func (s *Store) Open(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object for a key. Missing objects are not an error.
func (s *Store) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete object %s: %w", key, err)
	}
	return nil
}

// resolve maps a key to an on-disk path, rejecting keys that would escape
// the root.
func (s *Store) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("storage: invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// safeExt returns a lowercase extension from the original filename, or empty
// when the extension contains anything besides letters and digits.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
