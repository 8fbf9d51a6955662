package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/qasimdev/sijill/internal/utils"
)

// LocalStore keeps all uploaded files under a single root directory:
// cv/ for CVs and emp_<id>/ for per-employee attachments. The layout is
// shared with existing deployments and must not change.
type LocalStore struct {
	fs   afero.Fs
	root string
}

func NewLocalStore(fs afero.Fs, root string) (*LocalStore, error) {
	const op = "storage.NewLocalStore"

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, utils.E(utils.CodeStorageUnavailable, op, "invalid upload root", err)
	}
	if err := fs.MkdirAll(abs, 0o755); err != nil {
		return nil, utils.E(utils.CodeStorageUnavailable, op, "failed to create upload root", err)
	}
	return &LocalStore{fs: fs, root: abs}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Dir maps a category and employee id to the relative storage directory.
// The id is validated as a positive integer before it reaches the path.
func (s *LocalStore) Dir(cat Category, employeeID uint) (string, error) {
	const op = "LocalStore.Dir"

	switch cat {
	case CategoryCV:
		return "cv", nil
	case CategoryAttachment:
		if employeeID == 0 {
			return "", utils.E(utils.CodeInvalidArgument, op, "employee id is required", nil)
		}
		return fmt.Sprintf("emp_%d", employeeID), nil
	default:
		return "", utils.E(utils.CodeInvalidArgument, op, "unknown file category", nil)
	}
}

// EnsureDir creates the category directory if absent. Idempotent.
func (s *LocalStore) EnsureDir(cat Category, employeeID uint) (string, error) {
	const op = "LocalStore.EnsureDir"

	rel, err := s.Dir(cat, employeeID)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Join(s.root, rel), 0o755); err != nil {
		return "", utils.E(utils.CodeStorageUnavailable, op, "failed to create storage directory", err)
	}
	return rel, nil
}

// ResolveSafe canonicalizes rel against the root and rejects anything that
// would escape it.
func (s *LocalStore) ResolveSafe(rel string) (string, error) {
	const op = "LocalStore.ResolveSafe"

	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" || filepath.IsAbs(rel) {
		return "", utils.E(utils.CodePathTraversal, op, "access denied", nil)
	}
	abs := filepath.Join(s.root, filepath.Clean(rel))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", utils.E(utils.CodePathTraversal, op, "access denied", nil)
	}
	return abs, nil
}

// Save streams r to relDir/name. A failed write leaves no partial file
// behind; the error surfaces only after cleanup.
func (s *LocalStore) Save(relDir, name string, r io.Reader) (string, error) {
	const op = "LocalStore.Save"

	rel := filepath.ToSlash(filepath.Join(relDir, name))
	abs, err := s.ResolveSafe(rel)
	if err != nil {
		return "", err
	}

	f, err := s.fs.Create(abs)
	if err != nil {
		return "", utils.E(utils.CodeStorageWriteFailed, op, "failed to create file", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(abs)
		return "", utils.E(utils.CodeStorageWriteFailed, op, "failed to write file", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(abs)
		return "", utils.E(utils.CodeStorageWriteFailed, op, "failed to flush file", err)
	}
	return rel, nil
}

// Open returns a readable, seekable handle for an existing stored file.
func (s *LocalStore) Open(rel string) (afero.File, error) {
	const op = "LocalStore.Open"

	abs, err := s.ResolveSafe(rel)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, utils.E(utils.CodeFileMissing, op, "file is missing from storage", err)
		}
		return nil, utils.E(utils.CodeStorageReadFailed, op, "failed to open file", err)
	}
	return f, nil
}

// Exists reports whether a stored file is present. Path-escaping input
// counts as absent.
func (s *LocalStore) Exists(rel string) bool {
	abs, err := s.ResolveSafe(rel)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, abs)
	return err == nil && ok
}

// Remove deletes a stored file. Already-gone is not an error.
func (s *LocalStore) Remove(rel string) error {
	const op = "LocalStore.Remove"

	abs, err := s.ResolveSafe(rel)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(abs); err != nil && !os.IsNotExist(err) {
		return utils.E(utils.CodeStorageWriteFailed, op, "failed to remove file", err)
	}
	return nil
}

// RemoveDir deletes a category directory and anything left inside it.
func (s *LocalStore) RemoveDir(relDir string) error {
	const op = "LocalStore.RemoveDir"

	abs, err := s.ResolveSafe(relDir)
	if err != nil {
		return err
	}
	if abs == s.root {
		return utils.E(utils.CodePathTraversal, op, "access denied", nil)
	}
	if err := s.fs.RemoveAll(abs); err != nil && !os.IsNotExist(err) {
		return utils.E(utils.CodeStorageWriteFailed, op, "failed to remove directory", err)
	}
	return nil
}
