package storage

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/qasimdev/sijill/internal/utils"
)

func newTestStore(t *testing.T) (*LocalStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewLocalStore(fs, "uploads")
	require.NoError(t, err)
	return store, fs
}

// errReader fails partway through a copy.
type errReader struct {
	data []byte
	read bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestLocalStoreDir(t *testing.T) {
	store, _ := newTestStore(t)

	t.Run("CV", func(t *testing.T) {
		rel, err := store.Dir(CategoryCV, 0)
		require.NoError(t, err)
		require.Equal(t, "cv", rel)
	})

	t.Run("Attachment", func(t *testing.T) {
		rel, err := store.Dir(CategoryAttachment, 7)
		require.NoError(t, err)
		require.Equal(t, "emp_7", rel)
	})

	t.Run("AttachmentRequiresEmployee", func(t *testing.T) {
		_, err := store.Dir(CategoryAttachment, 0)
		require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})
}

func TestLocalStoreResolveSafe(t *testing.T) {
	store, _ := newTestStore(t)

	t.Run("Inside", func(t *testing.T) {
		abs, err := store.ResolveSafe("emp_7/a.pdf")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(abs, store.Root()))
	})

	t.Run("Traversal", func(t *testing.T) {
		for _, rel := range []string{"../secret", "emp_7/../../secret", "..", "emp_7/../.."} {
			_, err := store.ResolveSafe(rel)
			require.True(t, utils.IsCode(err, utils.CodePathTraversal), "%q", rel)
		}
	})

	t.Run("Absolute", func(t *testing.T) {
		_, err := store.ResolveSafe("/etc/passwd")
		require.True(t, utils.IsCode(err, utils.CodePathTraversal))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := store.ResolveSafe("")
		require.True(t, utils.IsCode(err, utils.CodePathTraversal))
	})
}

func TestLocalStoreSave(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store, _ := newTestStore(t)

		dir, err := store.EnsureDir(CategoryAttachment, 7)
		require.NoError(t, err)

		rel, err := store.Save(dir, "a.pdf", strings.NewReader("content"))
		require.NoError(t, err)
		require.Equal(t, "emp_7/a.pdf", rel)

		f, err := store.Open(rel)
		require.NoError(t, err)
		defer f.Close()

		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "content", string(b))
	})

	t.Run("PartialWriteLeavesNothing", func(t *testing.T) {
		store, fs := newTestStore(t)

		dir, err := store.EnsureDir(CategoryAttachment, 7)
		require.NoError(t, err)

		_, err = store.Save(dir, "b.pdf", &errReader{data: []byte("partial")})
		require.True(t, utils.IsCode(err, utils.CodeStorageWriteFailed))

		exists, err := afero.Exists(fs, filepath.Join(store.Root(), "emp_7", "b.pdf"))
		require.NoError(t, err)
		require.False(t, exists, "partial file must be removed before the error surfaces")
	})
}

func TestLocalStoreRemove(t *testing.T) {
	store, _ := newTestStore(t)

	dir, err := store.EnsureDir(CategoryAttachment, 3)
	require.NoError(t, err)
	rel, err := store.Save(dir, "x.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(rel))
	require.False(t, store.Exists(rel))

	// already-gone is not an error
	require.NoError(t, store.Remove(rel))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Open("emp_9/nope.pdf")
	require.True(t, utils.IsCode(err, utils.CodeFileMissing))
}

func TestLocalStoreRemoveDir(t *testing.T) {
	store, _ := newTestStore(t)

	dir, err := store.EnsureDir(CategoryAttachment, 5)
	require.NoError(t, err)
	rel, err := store.Save(dir, "y.pdf", strings.NewReader("y"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveDir(dir))
	require.False(t, store.Exists(rel))

	t.Run("RefusesRoot", func(t *testing.T) {
		err := store.RemoveDir(".")
		require.True(t, utils.IsCode(err, utils.CodePathTraversal))
	})
}
