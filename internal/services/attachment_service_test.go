package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qasimdev/sijill/internal/logger"
	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/repositories"
	"github.com/qasimdev/sijill/internal/storage"
	"github.com/qasimdev/sijill/internal/utils"
)

type fixture struct {
	db        *gorm.DB
	fs        afero.Fs
	store     *storage.LocalStore
	employees repositories.EmployeeRepository
	files     repositories.EmployeeFileRepository
	svc       AttachmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employee{}, &models.EmployeeFile{}))

	fs := afero.NewMemMapFs()
	store, err := storage.NewLocalStore(fs, "uploads")
	require.NoError(t, err)

	employees := repositories.NewEmployeeRepo(db)
	files := repositories.NewEmployeeFileRepo(db)

	return &fixture{
		db:        db,
		fs:        fs,
		store:     store,
		employees: employees,
		files:     files,
		svc:       NewAttachmentService(files, employees, store, logger.New("error")),
	}
}

func (fx *fixture) createEmployee(t *testing.T, name string) *models.Employee {
	t.Helper()
	e := &models.Employee{Name: name}
	require.NoError(t, fx.employees.Create(context.Background(), e))
	return e
}

func (fx *fixture) dirEntries(t *testing.T, rel string) int {
	t.Helper()
	infos, err := afero.ReadDir(fx.fs, filepath.Join(fx.store.Root(), rel))
	if err != nil {
		return 0
	}
	return len(infos)
}

func TestAttachmentUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("FileAndRecordBothExist", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "resume.pdf", "شهادة", strings.NewReader("pdf bytes"))
		require.NoError(t, err)
		require.NotZero(t, rec.ID)
		require.Equal(t, emp.ID, rec.EmployeeID)
		require.True(t, strings.HasPrefix(rec.Filename, "emp_"), rec.Filename)
		require.True(t, fx.store.Exists(rec.Filename))

		listed, err := fx.files.ListByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, rec.ID, listed[0].ID)
	})

	t.Run("UnsupportedTypeLeavesNothing", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		_, err := fx.svc.Upload(ctx, "admin", emp.ID, "resume.exe", "", strings.NewReader("mz"))
		require.True(t, utils.IsCode(err, utils.CodeUnsupportedFileType))

		require.Zero(t, fx.dirEntries(t, "emp_1"), "disk must be unchanged")
		listed, err := fx.files.ListByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		require.Empty(t, listed, "store must be unchanged")
	})

	t.Run("MissingEmployee", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.svc.Upload(ctx, "admin", 42, "resume.pdf", "", strings.NewReader("x"))
		require.True(t, utils.IsCode(err, utils.CodeEmployeeNotFound))
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		_, err := fx.svc.Upload(ctx, "", emp.ID, "resume.pdf", "", strings.NewReader("x"))
		require.True(t, utils.IsCode(err, utils.CodeUnauthenticated))
	})

	t.Run("MetadataFailureRemovesFile", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		svc := NewAttachmentService(
			&failingFileRepo{EmployeeFileRepository: fx.files},
			fx.employees, fx.store, logger.New("error"))

		_, err := svc.Upload(ctx, "admin", emp.ID, "resume.pdf", "", strings.NewReader("x"))
		require.True(t, utils.IsCode(err, utils.CodeMetadataWriteFailed))
		require.Zero(t, fx.dirEntries(t, "emp_1"), "compensating delete must remove the written file")
	})
}

type failingFileRepo struct {
	repositories.EmployeeFileRepository
}

func (r *failingFileRepo) Insert(ctx context.Context, f *models.EmployeeFile) error {
	return errors.New("database is locked")
}

func TestAttachmentRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("StreamsBytes", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")
		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "", strings.NewReader("cert bytes"))
		require.NoError(t, err)

		f, got, err := fx.svc.Retrieve(ctx, "admin", emp.ID, rec.ID)
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, rec.ID, got.ID)

		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "cert bytes", string(b))
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		fx := newFixture(t)
		owner := fx.createEmployee(t, "سعاد")
		other := fx.createEmployee(t, "خالد")
		rec, err := fx.svc.Upload(ctx, "admin", owner.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)

		_, _, err = fx.svc.Retrieve(ctx, "admin", other.ID, rec.ID)
		require.True(t, utils.IsCode(err, utils.CodeFileRecordNotFound),
			"foreign file must look like it does not exist")
	})

	t.Run("MissingBackingFile", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")
		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, fx.store.Remove(rec.Filename))

		_, _, err = fx.svc.Retrieve(ctx, "admin", emp.ID, rec.ID)
		require.True(t, utils.IsCode(err, utils.CodeFileMissing))
	})

	t.Run("UnknownRecord", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		_, _, err := fx.svc.Retrieve(ctx, "admin", emp.ID, 99)
		require.True(t, utils.IsCode(err, utils.CodeFileRecordNotFound))
	})
}

func TestAttachmentDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Idempotent", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")
		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, fx.svc.Delete(ctx, "admin", emp.ID, rec.ID))
		require.False(t, fx.store.Exists(rec.Filename))

		err = fx.svc.Delete(ctx, "admin", emp.ID, rec.ID)
		require.True(t, utils.IsCode(err, utils.CodeFileRecordNotFound),
			"second delete reports not found, never crashes")
	})

	t.Run("FileAlreadyGoneStillDeletesRecord", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")
		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, fx.store.Remove(rec.Filename))
		require.NoError(t, fx.svc.Delete(ctx, "admin", emp.ID, rec.ID))

		listed, err := fx.files.ListByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		require.Empty(t, listed)
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		fx := newFixture(t)
		owner := fx.createEmployee(t, "سعاد")
		other := fx.createEmployee(t, "خالد")
		rec, err := fx.svc.Upload(ctx, "admin", owner.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)

		err = fx.svc.Delete(ctx, "admin", other.ID, rec.ID)
		require.True(t, utils.IsCode(err, utils.CodeFileRecordNotFound))
		require.True(t, fx.store.Exists(rec.Filename), "foreign delete must not touch the file")
	})
}

func TestReplaceCV(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresAndReferences", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		rel, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "resume.pdf", strings.NewReader("v1"))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(rel, "cv/"), rel)
		require.True(t, fx.store.Exists(rel))

		got, err := fx.employees.GetByID(ctx, emp.ID)
		require.NoError(t, err)
		require.Equal(t, rel, got.CVFilename)
	})

	t.Run("ReplacementRemovesOldFile", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		first, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "resume.pdf", strings.NewReader("v1"))
		require.NoError(t, err)
		second, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "resume.pdf", strings.NewReader("v2"))
		require.NoError(t, err)

		require.False(t, fx.store.Exists(first), "old cv must not be orphaned")
		require.True(t, fx.store.Exists(second))
	})

	t.Run("RejectsNonDocument", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		_, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "photo.png", strings.NewReader("x"))
		require.True(t, utils.IsCode(err, utils.CodeUnsupportedFileType))
	})
}

func TestCascadeDeleteEmployee(t *testing.T) {
	ctx := context.Background()

	t.Run("NoResidue", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		cv, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "resume.pdf", strings.NewReader("cv"))
		require.NoError(t, err)
		a, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "شهادة", strings.NewReader("a"))
		require.NoError(t, err)
		b, err := fx.svc.Upload(ctx, "admin", emp.ID, "course.docx", "دورة", strings.NewReader("b"))
		require.NoError(t, err)

		require.NoError(t, fx.svc.CascadeDeleteEmployee(ctx, "admin", emp.ID))

		require.False(t, fx.store.Exists(cv))
		require.False(t, fx.store.Exists(a.Filename))
		require.False(t, fx.store.Exists(b.Filename))

		listed, err := fx.files.ListByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		require.Empty(t, listed)

		exists, err := fx.employees.Exists(ctx, emp.ID)
		require.NoError(t, err)
		require.False(t, exists)

		require.Zero(t, fx.dirEntries(t, "emp_1"), "employee directory must be gone")
	})

	t.Run("RecordsDeletedEvenWithMissingFiles", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")

		rec, err := fx.svc.Upload(ctx, "admin", emp.ID, "cert.pdf", "", strings.NewReader("x"))
		require.NoError(t, err)
		require.NoError(t, fx.store.Remove(rec.Filename))

		require.NoError(t, fx.svc.CascadeDeleteEmployee(ctx, "admin", emp.ID))

		listed, err := fx.files.ListByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		require.Empty(t, listed)
	})

	t.Run("UnknownEmployee", func(t *testing.T) {
		fx := newFixture(t)
		err := fx.svc.CascadeDeleteEmployee(ctx, "admin", 404)
		require.True(t, utils.IsCode(err, utils.CodeEmployeeNotFound))
	})
}

func TestOpenPath(t *testing.T) {
	ctx := context.Background()

	t.Run("ServesStoredCV", func(t *testing.T) {
		fx := newFixture(t)
		emp := fx.createEmployee(t, "سعاد")
		rel, err := fx.svc.ReplaceCV(ctx, "admin", emp.ID, "resume.pdf", strings.NewReader("cv bytes"))
		require.NoError(t, err)

		f, err := fx.svc.OpenPath(ctx, "admin", rel)
		require.NoError(t, err)
		defer f.Close()

		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "cv bytes", string(b))
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.OpenPath(ctx, "admin", "../etc/passwd")
		require.True(t, utils.IsCode(err, utils.CodePathTraversal))
	})

	t.Run("RejectsUnauthenticated", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.OpenPath(ctx, "", "cv/x.pdf")
		require.True(t, utils.IsCode(err, utils.CodeUnauthenticated))
	})
}

// Production opens SQLite with foreign_keys(1), so a file record whose
// employee row is already gone is rejected at insert rather than lingering
// as an orphan.
func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employee{}, &models.EmployeeFile{}))

	employees := repositories.NewEmployeeRepo(db)
	files := repositories.NewEmployeeFileRepo(db)

	e := &models.Employee{Name: "سعاد"}
	require.NoError(t, employees.Create(ctx, e))
	require.NoError(t, employees.Delete(ctx, e.ID))

	err = files.Insert(ctx, &models.EmployeeFile{EmployeeID: e.ID, Filename: "emp_1/x.pdf"})
	require.Error(t, err, "record for a deleted employee must be rejected")
}
