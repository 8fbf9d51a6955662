package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/repositories"
	"github.com/qasimdev/sijill/internal/storage"
	"github.com/qasimdev/sijill/internal/utils"
)

// AttachmentService owns the file lifecycle: a file is either fully stored
// (bytes on disk plus a metadata row) or it never happened. Failures during
// upload leave no partial file and no orphan record.
type AttachmentService interface {
	Upload(ctx context.Context, actor string, employeeID uint, rawName, label string, r io.Reader) (*models.EmployeeFile, error)
	ReplaceCV(ctx context.Context, actor string, employeeID uint, rawName string, r io.Reader) (string, error)
	Retrieve(ctx context.Context, actor string, employeeID, fileID uint) (afero.File, *models.EmployeeFile, error)
	Delete(ctx context.Context, actor string, employeeID, fileID uint) error
	CascadeDeleteEmployee(ctx context.Context, actor string, employeeID uint) error
	OpenPath(ctx context.Context, actor string, rel string) (afero.File, error)
}

type attachmentService struct {
	files     repositories.EmployeeFileRepository
	employees repositories.EmployeeRepository
	store     *storage.LocalStore
	log       *logrus.Logger
}

func NewAttachmentService(
	files repositories.EmployeeFileRepository,
	employees repositories.EmployeeRepository,
	store *storage.LocalStore,
	log *logrus.Logger,
) AttachmentService {
	return &attachmentService{files: files, employees: employees, store: store, log: log}
}

func (s *attachmentService) requireEmployee(ctx context.Context, op string, employeeID uint) error {
	if employeeID == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "employee id is required", nil)
	}
	exists, err := s.employees.Exists(ctx, employeeID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to check employee", err)
	}
	if !exists {
		return utils.E(utils.CodeEmployeeNotFound, op, "employee not found", nil)
	}
	return nil
}

// Upload sanitizes, writes the bytes, then records the metadata. The order
// matters: if the record insert fails the just-written file is removed
// before the error surfaces, so the caller never has cleanup to do.
func (s *attachmentService) Upload(ctx context.Context, actor string, employeeID uint, rawName, label string, r io.Reader) (*models.EmployeeFile, error) {
	const op = "AttachmentService.Upload"

	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if err := s.requireEmployee(ctx, op, employeeID); err != nil {
		return nil, err
	}

	name, err := storage.SanitizeFilename(rawName, storage.CategoryAttachment)
	if err != nil {
		return nil, err
	}

	dir, err := s.store.EnsureDir(storage.CategoryAttachment, employeeID)
	if err != nil {
		return nil, err
	}

	rel, err := s.store.Save(dir, name, r)
	if err != nil {
		return nil, err
	}

	rec := &models.EmployeeFile{
		EmployeeID: employeeID,
		Filename:   rel,
		Label:      label,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.files.Insert(ctx, rec); err != nil {
		if rmErr := s.store.Remove(rel); rmErr != nil {
			s.log.WithFields(logrus.Fields{"path": rel, "error": rmErr}).
				Error("failed to remove file after metadata insert failure")
		}
		return nil, utils.E(utils.CodeMetadataWriteFailed, op, "failed to record file metadata", err)
	}

	s.log.WithFields(logrus.Fields{"employee_id": employeeID, "file_id": rec.ID, "path": rel}).
		Info("attachment stored")
	return rec, nil
}

// ReplaceCV stores a new CV under cv/, points the employee row at it, then
// removes the previous CV file best-effort. The old reference is only
// dropped after the new file is durably recorded.
func (s *attachmentService) ReplaceCV(ctx context.Context, actor string, employeeID uint, rawName string, r io.Reader) (string, error) {
	const op = "AttachmentService.ReplaceCV"

	if err := requireActor(op, actor); err != nil {
		return "", err
	}
	if employeeID == 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "employee id is required", nil)
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.E(utils.CodeEmployeeNotFound, op, "employee not found", err)
		}
		return "", utils.E(utils.CodeInternal, op, "failed to load employee", err)
	}

	name, err := storage.SanitizeFilename(rawName, storage.CategoryCV)
	if err != nil {
		return "", err
	}

	dir, err := s.store.EnsureDir(storage.CategoryCV, employeeID)
	if err != nil {
		return "", err
	}

	rel, err := s.store.Save(dir, name, r)
	if err != nil {
		return "", err
	}

	if err := s.employees.SetCVFilename(ctx, employeeID, rel); err != nil {
		if rmErr := s.store.Remove(rel); rmErr != nil {
			s.log.WithFields(logrus.Fields{"path": rel, "error": rmErr}).
				Error("failed to remove cv after reference update failure")
		}
		return "", utils.E(utils.CodeMetadataWriteFailed, op, "failed to update cv reference", err)
	}

	if old := emp.CVFilename; old != "" && old != rel {
		if rmErr := s.store.Remove(old); rmErr != nil {
			s.log.WithFields(logrus.Fields{"path": old, "error": rmErr}).
				Warn("failed to remove replaced cv file")
		}
	}
	return rel, nil
}

// Retrieve opens a stored attachment after checking ownership. A record
// whose employee does not match is reported as not found, never as someone
// else's file.
func (s *attachmentService) Retrieve(ctx context.Context, actor string, employeeID, fileID uint) (afero.File, *models.EmployeeFile, error) {
	const op = "AttachmentService.Retrieve"

	if err := requireActor(op, actor); err != nil {
		return nil, nil, err
	}

	rec, err := s.ownedRecord(ctx, op, employeeID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.store.Open(rec.Filename)
	if err != nil {
		if utils.IsCode(err, utils.CodeFileMissing) {
			s.log.WithFields(logrus.Fields{"file_id": rec.ID, "path": rec.Filename}).
				Warn("file record has no backing file")
		}
		return nil, nil, err
	}
	return f, rec, nil
}

// Delete removes the physical file first, then the record. An orphaned
// record is the recoverable inconsistency; an orphaned file is not, so the
// record is never dropped while its bytes might still be needed for retry.
func (s *attachmentService) Delete(ctx context.Context, actor string, employeeID, fileID uint) error {
	const op = "AttachmentService.Delete"

	if err := requireActor(op, actor); err != nil {
		return err
	}

	rec, err := s.ownedRecord(ctx, op, employeeID, fileID)
	if err != nil {
		return err
	}

	// already-gone is not an error for delete
	if err := s.store.Remove(rec.Filename); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeFileRecordNotFound, op, "file not found", err)
		}
		return utils.E(utils.CodeMetadataWriteFailed, op, "failed to delete file record", err)
	}

	s.log.WithFields(logrus.Fields{"employee_id": employeeID, "file_id": fileID}).
		Info("attachment deleted")
	return nil
}

// CascadeDeleteEmployee removes every file the employee owns (best-effort,
// individual failures are logged and skipped), then all records in one
// batch, then the employee row and its now-empty directory.
func (s *attachmentService) CascadeDeleteEmployee(ctx context.Context, actor string, employeeID uint) error {
	const op = "AttachmentService.CascadeDeleteEmployee"

	if err := requireActor(op, actor); err != nil {
		return err
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeEmployeeNotFound, op, "employee not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load employee", err)
	}

	recs, err := s.files.ListByEmployee(ctx, employeeID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to list employee files", err)
	}
	for _, rec := range recs {
		if rmErr := s.store.Remove(rec.Filename); rmErr != nil {
			s.log.WithFields(logrus.Fields{"file_id": rec.ID, "path": rec.Filename, "error": rmErr}).
				Warn("failed to remove file during cascade delete")
		}
	}
	if emp.CVFilename != "" {
		if rmErr := s.store.Remove(emp.CVFilename); rmErr != nil {
			s.log.WithFields(logrus.Fields{"path": emp.CVFilename, "error": rmErr}).
				Warn("failed to remove cv during cascade delete")
		}
	}

	if err := s.files.DeleteAllForEmployee(ctx, employeeID); err != nil {
		return utils.E(utils.CodeMetadataWriteFailed, op, "failed to delete file records", err)
	}
	if err := s.employees.Delete(ctx, employeeID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeMetadataWriteFailed, op, "failed to delete employee", err)
	}

	if dir, dirErr := s.store.Dir(storage.CategoryAttachment, employeeID); dirErr == nil {
		if rmErr := s.store.RemoveDir(dir); rmErr != nil {
			s.log.WithFields(logrus.Fields{"dir": dir, "error": rmErr}).
				Warn("failed to remove employee directory")
		}
	}

	s.log.WithFields(logrus.Fields{"employee_id": employeeID, "files": len(recs)}).
		Info("employee deleted with files")
	return nil
}

// OpenPath serves a file by its relative storage path (used for CVs, which
// are referenced from the employee row rather than a file record). The path
// is canonicalized against the upload root before any filesystem access.
func (s *attachmentService) OpenPath(ctx context.Context, actor string, rel string) (afero.File, error) {
	const op = "AttachmentService.OpenPath"

	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if _, err := s.store.ResolveSafe(rel); err != nil {
		return nil, err
	}
	return s.store.Open(rel)
}

func (s *attachmentService) ownedRecord(ctx context.Context, op string, employeeID, fileID uint) (*models.EmployeeFile, error) {
	rec, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeFileRecordNotFound, op, "file not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load file record", err)
	}
	if rec.EmployeeID != employeeID {
		// ownership check: never leak another employee's file
		return nil, utils.E(utils.CodeFileRecordNotFound, op, "file not found", nil)
	}
	return rec, nil
}
