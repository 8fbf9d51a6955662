package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodePathTraversal       Code = "PATH_TRAVERSAL"
	CodeUnsupportedFileType Code = "UNSUPPORTED_FILE_TYPE"
	CodeEmployeeNotFound    Code = "EMPLOYEE_NOT_FOUND"
	CodeFileRecordNotFound  Code = "FILE_RECORD_NOT_FOUND"
	CodeFileMissing         Code = "FILE_MISSING"
	CodeStorageUnavailable  Code = "STORAGE_UNAVAILABLE"
	CodeStorageWriteFailed  Code = "STORAGE_WRITE_FAILED"
	CodeStorageReadFailed   Code = "STORAGE_READ_FAILED"
	CodeMetadataWriteFailed Code = "METADATA_WRITE_FAILED"
	CodeInternal            Code = "INTERNAL"
)

// AppError is the unified error contract across layers. Raw filesystem and
// database errors never cross a service boundary without being wrapped.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "AttachmentService.Upload"
	Message string // safe message
	Err     error  // wrapped error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidArgument, CodeUnsupportedFileType:
			return http.StatusBadRequest
		case CodeUnauthenticated:
			return http.StatusUnauthorized
		case CodePathTraversal:
			return http.StatusForbidden
		case CodeEmployeeNotFound, CodeFileRecordNotFound, CodeFileMissing:
			return http.StatusNotFound
		case CodeStorageUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	// fallback
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Backward-compatible sentinel errors
var (
	ErrNotFound = errors.New("not found")
)
