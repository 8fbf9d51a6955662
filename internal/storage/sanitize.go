package storage

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/qasimdev/sijill/internal/utils"
)

// Category selects the extension allow-list and the directory layout.
type Category string

const (
	CategoryCV         Category = "cv"
	CategoryAttachment Category = "attachment"
)

var (
	cvExtensions = map[string]struct{}{
		".pdf": {}, ".doc": {}, ".docx": {},
	}
	// documents plus images
	attachmentExtensions = map[string]struct{}{
		".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
		".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {},
	}

	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	dedupeRuns  = regexp.MustCompile(`_+`)
)

func allowedExtensions(cat Category) map[string]struct{} {
	if cat == CategoryCV {
		return cvExtensions
	}
	return attachmentExtensions
}

// SanitizeFilename normalizes an untrusted upload name into a safe storage
// name: directory components stripped, unsafe characters replaced, extension
// lower-cased and checked against the category allow-list, and a random token
// appended so two uploads with the same user-chosen name never collide.
// Pure apart from reading entropy for the token.
func SanitizeFilename(raw string, cat Category) (string, error) {
	const op = "storage.SanitizeFilename"

	base := filepath.Base(strings.ReplaceAll(raw, "\\", "/"))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == ".." {
		return "", utils.E(utils.CodeUnsupportedFileType, op, "empty filename", nil)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := allowedExtensions(cat)[ext]; !ok {
		return "", utils.E(utils.CodeUnsupportedFileType, op, "file type is not allowed", nil)
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = unsafeChars.ReplaceAllString(stem, "_")
	stem = dedupeRuns.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "._-")
	if stem == "" {
		stem = "file"
	}

	return stem + "_" + randomToken() + ext, nil
}

func randomToken() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
