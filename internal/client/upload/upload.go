// Package upload checks certificate files before they are sent to the
// backend. Content type is sniffed from the file's bytes, not its name.
package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize is the largest accepted file, in bytes.
const MaxFileSize = 10 << 20

const (
	MsgNoFile          = "Please select a file to upload"
	MsgUnsupportedType = "Please select a PDF or image file (JPEG, PNG, GIF)"
	MsgFileTooLarge    = "File size must be less than 10MB"
)

var (
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// Message returns the text shown to the user for a validation error, or
// "" when err is not one.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return MsgNoFile
	case errors.Is(err, ErrUnsupportedType):
		return MsgUnsupportedType
	case errors.Is(err, ErrFileTooLarge):
		return MsgFileTooLarge
	default:
		return ""
	}
}

// File is a certificate file that passed validation.
type File struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
	Kind        models.FileType
}

// Inspect stats and sniffs the file at path. The type is checked before
// the size, so an oversized text file reports ErrUnsupportedType.
func Inspect(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFile
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFile)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}

	f := &File{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: baseType(mtype.String()),
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate applies the type and size rules and fills in Kind.
func (f *File) Validate() error {
	kind, ok := KindOf(f.ContentType)
	if !ok {
		return ErrUnsupportedType
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	f.Kind = kind
	return nil
}

// Open opens the file for reading. The caller closes it.
func (f *File) Open() (*os.File, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	return fh, nil
}

// KindOf maps a MIME type to the certificate file kind. PDF and any
// image type are accepted.
func KindOf(contentType string) (models.FileType, bool) {
	ct := baseType(contentType)
	switch {
	case ct == "application/pdf":
		return models.FileTypePDF, true
	case strings.HasPrefix(ct, "image/"):
		return models.FileTypeImage, true
	default:
		return "", false
	}
}

// baseType drops MIME parameters such as "; charset=utf-8".
func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
