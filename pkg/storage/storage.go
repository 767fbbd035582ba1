package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload is one incoming file with its client-supplied name.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file part.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromBytes is mostly useful in tests.
func FromBytes(filename string, content []byte) Upload {
	return Upload{
		Filename: filename,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(string(content))), nil
		},
	}
}

// Storage persists uploads and returns a stable relative URL path.
type Storage interface {
	Save(ctx context.Context, folder string, upload Upload) (string, error)
	Remove(ctx context.Context, urlPath string) error
}

// Local writes files under root and exposes them under urlPrefix.
type Local struct {
	root      string
	urlPrefix string
}

func NewLocal(root, urlPrefix string) *Local {
	return &Local{root: root, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func (l *Local) Root() string {
	return l.root
}

// Save stores upload under folder with a fresh uuid-based name.
func (l *Local) Save(ctx context.Context, folder string, upload Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	folder = strings.Trim(filepath.ToSlash(filepath.Clean("/"+folder)), "/")

	dir := filepath.Join(l.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + extension(upload.Filename)

	src, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	return path.Join(l.urlPrefix, folder, name), nil
}

// Remove deletes a file previously returned by Save. A missing file is not an error.
func (l *Local) Remove(ctx context.Context, urlPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := strings.TrimSuffix(l.urlPrefix, "/") + "/"
	rel, ok := strings.CutPrefix(path.Clean("/"+urlPath), prefix)
	if !ok || rel == "" {
		return fmt.Errorf("remove upload: %q is not under %s", urlPath, l.urlPrefix)
	}

	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) <= 1 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// AbsoluteURL prefixes relative paths with baseURL and leaves absolute URLs untouched.
func AbsoluteURL(baseURL, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(baseURL, "/") + p
}
