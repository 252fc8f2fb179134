package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge/internal/editor"
)

const (
	// Part of the request kept in memory while parsing multipart bodies;
	// the rest spills to temp files.
	multipartMemory = 32 << 20
	maxNameLen      = 128
)

// parseUploadForm bounds the request body and parses the multipart form.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("parse multipart form: %w", err)
	}
	return nil
}

// saveUpload writes one uploaded file into destDir under a sanitized name
// and returns its path.
func saveUpload(fh *multipart.FileHeader, destDir string) (string, error) {
	name := editor.SanitizeName(filepath.Base(fh.Filename), maxNameLen)
	if name == "" || !editor.IsVideoFile(name) {
		return "", fmt.Errorf("unsupported upload %q: expected a video file: %w", fh.Filename, editor.ErrInvalidInput)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	destPath := filepath.Join(destDir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", err
	}
	return destPath, nil
}

// saveUploads stores every file of a repeated form field, preserving the
// order the browser submitted them in. Duplicate names get an index prefix
// so merge inputs cannot clobber each other.
func saveUploads(headers []*multipart.FileHeader, destDir string) ([]string, error) {
	paths := make([]string, 0, len(headers))
	seen := make(map[string]bool)
	for i, fh := range headers {
		dir := destDir
		name := editor.SanitizeName(filepath.Base(fh.Filename), maxNameLen)
		if seen[name] {
			dir = filepath.Join(destDir, fmt.Sprintf("%d", i))
		}
		seen[name] = true

		p, err := saveUpload(fh, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
