package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultMaxUpload = 512 << 20
	multipartMemory  = 8 << 20
)

// parseMultipart parses a multipart body no larger than maxBytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{status: http.StatusRequestEntityTooLarge, message: "Upload is too large"}
		}
		return badRequest("Invalid multipart form")
	}
	return nil
}

// spooledFile is an uploaded part copied to a private temp file.
type spooledFile struct {
	Path string
}

// Remove deletes the temp file. It is safe on a nil receiver.
func (f *spooledFile) Remove() {
	if f != nil {
		_ = os.Remove(f.Path)
	}
}

// spool copies the first file of the named part to a temp file. It returns nil
// without error when the part is absent.
func spool(r *http.Request, field string) (*spooledFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[field][0]

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s part: %w", field, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp("", "vidtube-"+field+"-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	spooled := &spooledFile{Path: dst.Name()}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		spooled.Remove()
		return nil, fmt.Errorf("spool %s part: %w", field, err)
	}
	if err := dst.Close(); err != nil {
		spooled.Remove()
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	return spooled, nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
