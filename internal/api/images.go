package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxUploadBytes = 5 << 20 // 5MB, same cap for multipart and base64

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// saveUpload writes a multipart image to the upload directory under a
// generated name and returns that name.
func (a *API) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxUploadBytes {
		return "", fmt.Errorf("file too large: %d bytes", header.Size)
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".png"
	}
	name := "product_" + uuid.NewString() + ext

	if err := os.MkdirAll(a.uploads, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(a.uploads, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadBytes)); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return name, nil
}

// saveBase64Image decodes an embedded base64 payload (with or without a
// data-URL prefix) and stores it like a multipart upload.
func (a *API) saveBase64Image(data string) (string, error) {
	raw := dataURLPrefix.ReplaceAllString(strings.TrimSpace(data), "")

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode base64 image: %w", err)
	}
	if len(decoded) > maxUploadBytes {
		return "", fmt.Errorf("image too large: %d bytes", len(decoded))
	}

	if err := os.MkdirAll(a.uploads, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := "product_" + uuid.NewString() + ".png"
	if err := os.WriteFile(filepath.Join(a.uploads, name), decoded, 0o644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	return name, nil
}
