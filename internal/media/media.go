// Package media stores uploaded images and hands back public URLs.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/matheus3301/chatline/internal/apperr"
)

// Uploader persists an encoded image and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, blob string) (string, error)
}

// MaxBytes caps a decoded upload.
const MaxBytes = 5 << 20

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var namePattern = regexp.MustCompile(`^[0-9a-f-]{36}\.(png|jpg|gif|webp)$`)

// DiskUploader writes data-URL images into a directory served under /media/.
type DiskUploader struct {
	dir     string
	baseURL string
}

func NewDiskUploader(dir, publicBaseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Upload accepts data:<mime>;base64,<payload>.
func (u *DiskUploader) Upload(ctx context.Context, blob string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Upload("upload cancelled", err)
	}
	mime, payload, err := parseDataURL(blob)
	if err != nil {
		return "", apperr.Upload("invalid image", err)
	}
	ext, ok := extensions[mime]
	if !ok {
		return "", apperr.Upload("invalid image", fmt.Errorf("unsupported image type %q", mime))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.Upload("invalid image", fmt.Errorf("decode image: %w", err))
	}
	if len(data) > MaxBytes {
		return "", apperr.Upload("invalid image", fmt.Errorf("image exceeds %d bytes", MaxBytes))
	}

	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(u.dir, name), data, 0600); err != nil {
		return "", apperr.Upload("storing image failed", err)
	}
	return u.baseURL + "/media/" + name, nil
}

// Path resolves a stored file name. ok is false for names Upload never produces.
func (u *DiskUploader) Path(name string) (string, bool) {
	if !namePattern.MatchString(name) {
		return "", false
	}
	return filepath.Join(u.dir, name), true
}

func parseDataURL(blob string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(blob, "data:")
	if !ok {
		return "", "", fmt.Errorf("expected a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("malformed data URL")
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", "", fmt.Errorf("data URL must be base64 encoded")
	}
	return strings.ToLower(mime), payload, nil
}
