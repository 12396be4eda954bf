package adapters

import (
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// MediaKind is the coarse category of an upload
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindOther MediaKind = "other"
)

// MediaUpload wraps a raw file plus its derived preview URL and MIME category.
// Uploads are caller-owned; adapters never keep them past a single call.
type MediaUpload struct {
	Name       string    `json:"name"`
	MIMEType   string    `json:"mime_type"`
	Kind       MediaKind `json:"kind"`
	Size       int64     `json:"size"`
	Data       []byte    `json:"-"`
	PreviewURL string    `json:"preview_url,omitempty"`
}

// NewMediaUpload builds an upload from in-memory bytes, sniffing the MIME type
func NewMediaUpload(name string, data []byte) *MediaUpload {
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return &MediaUpload{
		Name:     name,
		MIMEType: mimeType,
		Kind:     kindOf(mimeType),
		Size:     int64(len(data)),
		Data:     data,
	}
}

// MediaFromFile reads a file from disk into an upload
func MediaFromFile(path string) (*MediaUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read media %s", path)
	}
	m := NewMediaUpload(filepath.Base(path), data)
	if abs, err := filepath.Abs(path); err == nil {
		m.PreviewURL = "file://" + filepath.ToSlash(abs)
	}
	return m, nil
}

// Len returns the upload size: the larger of the declared size and the payload
func (m *MediaUpload) Len() int64 {
	return max(m.Size, int64(len(m.Data)))
}

// Base64 returns the raw standard base64 encoding of the payload
func (m *MediaUpload) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Data)
}

// DataURI returns the payload as a data: URI
func (m *MediaUpload) DataURI() string {
	mimeType := m.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + m.Base64()
}

func kindOf(mimeType string) MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaKindImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaKindVideo
	default:
		return MediaKindOther
	}
}
