// Package metadata extracts descriptive attributes from evidence files.
// Extraction is best effort: an unrecognized file never fails the job.
package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Metadata struct {
	FileName  string         `json:"file_name"`
	FileSize  int64          `json:"file_size"`
	MimeType  string         `json:"mime_type"`
	Extension string         `json:"extension,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

type Extractor interface {
	Extract(ctx context.Context, path string) (Metadata, error)
}

type fileExtractor struct{}

func NewExtractor() Extractor {
	return &fileExtractor{}
}

func (e *fileExtractor) Extract(ctx context.Context, path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{
		FileName:  filepath.Base(path),
		FileSize:  info.Size(),
		Extension: strings.ToLower(filepath.Ext(path)),
		MimeType:  "application/octet-stream",
		Attrs: map[string]any{
			"mod_time": info.ModTime().UTC(),
		},
	}

	if mtype, err := mimetype.DetectFile(path); err == nil {
		meta.MimeType = mtype.String()
		if mtype.Extension() != "" {
			meta.Attrs["detected_extension"] = mtype.Extension()
		}
	}

	return meta, nil
}
