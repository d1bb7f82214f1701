// Package storage persists evidence files plus their sidecar metadata
// under a job-scoped location. Backends are swappable behind the Backend
// interface; the choice is made once at boot from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/forensys/evidence-custody/internal/config"
)

const metadataObjectName = "metadata.json"

// SidecarMetadata is the document co-located with every stored evidence
// file.
type SidecarMetadata struct {
	Basic      BasicInfo      `json:"basic"`
	Processing ProcessingInfo `json:"processing_info"`
	Source     SourceInfo     `json:"source"`
}

type BasicInfo struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

type ProcessingInfo struct {
	SHA256Hash     string `json:"sha256_hash"`
	InvestigatorID string `json:"investigator_id"`
	StoredAt       string `json:"stored_at"`
}

type SourceInfo struct {
	Kind        string `json:"kind"`
	OriginalURL string `json:"original_url,omitempty"`
	Platform    string `json:"platform,omitempty"`
}

type StoreResult struct {
	Path     string
	Location string
	Size     int64
}

type RetrieveResult struct {
	Path     string
	Metadata SidecarMetadata
	Size     int64
}

type Backend interface {
	// Store copies the evidence at filePath under a job-scoped location
	// together with the sidecar metadata document.
	Store(ctx context.Context, filePath string, jobID uuid.UUID, meta SidecarMetadata) (StoreResult, error)
	// Retrieve returns the stored evidence for a job, or nil when absent.
	Retrieve(ctx context.Context, jobID uuid.UUID) (*RetrieveResult, error)
	Kind() string
}

// New selects the backend from configuration.
func New(cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Kind {
	case "local", "":
		return NewLocalBackend(cfg.Storage.LocalPath)
	case "s3":
		return NewMinioBackend(
			WithEndpoint(cfg.Storage.S3Endpoint),
			WithBucket(cfg.Storage.S3Bucket),
			WithAccessKey(cfg.Storage.S3AccessKey),
			WithSecretKey(cfg.Storage.S3SecretKey),
			WithSSL(cfg.Storage.S3UseSSL),
		)
	default:
		return nil, fmt.Errorf("unknown storage backend kind: %q", cfg.Storage.Kind)
	}
}
