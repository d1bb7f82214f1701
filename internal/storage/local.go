package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// localBackend keeps one directory per job under a base path. The
// evidence copy gets a random name; collision avoidance is deliberately
// decoupled from the content hash, which is tracked in the job record
// and the ledger.
type localBackend struct {
	basePath string
}

var _ Backend = (*localBackend)(nil)

func NewLocalBackend(basePath string) (Backend, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage base path: %w", err)
	}
	return &localBackend{basePath: basePath}, nil
}

func (l *localBackend) Kind() string {
	return "local"
}

func (l *localBackend) Store(ctx context.Context, filePath string, jobID uuid.UUID, meta SidecarMetadata) (StoreResult, error) {
	src, err := os.Open(filePath)
	if err != nil {
		return StoreResult{}, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	jobDir := filepath.Join(l.basePath, jobID.String())
	if err := os.MkdirAll(jobDir, 0o750); err != nil {
		return StoreResult{}, fmt.Errorf("creating job directory: %w", err)
	}

	ext := filepath.Ext(meta.Basic.FileName)
	if ext == "" {
		ext = ".bin"
	}
	destPath := filepath.Join(jobDir, uuid.New().String()+ext)

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return StoreResult{}, fmt.Errorf("creating evidence copy: %w", err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return StoreResult{}, fmt.Errorf("copying evidence: %w", err)
	}

	if meta.Processing.StoredAt == "" {
		meta.Processing.StoredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := l.writeSidecar(jobDir, meta); err != nil {
		return StoreResult{}, err
	}

	return StoreResult{
		Path:     destPath,
		Location: "local://" + destPath,
		Size:     written,
	}, nil
}

func (l *localBackend) Retrieve(ctx context.Context, jobID uuid.UUID) (*RetrieveResult, error) {
	jobDir := filepath.Join(l.basePath, jobID.String())

	entries, err := os.ReadDir(jobDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading job directory: %w", err)
	}

	var evidencePath string
	var size int64
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == metadataObjectName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		evidencePath = filepath.Join(jobDir, entry.Name())
		size = info.Size()
		break
	}
	if evidencePath == "" {
		return nil, nil
	}

	var meta SidecarMetadata
	raw, err := os.ReadFile(filepath.Join(jobDir, metadataObjectName))
	if err == nil {
		_ = json.Unmarshal(raw, &meta)
	}

	return &RetrieveResult{Path: evidencePath, Metadata: meta, Size: size}, nil
}

func (l *localBackend) writeSidecar(jobDir string, meta SidecarMetadata) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sidecar metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, metadataObjectName), raw, 0o640); err != nil {
		return fmt.Errorf("writing sidecar metadata: %w", err)
	}
	return nil
}
