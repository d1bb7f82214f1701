package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) { c.endpoint = endpoint }
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) { c.bucket = bucket }
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) { c.accessKey = accessKey }
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) { c.secretAccessKey = secretKey }
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) { c.useSSL = useSSL }
}

// minioBackend mirrors the local backend's two-artifact convention
// (evidence object + metadata object) under a job-prefixed key.
type minioBackend struct {
	cfg    *minioConfig
	client *minio.Client
}

var _ Backend = (*minioBackend)(nil)

func NewMinioBackend(opts ...MinioOpts) (Backend, error) {
	cfg := &minioConfig{useSSL: true}
	for _, o := range opts {
		o(cfg)
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	b := &minioBackend{cfg: cfg, client: client}
	if err := b.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *minioBackend) Kind() string {
	return "s3"
}

func (m *minioBackend) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.cfg.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", m.cfg.bucket, err)
	}
	return nil
}

func (m *minioBackend) Store(ctx context.Context, filePath string, jobID uuid.UUID, meta SidecarMetadata) (StoreResult, error) {
	ext := filepath.Ext(meta.Basic.FileName)
	if ext == "" {
		ext = ".bin"
	}
	objectKey := fmt.Sprintf("%s/%s%s", jobID, uuid.New().String(), ext)

	info, err := m.client.FPutObject(ctx, m.cfg.bucket, objectKey, filePath, minio.PutObjectOptions{
		ContentType: meta.Basic.MimeType,
	})
	if err != nil {
		return StoreResult{}, fmt.Errorf("uploading evidence object: %w", err)
	}

	if meta.Processing.StoredAt == "" {
		meta.Processing.StoredAt = time.Now().UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return StoreResult{}, fmt.Errorf("encoding sidecar metadata: %w", err)
	}
	metadataKey := fmt.Sprintf("%s/%s", jobID, metadataObjectName)
	if _, err := m.client.PutObject(ctx, m.cfg.bucket, metadataKey, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	}); err != nil {
		return StoreResult{}, fmt.Errorf("uploading sidecar metadata: %w", err)
	}

	return StoreResult{
		Path:     objectKey,
		Location: fmt.Sprintf("s3://%s/%s", m.cfg.bucket, objectKey),
		Size:     info.Size,
	}, nil
}

// Retrieve downloads the evidence object to a temporary file so callers
// can re-hash it the same way local evidence is hashed.
func (m *minioBackend) Retrieve(ctx context.Context, jobID uuid.UUID) (*RetrieveResult, error) {
	prefix := jobID.String() + "/"

	var evidenceKey string
	var size int64
	for object := range m.client.ListObjects(ctx, m.cfg.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("listing objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/"+metadataObjectName) {
			continue
		}
		evidenceKey = object.Key
		size = object.Size
		break
	}
	if evidenceKey == "" {
		return nil, nil
	}

	tmp, err := os.CreateTemp("", "evidence-*"+filepath.Ext(evidenceKey))
	if err != nil {
		return nil, err
	}
	tmp.Close()
	if err := m.client.FGetObject(ctx, m.cfg.bucket, evidenceKey, tmp.Name(), minio.GetObjectOptions{}); err != nil {
		return nil, fmt.Errorf("downloading evidence object: %w", err)
	}

	var meta SidecarMetadata
	metaObj, err := m.client.GetObject(ctx, m.cfg.bucket, prefix+metadataObjectName, minio.GetObjectOptions{})
	if err == nil {
		_ = json.NewDecoder(metaObj).Decode(&meta)
		metaObj.Close()
	}

	return &RetrieveResult{Path: tmp.Name(), Metadata: meta, Size: size}, nil
}
