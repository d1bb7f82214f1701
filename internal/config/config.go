package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Storage  *storageConfig
	Queue    *queueConfig
	Limits   *limitsConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"custody"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"CUSTODY_API_ADDRESS" default:":3443"`
	MetricsAddress string `envconfig:"CUSTODY_API_METRICS_ADDRESS" default:":8080"`
	LogLevel       string `envconfig:"CUSTODY_API_LOG_LEVEL" default:"info"`
}

type storageConfig struct {
	Kind      string `envconfig:"CUSTODY_STORAGE_KIND" default:"local"`
	LocalPath string `envconfig:"CUSTODY_STORAGE_LOCAL_PATH" default:"./evidence_storage"`

	S3Endpoint  string `envconfig:"CUSTODY_STORAGE_S3_ENDPOINT" default:""`
	S3Bucket    string `envconfig:"CUSTODY_STORAGE_S3_BUCKET" default:"forensic-evidence"`
	S3AccessKey string `envconfig:"CUSTODY_STORAGE_S3_ACCESS_KEY" default:""`
	S3SecretKey string `envconfig:"CUSTODY_STORAGE_S3_SECRET_KEY" default:""`
	S3UseSSL    bool   `envconfig:"CUSTODY_STORAGE_S3_USE_SSL" default:"true"`
}

type queueConfig struct {
	// Enabled selects the durable queue as the preferred dispatch path.
	// When false every job runs on the in-process path.
	Enabled         bool `envconfig:"CUSTODY_QUEUE_ENABLED" default:"true"`
	FallbackEnabled bool `envconfig:"CUSTODY_QUEUE_FALLBACK_ENABLED" default:"true"`
	MaxWorkers      int  `envconfig:"CUSTODY_QUEUE_MAX_WORKERS" default:"4"`
}

type limitsConfig struct {
	MaxUploadBytes     int64    `envconfig:"CUSTODY_MAX_UPLOAD_BYTES" default:"524288000"`
	MaxDownloadBytes   int64    `envconfig:"CUSTODY_MAX_DOWNLOAD_BYTES" default:"524288000"`
	AllowedMimeTypes   []string `envconfig:"CUSTODY_ALLOWED_MIME_TYPES" default:"image/jpeg,image/png,image/heic,image/heif,video/mp4,video/quicktime,video/x-msvideo,audio/mpeg,audio/wav,application/pdf,text/plain"`
	AllowedExtensions  []string `envconfig:"CUSTODY_ALLOWED_EXTENSIONS" default:".jpg,.jpeg,.png,.heic,.heif,.mp4,.mov,.avi,.mp3,.wav,.pdf,.txt"`
	AllowedURLDomains  []string `envconfig:"CUSTODY_ALLOWED_URL_DOMAINS" default:"twitter.com,x.com,youtube.com,youtu.be"`
	DownloadTimeoutSec int      `envconfig:"CUSTODY_DOWNLOAD_TIMEOUT_SEC" default:"120"`
	StageTimeoutSec    int      `envconfig:"CUSTODY_STAGE_TIMEOUT_SEC" default:"300"`
	StaleThresholdMin  int      `envconfig:"CUSTODY_STALE_THRESHOLD_MIN" default:"60"`
	SpoolDir           string   `envconfig:"CUSTODY_SPOOL_DIR" default:""`
	ReportOutputDir    string   `envconfig:"CUSTODY_REPORT_OUTPUT_DIR" default:""`
}

func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewDefault returns a configuration suitable for tests: sqlite in a
// temporary directory and local storage under the same root.
func NewDefault() *Config {
	root, _ := os.MkdirTemp("", "custody-test-")
	return &Config{
		Database: &dbConfig{Type: "sqlite", Name: filepath.Join(root, "custody.db")},
		Service:  &svcConfig{Address: "localhost:0", MetricsAddress: "localhost:0", LogLevel: "debug"},
		Storage:  &storageConfig{Kind: "local", LocalPath: filepath.Join(root, "evidence")},
		Queue:    &queueConfig{Enabled: false, FallbackEnabled: true, MaxWorkers: 2},
		Limits: &limitsConfig{
			MaxUploadBytes:     1 << 20,
			MaxDownloadBytes:   1 << 20,
			AllowedMimeTypes:   []string{"image/jpeg", "image/png", "text/plain", "application/octet-stream"},
			AllowedExtensions:  []string{".jpg", ".jpeg", ".png", ".txt", ".bin"},
			AllowedURLDomains:  []string{"example.com"},
			DownloadTimeoutSec: 5,
			StageTimeoutSec:    30,
			StaleThresholdMin:  60,
			SpoolDir:           filepath.Join(root, "spool"),
			ReportOutputDir:    filepath.Join(root, "reports"),
		},
	}
}
