package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/forensys/evidence-custody/internal/store/model"
)

// JobUpdate is a field mask for partial updates. Nil fields are left
// untouched.
type JobUpdate struct {
	Status          *model.JobStatus
	Stage           *string
	FileSize        *int64
	MimeType        *string
	SHA256Hash      *string
	StoragePath     *string
	StorageLocation *string
	ReportPath      *string
	Filename        *string
	OriginalURL     *string
	Notes           *string
	CompletedAt     *time.Time
}

type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, offset, limit int) (model.JobList, error)
	Update(ctx context.Context, id uuid.UUID, update JobUpdate) (*model.Job, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, stage string, progress float64) error
	CountByStatus(ctx context.Context, since time.Time) (map[model.JobStatus]int64, error)
	Stale(ctx context.Context, threshold time.Duration) (model.JobList, error)
	InitialMigration() error
}

type JobStore struct {
	db *gorm.DB
}

var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Job{})
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, offset, limit int) (model.JobList, error) {
	var jobs model.JobList
	result := s.getDB(ctx).Model(&jobs).Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

// Update applies the field mask. A status change against a job that is
// already terminal is rejected with ErrJobTerminal: completed and failed
// are final by design.
func (s *JobStore) Update(ctx context.Context, id uuid.UUID, update JobUpdate) (*model.Job, error) {
	job := model.Job{ID: id}
	selectFields := []string{"updated_at"}

	if update.Status != nil {
		job.Status = *update.Status
		selectFields = append(selectFields, "status")
	}
	if update.Stage != nil {
		job.Stage = *update.Stage
		selectFields = append(selectFields, "stage")
	}
	if update.FileSize != nil {
		job.FileSize = update.FileSize
		selectFields = append(selectFields, "file_size")
	}
	if update.MimeType != nil {
		job.MimeType = update.MimeType
		selectFields = append(selectFields, "mime_type")
	}
	if update.SHA256Hash != nil {
		job.SHA256Hash = update.SHA256Hash
		selectFields = append(selectFields, "sha256_hash")
	}
	if update.StoragePath != nil {
		job.StoragePath = update.StoragePath
		selectFields = append(selectFields, "storage_path")
	}
	if update.StorageLocation != nil {
		job.StorageLocation = update.StorageLocation
		selectFields = append(selectFields, "storage_location")
	}
	if update.ReportPath != nil {
		job.ReportPath = update.ReportPath
		selectFields = append(selectFields, "report_path")
	}
	if update.Filename != nil {
		job.Filename = update.Filename
		selectFields = append(selectFields, "filename")
	}
	if update.OriginalURL != nil {
		job.OriginalURL = update.OriginalURL
		selectFields = append(selectFields, "original_url")
	}
	if update.Notes != nil {
		job.Notes = update.Notes
		selectFields = append(selectFields, "notes")
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
		selectFields = append(selectFields, "completed_at")
	}

	tx := s.getDB(ctx).Model(&job).Clauses(clause.Returning{}).Select(selectFields)
	if update.Status != nil {
		tx = tx.Where("status NOT IN ?", []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed})
	}

	result := tx.Updates(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("updating job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// either unknown id or a forbidden transition out of a terminal state
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status.Terminal() {
			return nil, ErrJobTerminal
		}
		return nil, ErrRecordNotFound
	}
	return &job, nil
}

// UpdateProgress advances the stage label and progress of a running job.
// Progress is monotonic: a lower value than the current one is ignored.
func (s *JobStore) UpdateProgress(ctx context.Context, id uuid.UUID, stage string, progress float64) error {
	db := s.getDB(ctx)

	var job model.Job
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	if progress < job.Progress {
		progress = job.Progress
	}

	result := db.Model(&model.Job{ID: id}).
		Select("status", "stage", "progress", "updated_at").
		Updates(&model.Job{Status: model.JobStatusProcessing, Stage: stage, Progress: progress})
	return result.Error
}

func (s *JobStore) CountByStatus(ctx context.Context, since time.Time) (map[model.JobStatus]int64, error) {
	type row struct {
		Status model.JobStatus
		Total  int64
	}
	var rows []row

	result := s.getDB(ctx).Model(&model.Job{}).
		Select("status, COUNT(*) as total").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[model.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// Stale returns processing jobs with no activity past the threshold.
// These are flagged for operator attention, never retried automatically.
func (s *JobStore) Stale(ctx context.Context, threshold time.Duration) (model.JobList, error) {
	var jobs model.JobList
	cutoff := time.Now().Add(-threshold)
	result := s.getDB(ctx).
		Where("status = ?", model.JobStatusProcessing).
		Where("updated_at < ?", cutoff).
		Order("updated_at").
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}
