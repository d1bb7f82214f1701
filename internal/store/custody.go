package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forensys/evidence-custody/internal/store/model"
)

// Custody is the append-only chain-of-custody ledger. There is no update
// and no delete on purpose.
type Custody interface {
	Append(ctx context.Context, entry model.CustodyEntry) (*model.CustodyEntry, error)
	List(ctx context.Context, jobID uuid.UUID) (model.CustodyEntryList, error)
	Find(ctx context.Context, jobID uuid.UUID, event string) (*model.CustodyEntry, error)
	InitialMigration() error
}

type CustodyStore struct {
	db *gorm.DB
}

var _ Custody = (*CustodyStore)(nil)

func NewCustodyStore(db *gorm.DB) Custody {
	return &CustodyStore{db: db}
}

func (s *CustodyStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.CustodyEntry{})
}

func (s *CustodyStore) Append(ctx context.Context, entry model.CustodyEntry) (*model.CustodyEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	result := s.getDB(ctx).Create(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("appending custody entry: %w", result.Error)
	}
	return &entry, nil
}

// List returns the ordered event sequence for one job, oldest first.
// The insertion id breaks ties between entries written in the same tick.
func (s *CustodyStore) List(ctx context.Context, jobID uuid.UUID) (model.CustodyEntryList, error) {
	var entries model.CustodyEntryList
	result := s.getDB(ctx).
		Where("job_id = ?", jobID).
		Order("timestamp, id").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// Find returns the first entry of the given event kind for a job, or
// ErrRecordNotFound.
func (s *CustodyStore) Find(ctx context.Context, jobID uuid.UUID, event string) (*model.CustodyEntry, error) {
	var entry model.CustodyEntry
	result := s.getDB(ctx).
		Where("job_id = ? AND event = ?", jobID, event).
		Order("timestamp, id").
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &entry, nil
}

func (s *CustodyStore) getDB(ctx context.Context) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}
