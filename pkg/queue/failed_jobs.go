package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/markethub/pkg/logger"
)

// FailedJobRecord is a row of the failed_jobs table.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"job_type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null" json:"failed_at"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

func (m *Manager) persistFailed(ctx context.Context, f FailedJob) {
	m.mu.Lock()
	m.failed = append(m.failed, f)
	db := m.db
	m.mu.Unlock()

	if db == nil {
		return
	}
	rec := FailedJobRecord{
		JobType:  f.Name,
		Payload:  string(f.Payload),
		Error:    f.Err,
		Attempts: f.Attempts,
		FailedAt: f.FailedAt,
	}
	if err := db.WithContext(context.WithoutCancel(ctx)).Create(&rec).Error; err != nil {
		logger.Error("queue: persist failed job", "type", f.Name, "error", err)
	}
}

// StoredFailures lists failed_jobs, newest first.
func (m *Manager) StoredFailures(ctx context.Context) ([]FailedJobRecord, error) {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("queue: no database configured")
	}
	var out []FailedJobRecord
	err := db.WithContext(ctx).Order("failed_at desc").Find(&out).Error
	return out, err
}

// Retry pushes a stored failure back onto the queue and removes its row.
func (m *Manager) Retry(ctx context.Context, id uint) error {
	m.mu.RLock()
	db, d := m.db, m.driver
	m.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("queue: no database configured")
	}

	var rec FailedJobRecord
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return fmt.Errorf("queue: failed job %d: %w", id, err)
	}
	raw, err := json.Marshal(envelope{Type: rec.JobType, Payload: json.RawMessage(rec.Payload)})
	if err != nil {
		return err
	}
	if err := d.Push(ctx, raw); err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&FailedJobRecord{}, rec.ID).Error
}
