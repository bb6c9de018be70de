// Durable audit trail of moderation outcomes. Every decision can be recorded
// with enough context (fingerprint, score, flags, provider) to answer "why
// was this allowed" months later without re-running providers.
package audit

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ContentRecord is one persisted moderation outcome.
type ContentRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Fingerprint string    `gorm:"index" json:"fingerprint"`
	Modality    string    `gorm:"index" json:"modality"`
	Decision    string    `gorm:"index" json:"decision"`
	SafetyScore float64   `json:"safety_score"`
	Flags       string    `json:"flags"`
	Provider    string    `json:"provider"`
	Cached      bool      `json:"cached"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// Recorder is the engine-facing interface; failures to record must never
// fail the moderation request itself, so implementations log and swallow.
type Recorder interface {
	Record(ctx context.Context, rec *ContentRecord)
}

// GormRecorder persists audit records through gorm (sqlite or postgres).
type GormRecorder struct {
	DB *gorm.DB
}

var _ Recorder = (*GormRecorder)(nil)

func NewGormRecorder(db *gorm.DB) (*GormRecorder, error) {
	if err := db.AutoMigrate(&ContentRecord{}); err != nil {
		return nil, err
	}
	return &GormRecorder{DB: db}, nil
}

func (gr *GormRecorder) Record(ctx context.Context, rec *ContentRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := gr.DB.WithContext(ctx).Create(rec).Error; err != nil {
		// audit is best-effort; the decision was already made and returned
		gormRecordFailures.Inc()
	}
}

// Recent returns the latest records for a fingerprint, newest first.
func (gr *GormRecorder) Recent(ctx context.Context, fingerprint string, limit int) ([]ContentRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []ContentRecord
	q := gr.DB.WithContext(ctx).Order("id desc").Limit(limit)
	if fingerprint != "" {
		q = q.Where("fingerprint = ?", fingerprint)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// JoinFlags flattens a flag list for the Flags column.
func JoinFlags(flags []string) string {
	return strings.Join(flags, ",")
}
