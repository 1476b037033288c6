package logstore

import (
	"context"
	"fmt"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// RunHistory is one completed run, durably recorded in Postgres. Optional:
// absent a configured DSN, nothing in the app wires this store, and
// watering proceeds unaffected (spec section 7's storage-failure policy).
type RunHistory struct {
	ID        uint `gorm:"primaryKey"`
	StationID int
	ProgramID int
	Kind      int
	Seconds   int
	EndedAt   time.Time
}

// TableName customizes the table name, mirroring the teacher's Tabler pattern.
func (RunHistory) TableName() string { return "run_history" }

// HistoryStore durably records completed runs in Postgres via GORM.
type HistoryStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewHistoryStore opens a GORM connection to dsn and migrates the schema.
func NewHistoryStore(dsn string, logger *zap.SugaredLogger) (*HistoryStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("history store: connect: %w", err)
	}
	if err := db.AutoMigrate(&RunHistory{}); err != nil {
		return nil, fmt.Errorf("history store: migrate: %w", err)
	}
	return &HistoryStore{db: db, logger: logger}, nil
}

// RecordRun implements core.LogSink. Failures are logged and swallowed;
// durable history is a convenience, never a watering-path dependency.
func (h *HistoryStore) RecordRun(run core.CompletedRun) {
	row := RunHistory{
		StationID: run.StationID,
		ProgramID: run.ProgramID,
		Kind:      wireRecordKind(run.Kind),
		Seconds:   int(run.Duration / time.Second),
		EndedAt:   run.EndTime,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil && h.logger != nil {
		h.logger.Warnw("history store: failed to record run", "error", err)
	}
}

// RecordSensorChange implements core.LogSink as a no-op; sensor events are
// high-frequency and belong in the daily log, not durable history.
func (h *HistoryStore) RecordSensorChange(int, bool, time.Time) {}
