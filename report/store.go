package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/pulseboard/pulseboard/database"
	"github.com/pulseboard/pulseboard/model"
)

// ScheduleStore is the keyed settings record store the scheduler reads.
// Reads lazily create the default record for unseen departments.
type ScheduleStore interface {
	GetSchedule(ctx context.Context, department string) (model.ScheduleSetting, error)
}

type dbSource struct {
	db *sql.DB
}

// NewDBSource adapts the sqlite submission table to SubmissionSource.
// Sample rows never reach dispatch: synthetic demo data must not land in
// real recipients' reports.
func NewDBSource(db *sql.DB) SubmissionSource {
	return dbSource{db}
}

func (s dbSource) SubmissionsInWindow(ctx context.Context, from, to time.Time) ([]model.Submission, error) {
	return database.SubmissionsInWindow(ctx, s.db, from, to, "", false)
}

type dbScheduleStore struct {
	db *sql.DB
}

func NewDBScheduleStore(db *sql.DB) ScheduleStore {
	return dbScheduleStore{db}
}

func (s dbScheduleStore) GetSchedule(ctx context.Context, department string) (model.ScheduleSetting, error) {
	return database.GetSchedule(ctx, s.db, department)
}
