package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pulseboard/pulseboard/model"
)

// GetSchedule reads a department's schedule setting, lazily creating the
// default record the first time the department is seen.
func GetSchedule(ctx context.Context, db *sql.DB, department string) (model.ScheduleSetting, error) {
	s := model.ScheduleSetting{Department: department}
	var enabled int
	err := db.QueryRowContext(ctx, `
		SELECT day_of_week, hour, minute, enabled, updated_at
		FROM schedule_setting
		WHERE department = ?`,
		department,
	).Scan(&s.DayOfWeek, &s.Hour, &s.Minute, &enabled, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s = model.DefaultSchedule(department)
		if err := UpsertSchedule(ctx, db, s); err != nil {
			return s, err
		}
		return s, nil
	}
	if err != nil {
		return s, err
	}
	s.Enabled = enabled != 0
	return s, nil
}

// UpsertSchedule replaces the whole record. Updates always carry the
// complete settings object, so there is no partial-field race to guard.
func UpsertSchedule(ctx context.Context, db *sql.DB, s model.ScheduleSetting) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_setting (department, day_of_week, hour, minute, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (department) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			hour = excluded.hour,
			minute = excluded.minute,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		s.Department,
		s.DayOfWeek,
		s.Hour,
		s.Minute,
		s.Enabled,
		time.Now(),
	)
	return err
}
