package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pulseboard/pulseboard/model"
)

// InsertSubmission stores one feedback entry. Answers are persisted as
// the raw JSON document the form posted; classification into tagged
// answers happens on read.
func InsertSubmission(ctx context.Context, db *sql.DB, sub model.Submission, rawAnswers map[string]any) (int, error) {
	answersJson, err := json.Marshal(rawAnswers)
	if err != nil {
		return 0, err
	}

	var id int
	err = db.QueryRowContext(ctx, `
		INSERT INTO submission (department, name, email, contact, location, answers, is_sample, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sub.Department,
		sub.Name,
		sub.Email,
		sub.Contact,
		sub.Location,
		string(answersJson),
		sub.IsSample,
		sub.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SubmissionsInWindow returns submissions with created_at in [from, to),
// oldest first. An empty department matches all departments. Sample rows
// are excluded unless includeSamples is set.
func SubmissionsInWindow(ctx context.Context, db *sql.DB, from, to time.Time, department string, includeSamples bool) ([]model.Submission, error) {
	query := `
		SELECT id, department, name, email, contact, location, answers, is_sample, created_at
		FROM submission
		WHERE created_at >= ? AND created_at < ?`
	args := []any{from, to}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	if !includeSamples {
		query += ` AND is_sample = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var answersJson string
		err = rows.Scan(
			&s.ID, &s.Department,
			&s.Name, &s.Email, &s.Contact, &s.Location,
			&answersJson, &s.IsSample, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		s.Answers, err = model.DecodeAnswers([]byte(answersJson))
		if err != nil {
			return nil, err
		}

		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// DeleteAllSubmissions is the admin bulk clear. Returns the number of
// rows removed.
func DeleteAllSubmissions(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM submission`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
