package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CallLog struct {
	ID              uuid.UUID
	LeadID          string
	CallerID        uuid.UUID
	CallerName      string
	Direction       string // inbound or outbound
	Outcome         string
	DurationSeconds int
	Notes           string
	OccurredAt      time.Time
	CreatedAt       time.Time
}

type CreateCallLogParams struct {
	LeadID          string
	CallerID        uuid.UUID
	CallerName      string
	Direction       string
	Outcome         string
	DurationSeconds int
	Notes           string
	OccurredAt      time.Time
}

func (r *Repository) CreateCallLog(ctx context.Context, params CreateCallLogParams) (CallLog, error) {
	var log CallLog
	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (lead_id, caller_id, caller_name, direction, outcome, duration_seconds, notes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, lead_id, caller_id, caller_name, direction, outcome, duration_seconds, notes, occurred_at, created_at
	`, params.LeadID, params.CallerID, params.CallerName, params.Direction, params.Outcome, params.DurationSeconds, params.Notes, params.OccurredAt).
		Scan(&log.ID, &log.LeadID, &log.CallerID, &log.CallerName, &log.Direction, &log.Outcome, &log.DurationSeconds, &log.Notes, &log.OccurredAt, &log.CreatedAt)
	return log, err
}

func (r *Repository) ListCallLogs(ctx context.Context, leadID string) ([]CallLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, caller_id, caller_name, direction, outcome, duration_seconds, notes, occurred_at, created_at
		FROM call_logs
		WHERE lead_id = $1
		ORDER BY occurred_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]CallLog, 0)
	for rows.Next() {
		var log CallLog
		if err := rows.Scan(&log.ID, &log.LeadID, &log.CallerID, &log.CallerName, &log.Direction, &log.Outcome, &log.DurationSeconds, &log.Notes, &log.OccurredAt, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
