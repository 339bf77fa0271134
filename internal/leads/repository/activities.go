package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leadcrm_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// AppendActivity inserts one immutable ledger entry. The (lead_id, seq)
// primary key acts as the compare-and-swap: when two writers fold the same
// state concurrently, the second insert fails and surfaces as
// ErrSequenceConflict.
func (r *Repository) AppendActivity(ctx context.Context, act domain.Activity) error {
	fieldsJSON, err := json.Marshal(act.Fields)
	if err != nil {
		return fmt.Errorf("encode activity fields: %w", err)
	}
	attachmentsJSON, err := json.Marshal(act.Attachments)
	if err != nil {
		return fmt.Errorf("encode activity attachments: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, seq, actor_id, actor_role, actor_name, fields, notes, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, act.LeadID, act.Seq, act.ActorID, act.ActorRole, act.ActorName, fieldsJSON, act.Notes, attachmentsJSON, act.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSequenceConflict
		}
		return err
	}
	return nil
}

// ListActivities returns a lead's full ledger, oldest first. Folding the
// result reconstructs the lead's current state.
func (r *Repository) ListActivities(ctx context.Context, leadID string) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, seq, actor_id, actor_role, actor_name, fields, notes, attachments, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY seq ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acts := make([]domain.Activity, 0)
	for rows.Next() {
		var (
			act             domain.Activity
			fieldsJSON      []byte
			attachmentsJSON []byte
		)
		if err := rows.Scan(&act.LeadID, &act.Seq, &act.ActorID, &act.ActorRole, &act.ActorName, &fieldsJSON, &act.Notes, &attachmentsJSON, &act.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fieldsJSON, &act.Fields); err != nil {
			return nil, fmt.Errorf("decode activity %s/%d fields: %w", act.LeadID, act.Seq, err)
		}
		if len(attachmentsJSON) > 0 {
			if err := json.Unmarshal(attachmentsJSON, &act.Attachments); err != nil {
				return nil, fmt.Errorf("decode activity %s/%d attachments: %w", act.LeadID, act.Seq, err)
			}
		}
		acts = append(acts, act)
	}
	return acts, rows.Err()
}
