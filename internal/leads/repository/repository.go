package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadcrm_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrSequenceConflict signals a concurrent writer claimed the activity
	// sequence number first. Callers re-read and retry.
	ErrSequenceConflict = errors.New("activity sequence conflict")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextLeadID allocates a human-readable lead identifier from the database
// sequence, e.g. "LD-000042".
func (r *Repository) NextLeadID(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('lead_id_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("allocate lead id: %w", err)
	}
	return fmt.Sprintf("LD-%06d", n), nil
}

// GetSnapshot reads the projected current state of a lead.
func (r *Repository) GetSnapshot(ctx context.Context, leadID string) (domain.Snapshot, error) {
	var (
		snap            domain.Snapshot
		fieldsJSON      []byte
		milestonesJSON  []byte
		attachmentsJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT lead_id, version, created_at, updated_at, fields, milestones, attachments
		FROM leads
		WHERE lead_id = $1
	`, leadID).Scan(&snap.LeadID, &snap.Version, &snap.CreatedAt, &snap.UpdatedAt, &fieldsJSON, &milestonesJSON, &attachmentsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, err
	}

	if err := json.Unmarshal(fieldsJSON, &snap.Fields); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode lead fields: %w", err)
	}
	if len(milestonesJSON) > 0 {
		if err := json.Unmarshal(milestonesJSON, &snap.Milestones); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode lead milestones: %w", err)
		}
	}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &snap.Attachments); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode lead attachments: %w", err)
		}
	}
	return snap, nil
}

// SaveSnapshot upserts the projection. The activity ledger is the source of
// truth; the version guard keeps a stale writer from clobbering a newer
// projection.
func (r *Repository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	fieldsJSON, err := json.Marshal(snap.Fields)
	if err != nil {
		return fmt.Errorf("encode lead fields: %w", err)
	}
	milestonesJSON, err := json.Marshal(snap.Milestones)
	if err != nil {
		return fmt.Errorf("encode lead milestones: %w", err)
	}
	attachmentsJSON, err := json.Marshal(snap.Attachments)
	if err != nil {
		return fmt.Errorf("encode lead attachments: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO leads (lead_id, version, created_at, updated_at, fields, milestones, attachments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lead_id) DO UPDATE SET
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			fields = EXCLUDED.fields,
			milestones = EXCLUDED.milestones,
			attachments = EXCLUDED.attachments
		WHERE leads.version < EXCLUDED.version
	`, snap.LeadID, snap.Version, snap.CreatedAt, snap.UpdatedAt, fieldsJSON, milestonesJSON, attachmentsJSON)
	return err
}

// DuplicateMatch is a lightweight hit from the duplicate-number pre-check.
type DuplicateMatch struct {
	LeadID    string
	Name      string
	Status    string
	CreatedAt time.Time
}

// FindByContactNumber returns existing leads carrying the same normalized
// contact number, newest first.
func (r *Repository) FindByContactNumber(ctx context.Context, digits string) ([]DuplicateMatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, COALESCE(fields->>'name', ''), fields->>'status', created_at
		FROM leads
		WHERE fields->>'contactNumber' = $1
		ORDER BY created_at DESC
	`, digits)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]DuplicateMatch, 0)
	for rows.Next() {
		var m DuplicateMatch
		if err := rows.Scan(&m.LeadID, &m.Name, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
