package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leadcrm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists import reports. Reports are written once and read
// only for the failure-file download.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) SaveReport(ctx context.Context, report Report) error {
	headersJSON, err := json.Marshal(report.Headers)
	if err != nil {
		return fmt.Errorf("encode import headers: %w", err)
	}
	successesJSON, err := json.Marshal(report.Successes)
	if err != nil {
		return fmt.Errorf("encode import successes: %w", err)
	}
	failuresJSON, err := json.Marshal(report.Failures)
	if err != nil {
		return fmt.Errorf("encode import failures: %w", err)
	}
	notProcessedJSON, err := json.Marshal(report.NotProcessed)
	if err != nil {
		return fmt.Errorf("encode import skip list: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_imports (id, actor_id, file_name, total_rows, headers, successes, failures, not_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, report.ID, report.ActorID, report.FileName, report.TotalRows, headersJSON, successesJSON, failuresJSON, notProcessedJSON, report.CreatedAt)
	return err
}

func (r *Repository) GetReport(ctx context.Context, id uuid.UUID) (Report, error) {
	var (
		report           Report
		headersJSON      []byte
		successesJSON    []byte
		failuresJSON     []byte
		notProcessedJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, actor_id, file_name, total_rows, headers, successes, failures, not_processed, created_at
		FROM lead_imports
		WHERE id = $1
	`, id).Scan(&report.ID, &report.ActorID, &report.FileName, &report.TotalRows, &headersJSON, &successesJSON, &failuresJSON, &notProcessedJSON, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, apperr.NotFound("import " + id.String() + " not found")
		}
		return Report{}, err
	}

	if err := json.Unmarshal(headersJSON, &report.Headers); err != nil {
		return Report{}, fmt.Errorf("decode import headers: %w", err)
	}
	if err := json.Unmarshal(successesJSON, &report.Successes); err != nil {
		return Report{}, fmt.Errorf("decode import successes: %w", err)
	}
	if err := json.Unmarshal(failuresJSON, &report.Failures); err != nil {
		return Report{}, fmt.Errorf("decode import failures: %w", err)
	}
	if err := json.Unmarshal(notProcessedJSON, &report.NotProcessed); err != nil {
		return Report{}, fmt.Errorf("decode import skip list: %w", err)
	}
	return report, nil
}
