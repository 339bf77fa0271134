package refdata

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads reference rows from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, COALESCE(default_language, ''), is_active
		FROM lead_sources
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Source, 0)
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.DefaultLanguage, &s.Active); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *Repository) ListCentres(ctx context.Context) ([]Centre, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM centres ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Centre, 0)
	for rows.Next() {
		var c Centre
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM languages ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Language, 0)
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *Repository) listNames(ctx context.Context, table string) ([]string, error) {
	// table is a compile-time constant at every call site, never user input.
	rows, err := r.pool.Query(ctx, `SELECT name FROM `+table+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

func (r *Repository) ListProjectTypes(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "project_types")
}

func (r *Repository) ListHouseTypes(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "house_types")
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, role, COALESCE(centre, ''), COALESCE(languages, '{}'), COALESCE(pool, 'direct'), is_active
		FROM users
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Centre, &u.Languages, &u.Pool, &u.Active); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
