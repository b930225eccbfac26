// Package storage persists a photographer's saved spots in Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/solar"
)

const maxSpotNameLen = 100

// Spot is a saved, named location.
type Spot struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Coordinate solar.Coordinate `json:"coordinate"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for spots.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// NormalizeSpotName trims name and checks it is usable as a spot key.
func NormalizeSpotName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("spot name is empty: %w", fault.ErrInvalidArgument)
	}
	if len(name) > maxSpotNameLen {
		return "", fmt.Errorf("spot name longer than %d bytes: %w", maxSpotNameLen, fault.ErrInvalidArgument)
	}
	return name, nil
}

const spotColumns = `id, name, latitude, longitude, created_at, updated_at`

func scanSpot(row pgx.Row) (*Spot, error) {
	var s Spot
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Coordinate.Latitude,
		&s.Coordinate.Longitude,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSpot saves coord under name. An existing spot keeps its ID and
// creation time.
func (r *Repository) UpsertSpot(ctx context.Context, name string, coord solar.Coordinate) (*Spot, error) {
	name, err := NormalizeSpotName(name)
	if err != nil {
		return nil, err
	}
	if err := coord.Validate(); err != nil {
		return nil, fmt.Errorf("spot %s: %w", name, err)
	}

	const q = `
		INSERT INTO spots (id, name, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET latitude   = EXCLUDED.latitude,
		    longitude  = EXCLUDED.longitude,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + spotColumns

	s, err := scanSpot(r.q.QueryRow(ctx, q, uuid.New(), name, coord.Latitude, coord.Longitude))
	if err != nil {
		return nil, fmt.Errorf("upserting spot %s: %w", name, err)
	}
	return s, nil
}

// GetSpot retrieves a spot by name.
// Returns nil, nil when the spot does not exist.
func (r *Repository) GetSpot(ctx context.Context, name string) (*Spot, error) {
	name, err := NormalizeSpotName(name)
	if err != nil {
		return nil, err
	}

	const q = `SELECT ` + spotColumns + ` FROM spots WHERE name = $1`

	s, err := scanSpot(r.q.QueryRow(ctx, q, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying spot %s: %w", name, err)
	}
	return s, nil
}

// ListSpots returns every spot ordered by name.
func (r *Repository) ListSpots(ctx context.Context) ([]*Spot, error) {
	const q = `SELECT ` + spotColumns + ` FROM spots ORDER BY name`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying spots: %w", err)
	}
	defer rows.Close()

	spots := []*Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning spot row: %w", err)
		}
		spots = append(spots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spot rows: %w", err)
	}

	return spots, nil
}

// DeleteSpot removes a spot and reports whether it existed.
func (r *Repository) DeleteSpot(ctx context.Context, name string) (bool, error) {
	name, err := NormalizeSpotName(name)
	if err != nil {
		return false, err
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM spots WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("deleting spot %s: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}
