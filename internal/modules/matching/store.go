// README: Match store backed by PostgreSQL; pair uniqueness is a table constraint.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nearmatch/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const recordColumns = `id, user_a, user_b, compatibility_score, reasoning, latitude, longitude, created_at`

// FindPair looks the pair up in either order. It returns nil, nil when the
// users are not linked.
func (s *Store) FindPair(ctx context.Context, a, b types.ID) (*Record, error) {
	lo, hi := orderedPair(a, b)
	row := s.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM matches
		WHERE LEAST(user_a, user_b) = $1 AND GREATEST(user_a, user_b) = $2`,
		string(lo), string(hi),
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find pair", err)
	}
	return &r, nil
}

// CreateMatch inserts the record or returns ErrDuplicatePair when another
// writer already created one for the same unordered pair.
func (s *Store) CreateMatch(ctx context.Context, m NewMatch) (*Record, error) {
	r := Record{
		ID:        types.ID(uuid.NewString()),
		UserA:     m.UserA,
		UserB:     m.UserB,
		Score:     m.Score,
		Reasoning: m.Reasoning,
		Location:  m.Location,
		CreatedAt: time.Now().UTC(),
	}
	var lat, lng *float64
	if m.Location != nil {
		lat, lng = &m.Location.Lat, &m.Location.Lng
	}

	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO matches (
			id, user_a, user_b, compatibility_score, reasoning, latitude, longitude, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		string(r.ID), string(r.UserA), string(r.UserB), r.Score, r.Reasoning, lat, lng, r.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicatePair
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, ErrDuplicatePair
	}
	if err != nil {
		return nil, storeErr("create match", err)
	}
	return &r, nil
}

// ListForUser returns the user's matches created at or after since, newest first.
func (s *Store) ListForUser(ctx context.Context, userID types.ID, since time.Time) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM matches
		WHERE (user_a = $1 OR user_b = $1) AND created_at >= $2
		ORDER BY created_at DESC`,
		string(userID), since,
	)
	if err != nil {
		return nil, storeErr("list matches", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("scan match", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list matches", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r          Record
		id, ua, ub string
		lat, lng   *float64
	)
	if err := row.Scan(&id, &ua, &ub, &r.Score, &r.Reasoning, &lat, &lng, &r.CreatedAt); err != nil {
		return Record{}, err
	}
	r.ID, r.UserA, r.UserB = types.ID(id), types.ID(ua), types.ID(ub)
	if lat != nil && lng != nil {
		r.Location = &types.Coordinate{Lat: *lat, Lng: *lng}
	}
	return r, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreFailure, err)
}
