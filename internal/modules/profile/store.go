// README: Profile and location store backed by PostgreSQL.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nearmatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const candidateColumns = `id, name, details, latitude, longitude, last_seen_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+candidateColumns+` FROM users WHERE id = $1`, string(id))
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get profile", err)
	}
	return &c.Profile, nil
}

// GetMany loads the listed users; missing IDs are absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []types.ID) (map[types.ID]Candidate, error) {
	out := make(map[types.ID]Candidate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `SELECT `+candidateColumns+` FROM users WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, storeErr("get profiles", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, storeErr("scan profile", err)
		}
		out[c.UserID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("get profiles", err)
	}
	return out, nil
}

func (s *Store) UpdateLocation(ctx context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET latitude = $1, longitude = $2, last_seen_at = $3
		WHERE id = $4`,
		c.Lat, c.Lng, seenAt, string(id),
	)
	if err != nil {
		return storeErr("update location", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert creates the user or replaces their name and details blob. Location
// and device token are left untouched.
func (s *Store) Upsert(ctx context.Context, p Profile) error {
	blob, err := EncodeDetails(p.Details())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, name, details)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, details = EXCLUDED.details`,
		string(p.UserID), p.Name, blob,
	)
	if err != nil {
		return storeErr("upsert profile", err)
	}
	return nil
}

// FindInBox returns users inside box seen at or after activeSince, excluding
// the caller. Rows without a location never match the box predicate.
func (s *Store) FindInBox(ctx context.Context, box types.BoundingBox, exclude types.ID, activeSince time.Time) ([]Candidate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+candidateColumns+`
		FROM users
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		  AND last_seen_at >= $5
		  AND id <> $6`,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, activeSince, string(exclude),
	)
	if err != nil {
		return nil, storeErr("find in box", err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, storeErr("scan candidate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find in box", err)
	}
	return out, nil
}

// DeviceToken returns the push token registered for the user, or "" when the
// device never granted notification permission.
func (s *Store) DeviceToken(ctx context.Context, id types.ID) (string, error) {
	var token *string
	err := s.db.QueryRow(ctx, `SELECT device_token FROM users WHERE id = $1`, string(id)).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storeErr("device token", err)
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

func (s *Store) SetDeviceToken(ctx context.Context, id types.ID, token string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET device_token = NULLIF($1, '') WHERE id = $2`, token, string(id))
	if err != nil {
		return storeErr("set device token", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCandidate(row pgx.Row) (Candidate, error) {
	var (
		c        Candidate
		id       string
		details  []byte
		lat, lng *float64
		seenAt   *time.Time
	)
	if err := row.Scan(&id, &c.Profile.Name, &details, &lat, &lng, &seenAt); err != nil {
		return Candidate{}, err
	}
	c.UserID = types.ID(id)
	c.Profile.UserID = c.UserID
	DecodeDetails(details).apply(&c.Profile)
	if lat != nil && lng != nil {
		c.Location = &types.Coordinate{Lat: *lat, Lng: *lng}
	}
	if seenAt != nil {
		c.LastSeenAt = *seenAt
	}
	return c, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreFailure, err)
}
