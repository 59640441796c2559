// README: Redis GEO index for fast bounding-box candidate lookups.
package profile

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"nearmatch/internal/types"
)

const (
	geoKey      = "nearby:users:geo"
	lastSeenKey = "nearby:users:last_seen"

	kmPerDegree = 111.32
)

// Hydrator loads full user records for IDs returned by the index.
type Hydrator interface {
	GetMany(ctx context.Context, ids []types.ID) (map[types.ID]Candidate, error)
}

type GeoIndex struct {
	redis    *redis.Client
	profiles Hydrator
}

func NewGeoIndex(rdb *redis.Client, profiles Hydrator) *GeoIndex {
	return &GeoIndex{redis: rdb, profiles: profiles}
}

// Touch records the user's latest position and activity time.
func (g *GeoIndex) Touch(ctx context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error {
	pipe := g.redis.Pipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: c.Lng,
		Latitude:  c.Lat,
	})
	pipe.ZAdd(ctx, lastSeenKey, redis.Z{Score: float64(seenAt.Unix()), Member: string(id)})
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("touch geo index", err)
	}
	return nil
}

func (g *GeoIndex) FindInBox(ctx context.Context, box types.BoundingBox, exclude types.ID, activeSince time.Time) ([]Candidate, error) {
	center := box.Center()
	heightKm := (box.MaxLat - box.MinLat) * kmPerDegree
	widthKm := (box.MaxLng - box.MinLng) * kmPerDegree * math.Cos(center.Lat*math.Pi/180)

	hits, err := g.redis.GeoSearchLocation(ctx, geoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude: center.Lng,
			Latitude:  center.Lat,
			BoxWidth:  math.Max(widthKm, 0.001),
			BoxHeight: math.Max(heightKm, 0.001),
			BoxUnit:   "km",
			Sort:      "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, storeErr("geo search", err)
	}

	positions := make(map[types.ID]types.Coordinate, len(hits))
	ids := make([]types.ID, 0, len(hits))
	for _, h := range hits {
		id := types.ID(h.Name)
		pos := types.Coordinate{Lat: h.Latitude, Lng: h.Longitude}
		if id == exclude || !box.Contains(pos) {
			continue
		}
		positions[id] = pos
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []Candidate{}, nil
	}

	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	scores, err := g.redis.ZMScore(ctx, lastSeenKey, members...).Result()
	if err != nil {
		return nil, storeErr("last seen lookup", err)
	}

	active := ids[:0]
	seen := make(map[types.ID]time.Time, len(ids))
	for i, id := range ids {
		if i >= len(scores) || scores[i] <= 0 {
			continue
		}
		at := time.Unix(int64(scores[i]), 0)
		if at.Before(activeSince) {
			continue
		}
		seen[id] = at
		active = append(active, id)
	}
	if len(active) == 0 {
		return []Candidate{}, nil
	}

	records, err := g.profiles.GetMany(ctx, active)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(active))
	for _, id := range active {
		c, ok := records[id]
		if !ok {
			continue
		}
		pos := positions[id]
		c.Location = &pos
		c.LastSeenAt = seen[id]
		out = append(out, c)
	}
	return out, nil
}

// IndexedStore keeps PostgreSQL as the system of record and answers
// proximity queries from the Redis index.
type IndexedStore struct {
	*Store
	index *GeoIndex
}

func NewIndexedStore(store *Store, rdb *redis.Client) *IndexedStore {
	return &IndexedStore{Store: store, index: NewGeoIndex(rdb, store)}
}

func (s *IndexedStore) UpdateLocation(ctx context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error {
	if err := s.Store.UpdateLocation(ctx, id, c, seenAt); err != nil {
		return err
	}
	return s.index.Touch(ctx, id, c, seenAt)
}

func (s *IndexedStore) FindInBox(ctx context.Context, box types.BoundingBox, exclude types.ID, activeSince time.Time) ([]Candidate, error) {
	return s.index.FindInBox(ctx, box, exclude, activeSince)
}
