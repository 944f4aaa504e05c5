package geostore

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStore implements Store on a Redis geo index (GEOADD/GEOSEARCH) with
// hash tables for scalar metadata.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "geostore: redis ping")
	}
	return &RedisStore{client: client}, nil
}

// Close implements Store.
func (s *RedisStore) Close() error { return s.client.Close() }

// SetPosition implements Store.
func (s *RedisStore) SetPosition(ctx context.Context, ns Namespace, id string, coords Coordinates) error {
	err := s.client.GeoAdd(ctx, string(ns), &redis.GeoLocation{
		Name:      id,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}).Err()
	return eris.Wrap(err, "geostore: geoadd")
}

// GetPosition implements Store.
func (s *RedisStore) GetPosition(ctx context.Context, ns Namespace, id string) (*Coordinates, error) {
	positions, err := s.client.GeoPos(ctx, string(ns), id).Result()
	if err != nil {
		return nil, eris.Wrap(err, "geostore: geopos")
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &Coordinates{
		Latitude:  positions[0].Latitude,
		Longitude: positions[0].Longitude,
	}, nil
}

// searchQuery converts bounds to a go-redis query. Bounds are normalized to
// kilometers so reported distances are km regardless of the caller's unit.
func searchQuery(origin Coordinates, bounds SearchBy) *redis.GeoSearchQuery {
	q := &redis.GeoSearchQuery{
		Longitude: origin.Longitude,
		Latitude:  origin.Latitude,
		Sort:      "ASC",
	}
	if bounds.IsBox() {
		q.BoxHeight = toKM(bounds.Height, bounds.Unit)
		q.BoxWidth = toKM(bounds.Width, bounds.Unit)
		q.BoxUnit = "km"
	} else {
		q.Radius = toKM(bounds.Radius, bounds.Unit)
		q.RadiusUnit = "km"
	}
	return q
}

// Search implements Store.
func (s *RedisStore) Search(ctx context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]string, error) {
	ids, err := s.client.GeoSearch(ctx, string(ns), searchQuery(origin, bounds)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "geostore: geosearch")
	}
	return ids, nil
}

// SearchWithDistances implements Store.
func (s *RedisStore) SearchWithDistances(ctx context.Context, ns Namespace, origin Coordinates, bounds SearchBy) ([]Neighbor, error) {
	locations, err := s.client.GeoSearchLocation(ctx, string(ns), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: *searchQuery(origin, bounds),
		WithDist:       true,
	}).Result()
	if err != nil {
		return nil, eris.Wrap(err, "geostore: geosearch withdist")
	}
	neighbors := make([]Neighbor, 0, len(locations))
	for _, loc := range locations {
		neighbors = append(neighbors, Neighbor{ID: loc.Name, DistanceKM: loc.Dist})
	}
	return neighbors, nil
}

// Count implements Store. Geo indexes are sorted sets underneath, so ZCARD
// counts members.
func (s *RedisStore) Count(ctx context.Context, ns Namespace) (int64, error) {
	n, err := s.client.ZCard(ctx, string(ns)).Result()
	if err != nil {
		return 0, eris.Wrap(err, "geostore: zcard")
	}
	return n, nil
}

// RemovePosition implements Store.
func (s *RedisStore) RemovePosition(ctx context.Context, ns Namespace, id string) error {
	err := s.client.ZRem(ctx, string(ns), id).Err()
	return eris.Wrap(err, "geostore: zrem")
}

// SetField implements Store.
func (s *RedisStore) SetField(ctx context.Context, table, key, value string) error {
	err := s.client.HSet(ctx, table, key, value).Err()
	return eris.Wrap(err, "geostore: hset")
}

// GetField implements Store.
func (s *RedisStore) GetField(ctx context.Context, table, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, table, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "geostore: hget")
	}
	return value, true, nil
}

// DeleteField implements Store.
func (s *RedisStore) DeleteField(ctx context.Context, table, key string) error {
	err := s.client.HDel(ctx, table, key).Err()
	return eris.Wrap(err, "geostore: hdel")
}
