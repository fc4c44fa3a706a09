package availability

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"venue-booking/internal/models"
)

// Conn is the slice of the Redis API the store needs. *redis.Client satisfies it.
type Conn interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store keeps each venue's bookable dates in a Redis set. Claiming a date is a
// single SREM: the removed-count decides the winner, so two renters racing for
// the same (venue, date) can never both succeed. A separate marker key records
// that the venue is known, since an empty set is indistinguishable from a
// missing one.
type Store struct {
	conn Conn
}

func NewStore(conn Conn) *Store {
	return &Store{conn: conn}
}

func venueKey(venueID string) string { return "venue:" + venueID }
func datesKey(venueID string) string { return "venue:" + venueID + ":dates" }

// Register marks the venue as known and seeds its bookable dates.
func (s *Store) Register(ctx context.Context, venueID string, dates []string) error {
	if err := s.conn.Set(ctx, venueKey(venueID), "1", 0).Err(); err != nil {
		return err
	}
	if len(dates) == 0 {
		return nil
	}
	members := make([]interface{}, len(dates))
	for i, d := range dates {
		members[i] = d
	}
	return s.conn.SAdd(ctx, datesKey(venueID), members...).Err()
}

// Claim atomically removes a date from the venue's availability set. It returns
// models.ErrDateUnavailable when the date was not in the set, which covers both
// "already claimed" and "never offered".
func (s *Store) Claim(ctx context.Context, venueID, date string) error {
	n, err := s.conn.Exists(ctx, venueKey(venueID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrVenueNotFound
	}

	removed, err := s.conn.SRem(ctx, datesKey(venueID), date).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return models.ErrDateUnavailable
	}
	return nil
}

// Release returns a previously claimed date to the venue's availability set.
func (s *Store) Release(ctx context.Context, venueID, date string) error {
	n, err := s.conn.Exists(ctx, venueKey(venueID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrVenueNotFound
	}
	return s.conn.SAdd(ctx, datesKey(venueID), date).Err()
}

// Dates lists the venue's currently bookable dates.
func (s *Store) Dates(ctx context.Context, venueID string) ([]string, error) {
	n, err := s.conn.Exists(ctx, venueKey(venueID)).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrVenueNotFound
	}
	return s.conn.SMembers(ctx, datesKey(venueID)).Result()
}

// Remove drops a venue and its availability set entirely.
func (s *Store) Remove(ctx context.Context, venueID string) error {
	return s.conn.Del(ctx, venueKey(venueID), datesKey(venueID)).Err()
}
