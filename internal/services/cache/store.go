package cache

import (
	"context"
	"errors"
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/database"

	"gorm.io/gorm"
)

// expirable is satisfied by every entry type that embeds CacheEntryMeta.
type expirable interface {
	Expired(now time.Time) bool
}

// store wraps one cache table with the lifecycle rules every layer shares:
// lazy expiry on read, hit bookkeeping on accepted hits, and indexed expiry
// sweeps on cleanup.
type store[E any] struct {
	db *database.DB
}

// get returns the first row matching the condition, treating expired rows as
// absent. Expiry is decided at read time; the physical row stays until a
// cleanup sweep removes it.
func (s *store[E]) get(ctx context.Context, query string, args ...any) (*E, bool, error) {
	var entry E
	err := s.db.WithContext(ctx).Where(query, args...).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, models.NewStoreError("cache lookup", err)
	}
	if exp, ok := any(&entry).(expirable); ok && exp.Expired(time.Now()) {
		return nil, false, nil
	}
	return &entry, true, nil
}

// put inserts a fresh entry.
func (s *store[E]) put(ctx context.Context, entry *E) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewStoreError("cache write", err)
	}
	return nil
}

// touch bumps hit bookkeeping on the rows matching the condition. Uses a SQL
// expression for the counter so concurrent hits never lose increments.
func (s *store[E]) touch(ctx context.Context, now time.Time, query string, args ...any) error {
	err := s.db.WithContext(ctx).
		Model(new(E)).
		Where(query, args...).
		Updates(map[string]any{
			"hit_count":     gorm.Expr("hit_count + 1"),
			"last_accessed": now,
		}).Error
	if err != nil {
		return models.NewStoreError("cache touch", err)
	}
	return nil
}

// deleteExpired removes every row whose TTL elapsed before now and reports
// how many went away. Unexpired rows are untouched.
func (s *store[E]) deleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(new(E))
	if res.Error != nil {
		return 0, models.NewStoreError("cache cleanup", res.Error)
	}
	return res.RowsAffected, nil
}
