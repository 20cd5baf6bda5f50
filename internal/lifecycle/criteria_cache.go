// internal/lifecycle/criteria_cache.go
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	CriteriaCacheKey        = "onboarding:criteria:active"
	defaultCriteriaCacheTTL = 5 * time.Minute
)

// CachedCriteria keeps the active criteria in Redis in front of another
// source. Redis faults never fail a lookup; the source is read instead.
type CachedCriteria struct {
	source CriteriaSource
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCriteria(source CriteriaSource, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedCriteria {
	if ttl <= 0 {
		ttl = defaultCriteriaCacheTTL
	}
	return &CachedCriteria{
		source: source,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "criteria-cache"}),
	}
}

func (c *CachedCriteria) ActiveCriteria(ctx context.Context) ([]models.EvaluationCriterion, error) {
	if c.redis == nil {
		return c.source.ActiveCriteria(ctx)
	}

	val, err := c.redis.Get(ctx, CriteriaCacheKey).Result()
	switch {
	case err == nil:
		var criteria []models.EvaluationCriterion
		if jsonErr := json.Unmarshal([]byte(val), &criteria); jsonErr == nil && len(criteria) > 0 {
			return criteria, nil
		}
		c.logger.Warn("discarding unreadable criteria cache entry", nil)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("criteria cache read failed", map[string]interface{}{"error": err.Error()})
	}

	criteria, err := c.source.ActiveCriteria(ctx)
	if err != nil {
		return nil, err
	}
	// An empty set is not cached so newly seeded criteria are seen at once.
	if len(criteria) == 0 {
		return criteria, nil
	}

	data, err := json.Marshal(criteria)
	if err != nil {
		return criteria, nil
	}
	if err := c.redis.Set(ctx, CriteriaCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("criteria cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return criteria, nil
}

// Invalidate drops the cached entry.
func (c *CachedCriteria) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, CriteriaCacheKey).Err()
}
