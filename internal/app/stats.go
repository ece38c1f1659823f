/**
 * @description
 * Statistics for the school fees dashboard: fee counts and totals per school
 * (optionally scoped to a term) and payment collection aggregates.
 *
 * Results are cached in Redis for a short TTL because the dashboard polls them
 * and the aggregate queries scan entire school partitions. Cache failures
 * degrade silently to a direct database query; stats must never take the
 * dashboard down with them.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classpoint/fees-service/internal/domain"
)

const statsKeyPrefix = "classpoint:fees:stats"

// FeeStats returns aggregate fee counts and amounts for a school, optionally
// restricted to a single term.
func (s *Service) FeeStats(ctx context.Context, schoolID uuid.UUID, termID *uuid.UUID) (*domain.FeeStats, error) {
	key := fmt.Sprintf("%s:fees:%s", statsKeyPrefix, schoolID)
	if termID != nil {
		key = fmt.Sprintf("%s:fees:%s:%s", statsKeyPrefix, schoolID, *termID)
	}

	var cached domain.FeeStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.GetFeeStats(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// PaymentStats returns aggregate payment counts and amounts for a school.
func (s *Service) PaymentStats(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentStats, error) {
	key := fmt.Sprintf("%s:payments:%s", statsKeyPrefix, schoolID)

	var cached domain.PaymentStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.GetPaymentStats(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// cacheGet loads a cached stats entry into out, reporting whether it hit.
// Any Redis error is treated as a miss.
func (s *Service) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.statsCache == nil {
		return false
	}
	raw, err := s.statsCache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("level=warn component=stats msg=\"stats cache read failed\" key=%s error=%q", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("level=warn component=stats msg=\"discarding unparsable stats cache entry\" key=%s error=%q", key, err)
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.statsCache == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := s.statsCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.statsCache.Set(ctx, key, encoded, ttl).Err(); err != nil {
		log.Printf("level=warn component=stats msg=\"stats cache write failed\" key=%s error=%q", key, err)
	}
}
