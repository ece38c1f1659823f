package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

type statsRepoStub struct {
	store.Repository

	feeStats     *domain.FeeStats
	paymentStats *domain.PaymentStats

	feeStatsCalls     int
	paymentStatsCalls int
}

func (s *statsRepoStub) GetFeeStats(ctx context.Context, schoolID uuid.UUID, termID *uuid.UUID) (*domain.FeeStats, error) {
	s.feeStatsCalls++
	return s.feeStats, nil
}

func (s *statsRepoStub) GetPaymentStats(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentStats, error) {
	s.paymentStatsCalls++
	return s.paymentStats, nil
}

// unreachableRedis builds a client whose every command fails immediately, for
// exercising the degraded path without a broker.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestFeeStats_NoCacheQueriesRepoDirectly(t *testing.T) {
	repo := &statsRepoStub{feeStats: &domain.FeeStats{TotalFees: 7, ApprovedFees: 5}}
	svc := NewService(repo, nil, nil, nil, "classpoint.events", "https://pay.classpoint.test")

	stats, err := svc.FeeStats(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("expected stats to succeed without a cache, got %v", err)
	}
	if stats.TotalFees != 7 || stats.ApprovedFees != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if repo.feeStatsCalls != 1 {
		t.Fatalf("expected one direct query, got %d", repo.feeStatsCalls)
	}
}

func TestFeeStats_CacheFailureDegradesToRepo(t *testing.T) {
	repo := &statsRepoStub{feeStats: &domain.FeeStats{TotalFees: 3}}
	svc := NewService(repo, nil, nil, nil, "classpoint.events", "https://pay.classpoint.test")
	svc.SetStatsCache(unreachableRedis(), time.Minute)

	for i := 0; i < 2; i++ {
		stats, err := svc.FeeStats(context.Background(), uuid.New(), nil)
		if err != nil {
			t.Fatalf("cache failure must not surface, got %v", err)
		}
		if stats.TotalFees != 3 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	}
	if repo.feeStatsCalls != 2 {
		t.Fatalf("expected every call to fall through to the database, got %d", repo.feeStatsCalls)
	}
}

func TestPaymentStats_CacheFailureDegradesToRepo(t *testing.T) {
	repo := &statsRepoStub{paymentStats: &domain.PaymentStats{TotalPayments: 12, TotalCollected: 4_500_000}}
	svc := NewService(repo, nil, nil, nil, "classpoint.events", "https://pay.classpoint.test")
	svc.SetStatsCache(unreachableRedis(), time.Minute)

	stats, err := svc.PaymentStats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("cache failure must not surface, got %v", err)
	}
	if stats.TotalPayments != 12 || stats.TotalCollected != 4_500_000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if repo.paymentStatsCalls != 1 {
		t.Fatalf("expected the query to fall through to the database, got %d", repo.paymentStatsCalls)
	}
}
