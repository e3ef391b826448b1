package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	redisutil "go-docverify-gateway/redis"

	"github.com/redis/go-redis/v9"
)

const DefaultReportTTL time.Duration = 24 * time.Hour

var ErrReportNotFound = errors.New("report not found")

// ReportStorage keeps summaries so the browser can fetch them again by id.
// Implementations must be safe for concurrent use.
type ReportStorage interface {
	// StoreReport saves report under id, replacing any earlier value.
	StoreReport(ctx context.Context, id string, report []byte) error

	// RetrieveReport returns ErrReportNotFound when id is unknown or expired.
	RetrieveReport(ctx context.Context, id string) ([]byte, error)
}

type storedReport struct {
	data      []byte
	expiresAt time.Time
}

type InMemoryReportStorage struct {
	reports map[string]storedReport
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.Mutex
}

func NewInMemoryReportStorage(ttl time.Duration) *InMemoryReportStorage {
	return &InMemoryReportStorage{
		reports: make(map[string]storedReport),
		ttl:     ttl,
		now:     time.Now,
	}
}

type RedisReportStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisReportStorage(client *redis.Client, namespace string, ttl time.Duration) *RedisReportStorage {
	return &RedisReportStorage{client: client, namespace: namespace, ttl: ttl}
}

// ------------------------------------------------------------------------------

func (s *RedisReportStorage) StoreReport(ctx context.Context, id string, report []byte) error {
	return s.client.Set(ctx, redisutil.Key(s.namespace, "report", id), report, s.ttl).Err()
}

func (s *RedisReportStorage) RetrieveReport(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisutil.Key(s.namespace, "report", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return data, err
}

// ------------------------------------------------------------------------------

func (s *InMemoryReportStorage) StoreReport(_ context.Context, id string, report []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.evictExpired()
	s.reports[id] = storedReport{data: report, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemoryReportStorage) RetrieveReport(_ context.Context, id string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	report, ok := s.reports[id]
	if !ok || !s.now().Before(report.expiresAt) {
		delete(s.reports, id)
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return report.data, nil
}

// evictExpired must be called with the mutex held.
func (s *InMemoryReportStorage) evictExpired() {
	now := s.now()
	for id, report := range s.reports {
		if !now.Before(report.expiresAt) {
			delete(s.reports, id)
		}
	}
}
