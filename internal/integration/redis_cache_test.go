//go:build integration

package integration_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/delivery-radius-service/internal/adapter/rediscache"
	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/drivetime"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
)

type countingProvider struct {
	constantProvider
	calls atomic.Int32
}

func (p *countingProvider) DriveTimes(ctx context.Context, pairs []domain.CoordinatePair) (domain.DriveTimeResponse, error) {
	p.calls.Add(1)
	return p.constantProvider.DriveTimes(ctx, pairs)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := rediscache.Open(startRedis(ctx, t))
	require.NoError(t, err)
	c := rediscache.NewCache(client, time.Hour)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	require.NoError(t, c.PutMany(ctx, map[string]domain.DriveTime{
		"a": {Minutes: 18.4, Reachable: true},
		"b": domain.Unreachable,
	}))

	got, err := c.GetMany(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.DriveTime{"a": {Minutes: 18.4, Reachable: true}}, got)

	ttl, err := client.TTL(ctx, "drivetime:a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestRedisCache_SharedAcrossOrchestrators(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := rediscache.Open(startRedis(ctx, t))
	require.NoError(t, err)
	shared := rediscache.NewCache(client, time.Hour)
	defer shared.Close()

	edge := domain.CandidateResult{
		Source:         domain.ReferencePoint{Code: "98001", Lat: 47.3034, Lng: -122.2637},
		Candidate:      domain.ReferencePoint{Code: "98354", Lat: 47.2515, Lng: -122.3160},
		DistanceMiles:  4.34,
		Classification: domain.OutDriveTime,
	}

	provider := &countingProvider{constantProvider: constantProvider{minutes: 11}}
	opts := drivetime.Options{Shared: shared}

	// Two sessions with separate session caches.
	first := drivetime.NewOrchestrator(provider, drivetime.NewCache(), clockwork.NewRealClock(), opts,
		discardLogger(), observability.NewMetricsForTesting())
	second := drivetime.NewOrchestrator(provider, drivetime.NewCache(), clockwork.NewRealClock(), opts,
		discardLogger(), observability.NewMetricsForTesting())

	r1 := first.Resolve(ctx, []domain.CandidateResult{edge}, nil)
	r2 := second.Resolve(ctx, []domain.CandidateResult{edge}, nil)

	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, r1.DriveTimes, r2.DriveTimes)
	assert.Equal(t, 1, r2.CacheHits)
}
