package zipstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cambridge = domain.Geo{Lat: 42.3647, Lon: -71.1042}

// exerciseStore runs the behavior every CoordinateStore must share.
func exerciseStore(t *testing.T, s domain.CoordinateStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "02139")
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	require.NoError(t, s.Set(ctx, "02139", cambridge))

	g, ok, err := s.Get(ctx, "02139")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cambridge, g)

	moved := domain.Geo{Lat: 1, Lon: 2}
	require.NoError(t, s.Set(ctx, "02139", moved))
	g, _, err = s.Get(ctx, "02139")
	require.NoError(t, err)
	assert.Equal(t, moved, g, "set overwrites")

	_, ok, err = s.Get(ctx, "10001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, 1, s.Len())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "zips.db")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.db")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "02139", cambridge))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	g, ok, err := s.Get(context.Background(), "02139")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cambridge, g)
}

func TestRedisStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "")

	exerciseStore(t, s)

	assert.True(t, mr.Exists(DefaultRedisPrefix+"02139"))
	assert.Zero(t, mr.TTL(DefaultRedisPrefix+"02139"), "entries never expire")
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "test:")
	require.NoError(t, mr.Set("test:02139", "not json"))

	_, _, err := s.Get(context.Background(), "02139")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode zip")
}

func TestDialRedis(t *testing.T) {
	mr, _ := setupTestRedis(t)

	s, err := DialRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestDialRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = DialRedis(context.Background(), addr)
	require.Error(t, err)
}
