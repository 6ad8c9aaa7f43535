//go:build integration

package redisstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/sessionguard/pkg/redis"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/session/redisstore"
)

var redisURL string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic(err)
	}
	redisURL = fmt.Sprintf("redis://%s:%s/0", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func connect(t *testing.T) *goredis.Client {
	t.Helper()
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  redisURL,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, redis.Healthcheck(client)(context.Background()))
	return client
}

func record(id string) session.Record {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return session.Record{
		SessionID:        id,
		UserID:           "user-1",
		Fingerprint:      "fp",
		UserAgent:        "ua",
		IPAddress:        "192.0.2.1",
		IsActive:         true,
		LastActivity:     now,
		LastStatusChange: now,
		CreatedAt:        now,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	store := redisstore.New(client, redisstore.WithPrefix("rt"))

	require.NoError(t, store.Save(ctx, record("a")))
	require.NoError(t, store.Save(ctx, record("b")))
	updated := record("a")
	updated.IsActive = false
	require.NoError(t, store.Save(ctx, updated))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	byID := map[string]session.Record{}
	for _, r := range loaded {
		byID[r.SessionID] = r
	}
	assert.False(t, byID["a"].IsActive)
	assert.True(t, byID["b"].IsActive)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestStore_LoadDropsBrokenEntries(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	store := redisstore.New(client, redisstore.WithPrefix("broken"))

	require.NoError(t, store.Save(ctx, record("ok")))
	require.NoError(t, client.Set(ctx, "broken:session:bad", `{"session_id":"bad"}`, 0).Err())
	require.NoError(t, client.SAdd(ctx, "broken:sessions", "bad", "ghost").Err())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ok", loaded[0].SessionID)

	members, err := client.SMembers(ctx, "broken:sessions").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ok"}, members)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	store := redisstore.New(client, redisstore.WithPrefix("ttl"), redisstore.WithTTL(time.Hour))

	require.NoError(t, store.Save(ctx, record("a")))
	ttl, err := client.TTL(ctx, "ttl:session:a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestStore_WithRegistry(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	store := redisstore.New(client, redisstore.WithPrefix("reg"))

	reg, err := session.New(ctx, store)
	require.NoError(t, err)
	require.NoError(t, reg.CreateSession(ctx, "user", "s1", "ua", "192.0.2.1"))

	restarted, err := session.New(ctx, redisstore.New(client, redisstore.WithPrefix("reg")))
	require.NoError(t, err)
	_, ok := restarted.Session("s1")
	assert.True(t, ok)
}
