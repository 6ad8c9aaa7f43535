//go:build integration

package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/session/mongostore"
)

var mongoURL string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
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
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	mongoURL = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func database(t *testing.T, name string) *driver.Database {
	t.Helper()
	ctx := context.Background()
	client, err := mongo.New(ctx, mongo.Config{
		ConnectionURL:  mongoURL,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, mongo.Healthcheck(client)(ctx))
	return client.Database(name)
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
	store := mongostore.New(database(t, "roundtrip"), "")
	require.NoError(t, store.EnsureIndexes(ctx))

	want := record("a")
	require.NoError(t, store.Save(ctx, want))
	want.IsActive = false
	require.NoError(t, store.Save(ctx, want))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", loaded[0].SessionID)
	assert.False(t, loaded[0].IsActive)
	assert.True(t, want.LastActivity.Equal(loaded[0].LastActivity))

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_LoadDropsIncompleteDocuments(t *testing.T) {
	ctx := context.Background()
	db := database(t, "incomplete")
	store := mongostore.New(db, "sessions")

	require.NoError(t, store.Save(ctx, record("ok")))
	_, err := db.Collection("sessions").InsertOne(ctx, bson.D{
		{Key: "_id", Value: "partial"},
		{Key: "user_id", Value: "user-1"},
	})
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ok", loaded[0].SessionID)

	n, err := db.Collection("sessions").CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
