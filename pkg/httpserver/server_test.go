package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(httpserver.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
	}()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, ln.Addr().String(), srv.Addr())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunBadAddr(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("256.0.0.1:bad"))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestServer_ShutdownBeforeServe(t *testing.T) {
	t.Parallel()

	assert.NoError(t, httpserver.New().Shutdown(context.Background()))
}

func TestOptionsPanicOnInvalidValues(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(-time.Second) })
	assert.NotPanics(t, func() { httpserver.NewFromConfig(httpserver.Config{}) })
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	serve := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec
	}

	rec := serve(httpserver.HealthCheckHandler(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())

	ok := func(context.Context) error { return nil }
	rec = serve(httpserver.HealthCheckHandler(nil, ok, ok))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY", rec.Body.String())

	failing := func(context.Context) error { return errors.New("redis down") }
	rec = serve(httpserver.HealthCheckHandler(nil, ok, failing))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_READY", rec.Body.String())
}
