package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

func newRequest(headers map[string]string, remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	r.RemoteAddr = remoteAddr
	return r
}

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name: "cloudflare header wins",
			headers: map[string]string{
				"CF-Connecting-IP": "203.0.113.195",
				"X-Forwarded-For":  "192.168.1.1",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "203.0.113.195",
		},
		{
			name:       "first valid forwarded entry",
			headers:    map[string]string{"X-Forwarded-For": "garbage, 198.51.100.178, 203.0.113.195"},
			remoteAddr: "10.0.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name:       "invalid headers fall through to remote addr",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			remoteAddr: "10.0.0.1:54321",
			expected:   "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "10.0.0.2",
			expected:   "10.0.0.2",
		},
		{
			name:       "ipv4 mapped ipv6 is unmapped",
			remoteAddr: "[::ffff:192.0.2.1]:443",
			expected:   "192.0.2.1",
		},
		{
			name:       "ipv6 zone is stripped",
			headers:    map[string]string{"X-Real-IP": "fe80::1%eth0"},
			remoteAddr: "10.0.0.1:1",
			expected:   "fe80::1",
		},
		{
			name:       "nothing valid",
			remoteAddr: "unknown",
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, clientip.GetIP(newRequest(tt.headers, tt.remoteAddr)))
		})
	}
}

func TestFromHeaders(t *testing.T) {
	t.Parallel()

	r := newRequest(map[string]string{
		"X-Forwarded-For": "203.0.113.7",
		"X-Real-IP":       "198.51.100.9",
	}, "10.0.0.1:5000")

	assert.Equal(t, "10.0.0.1", clientip.FromHeaders()(r), "no trusted headers uses the peer address")
	assert.Equal(t, "198.51.100.9", clientip.FromHeaders("X-Real-IP")(r))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	spoofed := map[string]string{"X-Real-IP": "192.0.2.10", "X-Forwarded-For": "192.0.2.11"}

	t.Run("default trusts only the peer", func(t *testing.T) {
		t.Parallel()
		var got string
		h := clientip.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = clientip.GetIPFromContext(r.Context())
			assert.Equal(t, got, clientip.FromRequest(r))
		}))

		h.ServeHTTP(httptest.NewRecorder(), newRequest(spoofed, "10.0.0.1:1"))
		assert.Equal(t, "10.0.0.1", got)
	})

	t.Run("configured header is honored", func(t *testing.T) {
		t.Parallel()
		var got string
		h := clientip.Middleware(clientip.FromHeaders("X-Real-IP"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = clientip.FromRequest(r)
		}))

		h.ServeHTTP(httptest.NewRecorder(), newRequest(spoofed, "10.0.0.1:1"))
		assert.Equal(t, "192.0.2.10", got)
	})
}

func TestFromRequest_WithoutMiddleware(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.1.2.3", clientip.FromRequest(newRequest(nil, "10.1.2.3:80")))
	assert.Equal(t, "10.1.2.3", clientip.FromRequest(newRequest(map[string]string{"X-Forwarded-For": "203.0.113.1"}, "10.1.2.3:80")))
}
