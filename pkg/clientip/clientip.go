package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders lists proxy headers consulted by GetIP, highest priority first.
// X-Forwarded-For is handled as a comma separated list; the first valid entry wins.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Resolver extracts the originating client address from a request.
type Resolver func(r *http.Request) string

// GetIP returns the client's IP address using DefaultHeaders, falling back to
// RemoteAddr. An empty string is returned when nothing parses. The headers are
// client controlled unless a proxy overwrites them, so use it only behind one.
func GetIP(r *http.Request) string {
	return resolve(r, DefaultHeaders)
}

// FromHeaders builds a Resolver that trusts only the given headers.
// With no headers it trusts nothing but the TCP peer address, which is the
// right choice when the service is exposed without a reverse proxy.
func FromHeaders(headers ...string) Resolver {
	trusted := make([]string, len(headers))
	copy(trusted, headers)
	return func(r *http.Request) string {
		return resolve(r, trusted)
	}
}

func resolve(r *http.Request, headers []string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize validates an address and returns its canonical form.
// IPv4-mapped IPv6 addresses collapse to plain IPv4 so the same client always
// yields the same string.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type clientIPContextKey struct{}

// SetIPToContext stores client IP in context.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext retrieves client IP from context.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// Middleware resolves the client IP once per request and stores it in context.
// A nil resolver trusts only the TCP peer address; proxy headers are honored
// only when a resolver built with FromHeaders names them.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	if resolver == nil {
		resolver = FromHeaders()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetIPToContext(r.Context(), resolver(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromRequest returns the IP stored by Middleware, falling back to the TCP
// peer address when the middleware was not installed.
func FromRequest(r *http.Request) string {
	if ip := GetIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return resolve(r, nil)
}
