package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

// Size is the length of a fingerprint string.
const Size = 32

// FromInputs derives a device fingerprint from a user agent and a source IP.
// Each input is length-prefixed before hashing so that moving a separator
// between the two values can never produce the same key. Empty inputs are
// valid and hash like any other value.
func FromInputs(userAgent, ipAddress string) string {
	h := sha256.New()
	writeField(h, userAgent)
	writeField(h, ipAddress)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:Size/2])
}

func writeField(h io.Writer, v string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(v)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(v))
}

// Generate computes the fingerprint of a request from its User-Agent header
// and the client IP.
func Generate(r *http.Request) string {
	return FromInputs(r.UserAgent(), clientip.FromRequest(r))
}

type fingerprintContextKey struct{}

// SetFingerprintToContext stores fp in ctx.
func SetFingerprintToContext(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, fingerprintContextKey{}, fingerprint)
}

// GetFingerprintFromContext returns the fingerprint stored by Middleware, or "".
func GetFingerprintFromContext(ctx context.Context) string {
	fingerprint, _ := ctx.Value(fingerprintContextKey{}).(string)
	return fingerprint
}

// Middleware computes the request fingerprint once and stores it in context.
// It must run after clientip.Middleware so the configured resolver applies.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetFingerprintToContext(r.Context(), Generate(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
