// Package fingerprint derives a deterministic device key from the pair
// (User-Agent, client IP).
//
// The key groups sessions and failed login attempts by device. It is not an
// identity and not a secret: two browsers with the same user agent behind the
// same NAT share a fingerprint, which the session registry accepts as an
// approximation.
//
// FromInputs is the pure primitive used by the session registry and the login
// throttle. Generate adapts it to an *http.Request using the clientip package,
// and Middleware stores the result in the request context.
//
//	fp := fingerprint.FromInputs(r.UserAgent(), clientip.FromRequest(r))
//
// The output is the first 16 bytes of a SHA-256 digest, hex encoded
// (32 characters). Cryptographic strength is incidental; only determinism and a
// low collision rate matter.
package fingerprint
