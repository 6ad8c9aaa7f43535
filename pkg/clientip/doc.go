// Package clientip extracts the originating client's IP address from an
// *http.Request when the service runs behind one or more reverse proxies.
//
// The address is one of the two fingerprint inputs used by the session
// registry and the login throttle, so the result is always normalised:
// IPv4-mapped IPv6 addresses are unmapped and zones are stripped.
//
// Headers are examined in DefaultHeaders order until a valid address is
// found, then RemoteAddr is used:
//
//  1. CF-Connecting-IP
//  2. DO-Connecting-IP
//  3. X-Forwarded-For (first valid entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// These headers are client controlled unless a proxy overwrites them, so GetIP
// is only safe behind one. Middleware(nil) and FromHeaders() with no arguments
// trust nothing but the TCP peer address.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Use(clientip.Middleware(clientip.FromHeaders("X-Real-IP")))
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		ip := clientip.FromRequest(r)
//		_ = ip
//	})
//
// GetIP never returns an error. If no valid address is found an empty
// string is returned; downstream code treats it as a distinct value.
package clientip
