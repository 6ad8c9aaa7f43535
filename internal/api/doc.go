// Package api exposes the session registry, login throttle and cleanup
// scheduler over HTTP.
//
// Clients log in with a credential token at POST /auth/login and receive a
// session id in the X-Session-ID header. They keep it alive with
// POST /session/ping and report visibility changes with /session/inactive
// and /session/close. Logout, session listing and the /admin routes require
// a bearer token; admin routes additionally require the admin role.
//
// Responses use a {"data": ...} or {"error": {"code", "message", "meta"}}
// envelope.
package api
