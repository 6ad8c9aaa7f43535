// Package jwt issues and verifies HS256 bearer tokens carrying a user id and
// roles, built on github.com/golang-jwt/jwt/v5.
//
//	svc, err := jwt.New(cfg)
//	token, err := svc.Issue(jwt.Identity{UserID: "u1", Roles: []string{"admin"}})
//	id, err := svc.Verify(token)
//
// Middleware puts the verified Identity in the request context; read it
// back with GetIdentity. RequireRole gates admin routes.
package jwt
