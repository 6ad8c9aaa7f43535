// Package session tracks authenticated sessions per user and per device.
//
// A Registry owns the authoritative in-memory map of sessions keyed by an
// externally minted session id. Each session is also classified by a device
// fingerprint derived from its user agent and IP address; the fingerprint is a
// grouping key only, every deletion goes through the session id.
//
// Every mutation is mirrored to a Store (write-through). The map is updated
// first and store failures are logged, so a slow or failing disk degrades
// crash recovery but never live correctness. On startup the registry loads the
// store and discards records that are malformed or already stale, so a restart
// never resurrects a dead session.
//
// # Staleness
//
// A session is stale when now - LastActivity > Config.InactivityTimeout. The
// same test is used by TouchActivity, MarkInactive, AttemptTakeover,
// SweepExpired and startup recovery.
//
// # Takeover
//
// AttemptTakeover never blocks a login. It closes the user's sessions on other
// devices that are stale, idle for longer than Config.TakeoverGrace, or
// flagged inactive. Sessions sharing the requester's fingerprint are left
// alone so that reconnecting from the same browser does not evict itself.
//
// # Stores
//
//   - FileStore: one JSON file per session in a local directory (default).
//   - MemoryStore: no durability; tests and throwaway deployments.
//   - redisstore, mongostore, pgstore subpackages for shared backends.
//
// # Usage
//
//	store, err := session.NewFileStore("./data/sessions")
//	if err != nil {
//		return err // fatal: ErrStorageInit
//	}
//	reg, err := session.New(ctx, store,
//		session.WithInactivityTimeout(30*time.Minute),
//		session.WithLogger(log),
//	)
//
//	_ = reg.AttemptTakeover(ctx, userID, ua, ip)
//	_ = reg.CreateSession(ctx, userID, uuid.NewString(), ua, ip)
//
// # Errors
//
//   - ErrSessionNotFound / ErrSessionExpired: normal negative results, see IsNotFound.
//   - ErrStorageIO: durable write failed; memory state is still applied.
//   - ErrStorageInit: the store could not be prepared or read; fatal at startup.
package session
