package session

import "errors"

var (
	// ErrSessionNotFound indicates no session exists for the given id.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrMissingSessionID indicates the request carries no session id.
	ErrMissingSessionID = errors.New("session.missing_id")

	// ErrSessionExpired indicates the session was stale and has been removed.
	ErrSessionExpired = errors.New("session.expired")

	// ErrInvalidSession indicates a session could not be created from the given input.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrInvalidRecord indicates a durable record is malformed.
	ErrInvalidRecord = errors.New("session.invalid_record")

	// ErrStorageIO indicates the durable mirror could not be written or deleted.
	// The in-memory state is still authoritative when this is returned.
	ErrStorageIO = errors.New("session.storage_io")

	// ErrStorageInit indicates the durable store could not be prepared or read at startup.
	ErrStorageInit = errors.New("session.storage_init")

	// ErrInvalidConfig indicates a non-positive duration in Config.
	ErrInvalidConfig = errors.New("session.invalid_config")
)

// IsNotFound reports whether err means the session is gone, either because it
// never existed, was closed, or has just expired.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired)
}
