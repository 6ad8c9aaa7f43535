package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops, so callers can pass errors without a nil check.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags records with the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// Fingerprint records a device fingerprint under "fingerprint".
func Fingerprint(fp string) slog.Attr {
	return slog.String("fingerprint", fp)
}

// Count records an integer result such as a number of removed entries.
func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}

// Reason records why an entry was removed or rejected.
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

func Duration(name string, d time.Duration) slog.Attr {
	return slog.Duration(name, d)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}
