package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Session is a live authenticated session owned by the Registry.
// Values returned by the Registry are copies.
type Session struct {
	ID               string
	UserID           string
	Fingerprint      string
	UserAgent        string
	IPAddress        string
	IsActive         bool
	LastActivity     time.Time
	LastStatusChange time.Time
	CreatedAt        time.Time
}

// IdleFor returns how long the session has been without activity at now.
func (s Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// Record is the durable shape of a Session. Exactly one record exists per
// session id in a Store.
type Record struct {
	SessionID        string    `json:"session_id" bson:"_id"`
	UserID           string    `json:"user_id" bson:"user_id"`
	Fingerprint      string    `json:"fingerprint" bson:"fingerprint"`
	UserAgent        string    `json:"user_agent" bson:"user_agent"`
	IPAddress        string    `json:"ip_address" bson:"ip_address"`
	IsActive         bool      `json:"is_active" bson:"is_active"`
	LastActivity     time.Time `json:"last_activity" bson:"last_activity"`
	LastStatusChange time.Time `json:"last_status_change" bson:"last_status_change"`
	CreatedAt        time.Time `json:"created_at,omitzero" bson:"created_at,omitempty"`
}

// RequiredFields lists the JSON keys a persisted record must carry. A record
// missing any of them is invalid and discarded on load.
var RequiredFields = []string{
	"session_id",
	"user_id",
	"fingerprint",
	"user_agent",
	"ip_address",
	"is_active",
	"last_activity",
	"last_status_change",
}

// Validate checks the values a record needs to be usable. Field presence is
// checked separately by DecodeRecord because zero values like an empty user
// agent are legitimate.
func (r Record) Validate() error {
	switch {
	case r.SessionID == "":
		return errors.Join(ErrInvalidRecord, errors.New("missing session id"))
	case r.UserID == "":
		return errors.Join(ErrInvalidRecord, errors.New("missing user id"))
	case r.LastActivity.IsZero():
		return errors.Join(ErrInvalidRecord, errors.New("missing last activity"))
	case r.LastStatusChange.IsZero():
		return errors.Join(ErrInvalidRecord, errors.New("missing last status change"))
	}
	return nil
}

// EncodeRecord serializes a record to JSON.
func EncodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses a JSON record, rejecting documents that lack any of
// RequiredFields or carry unusable values.
func DecodeRecord(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, errors.Join(ErrInvalidRecord, err)
	}
	for _, field := range RequiredFields {
		if _, ok := raw[field]; !ok {
			return Record{}, errors.Join(ErrInvalidRecord, fmt.Errorf("missing field %q", field))
		}
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, errors.Join(ErrInvalidRecord, err)
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

func recordOf(s *Session) Record {
	return Record{
		SessionID:        s.ID,
		UserID:           s.UserID,
		Fingerprint:      s.Fingerprint,
		UserAgent:        s.UserAgent,
		IPAddress:        s.IPAddress,
		IsActive:         s.IsActive,
		LastActivity:     s.LastActivity,
		LastStatusChange: s.LastStatusChange,
		CreatedAt:        s.CreatedAt,
	}
}

func (r Record) session() *Session {
	return &Session{
		ID:               r.SessionID,
		UserID:           r.UserID,
		Fingerprint:      r.Fingerprint,
		UserAgent:        r.UserAgent,
		IPAddress:        r.IPAddress,
		IsActive:         r.IsActive,
		LastActivity:     r.LastActivity,
		LastStatusChange: r.LastStatusChange,
		CreatedAt:        r.CreatedAt,
	}
}
