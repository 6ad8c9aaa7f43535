package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

const (
	defaultPrefix = "sessionguard"
	mgetBatch     = 500
)

// Store keeps each record as a JSON string under <prefix>:session:<id> and
// tracks ids in the set <prefix>:sessions so Load never needs SCAN.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ session.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL makes every saved record expire after d. Each save refreshes the
// expiry, so a value above the inactivity timeout only drops sessions the
// registry would consider stale anyway.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithLogger sets the logger used to report discarded records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store on top of client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + ":session:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + ":sessions"
}

// Load fetches every indexed record. Index entries whose key has expired and
// records that fail to decode are removed.
func (s *Store) Load(ctx context.Context) ([]session.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	records := make([]session.Record, 0, len(ids))
	var orphans []string

	for start := 0; start < len(ids); start += mgetBatch {
		batch := ids[start:min(start+mgetBatch, len(ids))]
		keys := make([]string, len(batch))
		for i, id := range batch {
			keys[i] = s.key(id)
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				orphans = append(orphans, batch[i])
				continue
			}
			rec, err := session.DecodeRecord([]byte(raw))
			if err == nil && rec.SessionID != batch[i] {
				err = errors.Join(session.ErrInvalidRecord, errors.New("key does not match session id"))
			}
			if err != nil {
				s.logger.DebugContext(ctx, "discarding invalid session record", logger.SessionID(batch[i]), logger.Error(err))
				orphans = append(orphans, batch[i])
				continue
			}
			records = append(records, rec)
		}
	}

	for _, id := range orphans {
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Save writes the record and its index entry in one MULTI/EXEC.
func (s *Store) Save(ctx context.Context, r session.Record) error {
	if r.SessionID == "" {
		return session.ErrInvalidRecord
	}
	data, err := session.EncodeRecord(r)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(r.SessionID), data, s.ttl)
		pipe.SAdd(ctx, s.indexKey(), r.SessionID)
		return nil
	})
	return err
}

// Delete removes the record and its index entry. Missing records are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.SRem(ctx, s.indexKey(), sessionID)
		return nil
	})
	return err
}
