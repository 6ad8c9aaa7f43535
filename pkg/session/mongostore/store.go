package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// DefaultCollection is used when no collection name is given.
const DefaultCollection = "sessions"

// requiredFields mirrors session.RequiredFields with the id stored as _id.
var requiredFields = func() []string {
	out := make([]string, 0, len(session.RequiredFields))
	for _, f := range session.RequiredFields {
		if f == "session_id" {
			f = "_id"
		}
		out = append(out, f)
	}
	return out
}()

// Store keeps one document per session, keyed by session id.
type Store struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ session.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report discarded documents.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store on db.collection. An empty collection name selects
// DefaultCollection.
func New(db *mongo.Database, collection string, opts ...Option) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	s := &Store{
		coll:   db.Collection(collection),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the secondary index on user_id.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("user_id_idx"),
	})
	return err
}

// Load reads every document. Documents missing a required field or failing
// validation are deleted.
func (s *Store) Load(ctx context.Context) ([]session.Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var (
		records []session.Record
		invalid []any
	)
	for cur.Next(ctx) {
		rec, err := decode(cur.Current)
		if err != nil {
			id := cur.Current.Lookup("_id")
			s.logger.DebugContext(ctx, "discarding invalid session document", slog.String("id", id.String()), logger.Error(err))
			if id.Type != bson.Type(0) {
				invalid = append(invalid, id)
			}
			continue
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if len(invalid) > 0 {
		if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: invalid}}}}); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func decode(raw bson.Raw) (session.Record, error) {
	for _, field := range requiredFields {
		if _, err := raw.LookupErr(field); err != nil {
			return session.Record{}, errors.Join(session.ErrInvalidRecord, fmt.Errorf("missing field %q", field))
		}
	}
	var rec session.Record
	if err := bson.Unmarshal(raw, &rec); err != nil {
		return session.Record{}, errors.Join(session.ErrInvalidRecord, err)
	}
	if err := rec.Validate(); err != nil {
		return session.Record{}, err
	}
	return rec, nil
}

// Save upserts the document for r.SessionID.
func (s *Store) Save(ctx context.Context, r session.Record) error {
	if r.SessionID == "" {
		return session.ErrInvalidRecord
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: r.SessionID}},
		r,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes the document for sessionID. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: sessionID}})
	return err
}
