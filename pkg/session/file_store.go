package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

const (
	recordExt     = ".json"
	tempPrefix    = ".tmp-"
	dirPerm       = 0o700
	recordPerm    = 0o600
	probeFileName = ".probe"
)

// FileStore persists one JSON file per session in a directory.
// File names are derived from a hash of the session id, so arbitrary ids are
// safe and two records for the same id can never coexist.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileStoreLogger sets the logger used to report discarded files.
func WithFileStoreLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFileStore creates the directory if needed and verifies it is writable.
// Any failure is wrapped in ErrStorageInit; the registry cannot run without a
// writable mirror.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.Join(ErrStorageInit, errors.New("store directory is empty"))
	}

	s := &FileStore{dir: dir, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.Join(ErrStorageInit, err)
	}

	probe := filepath.Join(dir, probeFileName)
	if err := os.WriteFile(probe, nil, recordPerm); err != nil {
		return nil, errors.Join(ErrStorageInit, err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, errors.Join(ErrStorageInit, err)
	}

	return s, nil
}

// Load reads every record file. Malformed files and leftovers from
// interrupted writes are removed.
func (s *FileStore) Load(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(s.dir, name)

		if strings.HasPrefix(name, tempPrefix) {
			_ = os.Remove(path)
			continue
		}
		if filepath.Ext(name) != recordExt {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to read session record", slog.String("file", name), logger.Error(err))
			continue
		}

		r, err := DecodeRecord(data)
		if err == nil && s.fileName(r.SessionID) != name {
			err = errors.Join(ErrInvalidRecord, errors.New("file name does not match session id"))
		}
		if err != nil {
			s.logger.DebugContext(ctx, "discarding invalid session record", slog.String("file", name), logger.Error(err))
			_ = os.Remove(path)
			continue
		}

		records = append(records, r)
	}

	return records, nil
}

// Save writes the record atomically: a temp file is written, synced and then
// renamed over the previous version.
func (s *FileStore) Save(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return ErrInvalidRecord
	}

	data, err := EncodeRecord(r)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, recordPerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, s.fileName(r.SessionID))); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete removes the record file for sessionID.
func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	err := os.Remove(filepath.Join(s.dir, s.fileName(sessionID)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) fileName(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:]) + recordExt
}
