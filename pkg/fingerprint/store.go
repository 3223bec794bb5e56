package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"infohub/pkg/logger"
)

// Key identifies one stored resource. It is the unit of mutual exclusion for
// the commit step.
type Key struct {
	Category string
	Filename string
}

func (k Key) String() string {
	return k.Category + "/" + k.Filename
}

// Record is the persisted state for one key.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists one fingerprint record per (category, filename) as a JSON
// sidecar file under <dir>/<category>/<filename>.json. Per-key writes are
// atomic (temp file + rename); serialization of read-compare-update for one
// key is the caller's responsibility.
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a fingerprint store rooted at dir.
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create fingerprint directory: %w", err)
	}

	return &Store{dir: dir, logger: log}, nil
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, key.Category, key.Filename+".json")
}

// Get returns the record for key. A missing record returns ok=false. A
// corrupt or unreadable record is treated as absent (forcing a rewrite) and
// logged as a warning, never as a fatal condition.
func (s *Store) Get(key Key) (Record, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WarnWithFields("fingerprint record unreadable, treating as absent", map[string]interface{}{
				"key":   key.String(),
				"error": err.Error(),
			})
		}
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.WarnWithFields("fingerprint record corrupt, treating as absent", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
		return Record{}, false
	}

	if rec.Fingerprint == "" {
		s.logger.WarnWithFields("fingerprint record empty, treating as absent", map[string]interface{}{
			"key": key.String(),
		})
		return Record{}, false
	}

	return rec, true
}

// Put atomically replaces the record for key with the given fingerprint.
func (s *Store) Put(key Key, fp string) error {
	rec := Record{
		Fingerprint: fp,
		UpdatedAt:   time.Now().UTC(),
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create category directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fingerprint record: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary record file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write fingerprint record: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync fingerprint record: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close fingerprint record: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace fingerprint record: %w", err)
	}

	return nil
}
