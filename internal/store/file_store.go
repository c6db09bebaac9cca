package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dkovac/wagate/internal/domain"
)

const checkpointExt = ".json"

// FileStore keeps one JSON checkpoint file per session under a
// directory. Writes go through a temp file and rename so a crash never
// leaves a torn checkpoint behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the checkpoint directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("sessions directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the checkpoint directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, sanitizeName(name)+checkpointExt)
}

// sanitizeName keeps session names usable as file names. Path
// separators and parent references must not escape the directory.
func sanitizeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(name)
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, rec domain.SessionRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return errors.New("session name is required")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dst := s.path(rec.Name)
	tmp, err := os.CreateTemp(s.dir, "."+sanitizeName(rec.Name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", rec.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint %s: %w", rec.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint %s: %w", rec.Name, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint %s: %w", rec.Name, err)
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, name string) (domain.SessionRecord, bool, error) {
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SessionRecord{}, false, nil
		}
		return domain.SessionRecord{}, false, err
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("checkpoint %s: %w", name, err)
	}
	return rec, true, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListAll implements Store.
func (s *FileStore) ListAll(_ context.Context) ([]domain.SessionRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var recs []domain.SessionRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), checkpointExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var rec domain.SessionRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			// A corrupt checkpoint should not block recovery of the rest.
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}

var _ Store = (*FileStore)(nil)
