// Package storage persists application templates.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/logging"
)

// Record is one stored template.
type Record struct {
	// ID identifies the template inside its owner's namespace.
	ID string `yaml:"id"`
	// Name is the display name.
	Name string `yaml:"name,omitempty"`
	// Template is the raw template text.
	Template string `yaml:"template"`
	// Modified is the time of the last Put.
	Modified time.Time `yaml:"modified"`
}

// Store manages stored templates.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, rec Record) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

const fileExt = ".yaml"

// FileStore keeps one YAML file per template under dir.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at root. A non-empty owner gets its own subdirectory.
// A nil logger discards log records.
func NewFileStore(root, owner string, logger *slog.Logger) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("store directory is empty")
	}
	dir := root
	if owner != "" {
		if err := ValidateID(owner); err != nil {
			return nil, fmt.Errorf("owner: %w", err)
		}
		dir = filepath.Join(root, owner)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the directory holding template files.
func (s *FileStore) Dir() string {
	return s.dir
}

// ValidateID checks that id can be used as a file name.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id %q: use letters, digits, '.', '_' and '-'", id)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// Get reads the template stored under id.
func (s *FileStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return Record{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Record{}, fmt.Errorf("read template %q: %w", id, err)
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode template %q: %w", id, err)
	}
	rec.ID = id
	return rec, nil
}

// Put writes rec atomically and returns it with Modified set.
func (s *FileStore) Put(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := ValidateID(rec.ID); err != nil {
		return Record{}, err
	}
	rec.Modified = s.now().UTC()
	data, err := yaml.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode template %q: %w", rec.ID, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Record{}, fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+rec.ID+"-*.tmp")
	if err != nil {
		return Record{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Record{}, fmt.Errorf("write template %q: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return Record{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.ID)); err != nil {
		return Record{}, fmt.Errorf("store template %q: %w", rec.ID, err)
	}
	s.logger.Debug("template stored", "id", rec.ID, "dir", s.dir)
	return rec, nil
}

// List returns stored templates ordered by id. A missing store directory is empty.
func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list store directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if ValidateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// Delete removes the template stored under id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("delete template %q: %w", id, err)
	}
	s.logger.Debug("template deleted", "id", id)
	return nil
}
