package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/dao/criteria"
)

// Service stores table snapshots as JSON files under a base URL
type Service struct {
	basePath string
	fs       afs.Service
	logger   *slog.Logger
	mu       sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, process.TableSnapshot] = (*Service)(nil)

// Save persists a snapshot
func (s *Service) Save(ctx context.Context, snapshot *process.TableSnapshot) error {
	if snapshot == nil {
		return dao.ErrNilEntity
	}
	if snapshot.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	filePath := s.snapshotPath(snapshot.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a snapshot
func (s *Service) Load(ctx context.Context, id string) (*process.TableSnapshot, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: snapshot %s", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	snapshot := &process.TableSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", id, err)
	}
	return snapshot, nil
}

// Delete removes a snapshot
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: snapshot %s", dao.ErrNotFound, id)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns stored snapshots ordered by TakenAt; unreadable files are
// logged and skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.TableSnapshot, error) {
	if err := criteria.Validate(parameters); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot files: %w", err)
	}

	var snapshots []*process.TableSnapshot
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read snapshot file", "url", object.URL(), "error", err)
			continue
		}
		snapshot := &process.TableSnapshot{}
		if err := json.Unmarshal(data, snapshot); err != nil {
			s.logger.Warn("failed to unmarshal snapshot", "url", object.URL(), "error", err)
			continue
		}
		if !criteria.FilterSince(snapshot.TakenAt, parameters) {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].TakenAt.Before(snapshots[j].TakenAt) })
	return snapshots, nil
}

func (s *Service) snapshotPath(id string) string {
	return url.Join(s.basePath, id+".json")
}

// Option configures the fs snapshot service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFs sets the afs service
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// New creates a file-based snapshot service rooted at baseURL
func New(baseURL string, options ...Option) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	s := &Service{fs: afs.New(), logger: slog.Default()}
	for _, opt := range options {
		opt(s)
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = url.Normalize(baseURL, file.Scheme)
	}
	ctx := context.Background()
	exists, _ := s.fs.Exists(ctx, baseURL)
	if !exists {
		if err := s.fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	s.basePath = baseURL
	return s, nil
}
