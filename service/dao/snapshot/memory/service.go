package memory

import (
	"context"
	"sort"

	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/dao/criteria"
	"github.com/viant/procsched/service/dao/store"
)

// Service keeps table snapshots in memory. Snapshots are copied on Save and
// Load so callers never share PCBs with the store.
type Service struct {
	store *store.MemoryStore[string, process.TableSnapshot]
}

var _ dao.Service[string, process.TableSnapshot] = (*Service)(nil)

func (s *Service) Save(ctx context.Context, snapshot *process.TableSnapshot) error {
	if snapshot == nil {
		return dao.ErrNilEntity
	}
	return s.store.Save(ctx, snapshot.Clone())
}

func (s *Service) Load(ctx context.Context, id string) (*process.TableSnapshot, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	snapshot, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot.Clone(), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.store.Delete(ctx, id)
}

// List returns snapshots ordered by TakenAt.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.TableSnapshot, error) {
	if err := criteria.Validate(parameters); err != nil {
		return nil, err
	}
	snapshots, err := s.store.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	out := make([]*process.TableSnapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, snapshot.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}

func New() *Service {
	return &Service{
		store: store.NewMemoryStore[string, process.TableSnapshot](
			func(snapshot *process.TableSnapshot) string { return snapshot.ID },
			func(snapshot *process.TableSnapshot, parameters []*dao.Parameter) bool {
				return criteria.FilterSince(snapshot.TakenAt, parameters)
			},
		),
	}
}
