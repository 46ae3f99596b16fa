package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
)

func newSnapshot(id string, takenAt time.Time) *process.TableSnapshot {
	initd := process.New(1, process.NoPID, "initd", 2, takenAt)
	initd.State = process.StateRunning
	worker := process.New(2, 1, "worker", 5, takenAt)
	worker.State = process.StateReady
	initd.AddChild(worker.PID)
	return &process.TableSnapshot{
		ID:              id,
		TakenAt:         takenAt,
		CurrentPID:      1,
		ContextSwitches: 1,
		TotalProcesses:  2,
		Processes:       []*process.PCB{initd, worker},
	}
}

func TestService_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	baseDir := filepath.Join(t.TempDir(), "snapshots")
	srv, err := New(baseDir)
	require.NoError(t, err)

	takenAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, srv.Save(ctx, newSnapshot("s1", takenAt)))
	_, err = os.Stat(filepath.Join(baseDir, "s1.json"))
	require.NoError(t, err, "snapshot is written under the base directory")

	loaded, err := srv.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.ID)
	assert.True(t, takenAt.Equal(loaded.TakenAt))
	require.Len(t, loaded.Processes, 2)
	assert.Equal(t, "worker", loaded.Lookup(2).Name)
	assert.Equal(t, []process.PID{2}, loaded.Lookup(1).Children)

	require.NoError(t, srv.Delete(ctx, "s1"))
	_, err = srv.Load(ctx, "s1")
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	assert.True(t, errors.Is(srv.Delete(ctx, "s1"), dao.ErrNotFound))
}

func TestService_InvalidInput(t *testing.T) {
	ctx := context.Background()
	srv, err := New(t.TempDir())
	require.NoError(t, err)

	assert.True(t, errors.Is(srv.Save(ctx, nil), dao.ErrNilEntity))
	assert.True(t, errors.Is(srv.Save(ctx, &process.TableSnapshot{}), dao.ErrInvalidID))
	_, err = srv.Load(ctx, "")
	assert.True(t, errors.Is(err, dao.ErrInvalidID))

	_, err = New("")
	assert.Error(t, err)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	srv, err := New(baseDir)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, srv.Save(ctx, newSnapshot("late", base.Add(time.Minute))))
	require.NoError(t, srv.Save(ctx, newSnapshot("early", base)))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "notes.txt"), []byte("ignored"), 0o644))

	snapshots, err := srv.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "early", snapshots[0].ID)
	assert.Equal(t, "late", snapshots[1].ID)

	snapshots, err = srv.List(ctx, &dao.Parameter{Name: "Since", Value: base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "late", snapshots[0].ID)
}
