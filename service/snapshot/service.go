package snapshot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/procsched/internal/idgen"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/scheduler"
)

// Service captures, persists, renders and compares process table snapshots.
type Service struct {
	scheduler *scheduler.Scheduler
	dao       dao.Service[string, process.TableSnapshot]
}

// Take captures the current table without persisting it
func (s *Service) Take(ctx context.Context) *process.TableSnapshot {
	ret := s.scheduler.Snapshot()
	ret.ID = idgen.NewWithPrefix("snapshot")
	ret.SortByPID()
	return ret
}

// Checkpoint captures and persists the current table
func (s *Service) Checkpoint(ctx context.Context) (*process.TableSnapshot, error) {
	if s.dao == nil {
		return nil, fmt.Errorf("snapshot store was not configured")
	}
	ret := s.Take(ctx)
	if err := s.dao.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to save snapshot %s: %w", ret.ID, err)
	}
	return ret, nil
}

// Load returns a persisted snapshot
func (s *Service) Load(ctx context.Context, id string) (*process.TableSnapshot, error) {
	if s.dao == nil {
		return nil, fmt.Errorf("snapshot store was not configured")
	}
	return s.dao.Load(ctx, id)
}

// List returns persisted snapshots, optionally filtered with a "Since" parameter
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.TableSnapshot, error) {
	if s.dao == nil {
		return nil, fmt.Errorf("snapshot store was not configured")
	}
	return s.dao.List(ctx, parameters...)
}

// Render writes snapshot as a ps-like table
func Render(w io.Writer, snapshot *process.TableSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot was nil")
	}
	if _, err := fmt.Fprintf(w, "current=%d switches=%d preemptions=%d total=%d\n",
		snapshot.CurrentPID, snapshot.ContextSwitches, snapshot.Preemptions, snapshot.TotalProcesses); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tPPID\tNAME\tSTATE\tPRI\tCPU\tMEM\tEXIT\tCHILDREN")
	for _, pcb := range snapshot.Processes {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			pcb.PID, pcb.ParentPID, pcb.Name, pcb.State, pcb.Priority,
			pcb.CPUTime.Round(time.Millisecond), pcb.Memory.Total(), exitCode(pcb), children(pcb.Children))
	}
	return tw.Flush()
}

// RenderString renders snapshot to a string
func RenderString(snapshot *process.TableSnapshot) (string, error) {
	builder := &strings.Builder{}
	if err := Render(builder, snapshot); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Diff returns a unified diff between the rendered forms of two snapshots;
// identical tables produce an empty string.
func Diff(from, to *process.TableSnapshot) (string, error) {
	a, err := RenderString(from)
	if err != nil {
		return "", err
	}
	b, err := RenderString(to)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: from.ID,
		ToFile:   to.ID,
		Context:  1,
	})
}

func exitCode(pcb *process.PCB) string {
	if pcb.State != process.StateZombie {
		return "-"
	}
	return fmt.Sprintf("%d", pcb.ExitCode)
}

func children(pids []process.PID) string {
	if len(pids) == 0 {
		return "-"
	}
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = fmt.Sprintf("%d", pid)
	}
	return strings.Join(parts, ",")
}

// New creates a snapshot service; store may be nil when only Take and
// rendering are needed.
func New(sched *scheduler.Scheduler, store dao.Service[string, process.TableSnapshot]) *Service {
	return &Service{scheduler: sched, dao: store}
}
