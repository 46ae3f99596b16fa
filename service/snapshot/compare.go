package snapshot

import (
	"fmt"

	sgdiff "github.com/sourcegraph/go-diff/diff"
	"github.com/viant/procsched/runtime/process"
)

// Change summarises the difference between two snapshots
type Change struct {
	From    string
	To      string
	Patch   string
	Added   int
	Changed int
	Deleted int
}

// Empty returns true when both snapshots render identically
func (c *Change) Empty() bool {
	return c.Patch == ""
}

// Compare diffs two snapshots and counts the affected rows; a row whose
// columns changed counts as changed rather than deleted plus added.
func Compare(from, to *process.TableSnapshot) (*Change, error) {
	patch, err := Diff(from, to)
	if err != nil {
		return nil, err
	}
	ret := &Change{From: from.ID, To: to.ID, Patch: patch}
	if patch == "" {
		return ret, nil
	}
	fileDiffs, err := sgdiff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot diff: %w", err)
	}
	for _, fileDiff := range fileDiffs {
		stat := fileDiff.Stat()
		ret.Added += int(stat.Added)
		ret.Changed += int(stat.Changed)
		ret.Deleted += int(stat.Deleted)
	}
	return ret, nil
}
