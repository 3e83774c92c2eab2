package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// OverdueLister finds open issues past their due date.
type OverdueLister interface {
	ListOverdue(now time.Time) ([]entities.Issue, error)
}

// OverdueRecorder stores the result of a scan.
type OverdueRecorder interface {
	LogOverdueScan(asOf time.Time, issueIDs []uint) error
}

// OverdueScanTask snapshots the overdue issues at AsOf. A zero AsOf means
// the time the task runs.
type OverdueScanTask struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(issues OverdueLister, recorder OverdueRecorder, clock func() time.Time) backlite.QueueProcessor[OverdueScanTask] {
	if clock == nil {
		clock = time.Now
	}
	return func(ctx context.Context, task OverdueScanTask) error {
		if issues == nil || recorder == nil {
			return fmt.Errorf("overdue scan not configured")
		}

		asOf := task.AsOf
		if asOf.IsZero() {
			asOf = clock()
		}

		overdue, err := issues.ListOverdue(asOf)
		if err != nil {
			return fmt.Errorf("list overdue issues: %w", err)
		}

		ids := make([]uint, 0, len(overdue))
		for _, issue := range overdue {
			ids = append(ids, issue.ID)
		}

		if err := recorder.LogOverdueScan(asOf, ids); err != nil {
			return fmt.Errorf("record overdue scan: %w", err)
		}

		log.Printf("[TASK] Overdue scan as of %s: %d issue(s) overdue", asOf.UTC().Format(time.RFC3339), len(ids))
		return nil
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(issues OverdueLister, recorder OverdueRecorder, clock func() time.Time) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(issues, recorder, clock))
}
