package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrphanSweep removes association rows whose parents were deleted.
	TaskOrphanSweep = "associations:orphan_sweep"
)

// OrphanSweepPayload parameterizes an orphan sweep run.
type OrphanSweepPayload struct {
	DryRun bool `json:"dryRun"`
}

// NewOrphanSweepTask constructs an Asynq task.
func NewOrphanSweepTask(payload OrphanSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanSweep, data), nil
}

// HandleOrphanSweep builds the task handler around a Sweeper.
func HandleOrphanSweep(sweeper *Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OrphanSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		_, err := sweeper.Sweep(ctx, payload.DryRun)
		return err
	}
}
