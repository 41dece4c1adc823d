package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/releasetask"
)

// ReleaseTaskRepository wraps ent queries against the ReleaseTask entity.
type ReleaseTaskRepository struct {
	client *ent.Client
}

// NewReleaseTaskRepository builds a ReleaseTaskRepository.
func NewReleaseTaskRepository(client *ent.Client) *ReleaseTaskRepository {
	return &ReleaseTaskRepository{client: client}
}

// CreateTaskInput is the input to Create.
type CreateTaskInput struct {
	ReleaseID         string
	RegressionCycleID *string
	TaskType          releasetask.TaskType
	Stage             releasetask.Stage
	Sequence          int
}

// Create inserts a pending ReleaseTask row.
func (r *ReleaseTaskRepository) Create(ctx context.Context, in CreateTaskInput) (*ent.ReleaseTask, error) {
	builder := r.client.ReleaseTask.Create().
		SetID(uuid.New().String()).
		SetReleaseID(in.ReleaseID).
		SetTaskType(in.TaskType).
		SetStage(in.Stage).
		SetSequence(in.Sequence)

	if in.RegressionCycleID != nil {
		builder.SetRegressionCycleID(*in.RegressionCycleID)
	}

	task, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: create task for release %s: %w", in.ReleaseID, err)
	}
	return task, nil
}

// FindByID loads a single ReleaseTask.
func (r *ReleaseTaskRepository) FindByID(ctx context.Context, id string) (*ent.ReleaseTask, error) {
	task, err := r.client.ReleaseTask.Query().Where(releasetask.IDEQ(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find task %s: %w", id, err)
	}
	return task, nil
}

// FindByReleaseAndStage lists a release's tasks in a stage, ordered by
// sequence only — the order the state machine dispatches Stage 1 and
// Stage 3 tasks in. Regression tasks of different cycles reuse the same
// sequence numbers and are not grouped by cycle; FindByCycle lists one
// cycle's tasks.
func (r *ReleaseTaskRepository) FindByReleaseAndStage(ctx context.Context, releaseID string, stage releasetask.Stage) ([]*ent.ReleaseTask, error) {
	tasks, err := r.client.ReleaseTask.Query().
		Where(releasetask.ReleaseIDEQ(releaseID), releasetask.StageEQ(stage)).
		Order(ent.Asc(releasetask.FieldSequence)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find tasks for release %s stage %s: %w", releaseID, stage, err)
	}
	return tasks, nil
}

// FindByRelease lists every task belonging to a release, across all
// stages, ordered by stage then sequence — the shape an operator-facing
// release detail view wants.
func (r *ReleaseTaskRepository) FindByRelease(ctx context.Context, releaseID string) ([]*ent.ReleaseTask, error) {
	tasks, err := r.client.ReleaseTask.Query().
		Where(releasetask.ReleaseIDEQ(releaseID)).
		Order(ent.Asc(releasetask.FieldStage), ent.Asc(releasetask.FieldSequence)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find tasks for release %s: %w", releaseID, err)
	}
	return tasks, nil
}

// FindByCycle lists a regression cycle's tasks in sequence order.
func (r *ReleaseTaskRepository) FindByCycle(ctx context.Context, cycleID string) ([]*ent.ReleaseTask, error) {
	tasks, err := r.client.ReleaseTask.Query().
		Where(releasetask.RegressionCycleIDEQ(cycleID)).
		Order(ent.Asc(releasetask.FieldSequence)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find tasks for cycle %s: %w", cycleID, err)
	}
	return tasks, nil
}

// FindByReleaseAndType finds the most recent task of a given type on a
// release — used by the executor's idempotence check (spec.md §4.C) to
// recover an already-created external_id before re-issuing a provider
// call.
func (r *ReleaseTaskRepository) FindByReleaseAndType(ctx context.Context, releaseID string, taskType releasetask.TaskType) (*ent.ReleaseTask, error) {
	task, err := r.client.ReleaseTask.Query().
		Where(releasetask.ReleaseIDEQ(releaseID), releasetask.TaskTypeEQ(taskType)).
		Order(ent.Desc(releasetask.FieldCreatedAt)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find task type %s for release %s: %w", taskType, releaseID, err)
	}
	return task, nil
}

// FindFailed lists a release's failed tasks, the candidate set for
// retryTask (spec.md §4.H).
func (r *ReleaseTaskRepository) FindFailed(ctx context.Context, releaseID string) ([]*ent.ReleaseTask, error) {
	tasks, err := r.client.ReleaseTask.Query().
		Where(releasetask.ReleaseIDEQ(releaseID), releasetask.TaskStatusEQ(releasetask.TaskStatusFailed)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find failed tasks for release %s: %w", releaseID, err)
	}
	return tasks, nil
}

// FindAwaitingManualBuild returns the release's task currently waiting on
// a manual artifact upload, if any — the manual upload intake flow's
// anchor point (spec.md §4.G). At most one task is ever in this state on
// a release at a time, since tasks within a stage run strictly in order.
func (r *ReleaseTaskRepository) FindAwaitingManualBuild(ctx context.Context, releaseID string) (*ent.ReleaseTask, error) {
	task, err := r.client.ReleaseTask.Query().
		Where(releasetask.ReleaseIDEQ(releaseID), releasetask.TaskStatusEQ(releasetask.TaskStatusAwaitingManualBuild)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find awaiting-manual-build task for release %s: %w", releaseID, err)
	}
	return task, nil
}

// SetStatus transitions task_status.
func (r *ReleaseTaskRepository) SetStatus(ctx context.Context, id string, status releasetask.TaskStatus) error {
	n, err := r.client.ReleaseTask.Update().
		Where(releasetask.IDEQ(id)).
		SetTaskStatus(status).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set task %s status: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExternalID records the provider-side identifier a task's operation
// created (ticket key, test suite or run ID, tag name), consulted on retry for
// idempotence.
func (r *ReleaseTaskRepository) SetExternalID(ctx context.Context, id, externalID string) error {
	n, err := r.client.ReleaseTask.Update().
		Where(releasetask.IDEQ(id)).
		SetExternalID(externalID).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set task %s external id: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExternalData merges provider response data onto a task's
// external_data JSON blob.
func (r *ReleaseTaskRepository) SetExternalData(ctx context.Context, id string, data map[string]any) error {
	n, err := r.client.ReleaseTask.Update().
		Where(releasetask.IDEQ(id)).
		SetExternalData(data).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set task %s external data: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountID stamps which account acted on a task — retryTask's
// caller or a manual-gate approver (spec.md §4.H).
func (r *ReleaseTaskRepository) SetAccountID(ctx context.Context, id, accountID string) error {
	n, err := r.client.ReleaseTask.Update().
		Where(releasetask.IDEQ(id)).
		SetAccountID(accountID).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set task %s account id: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Retry resets a failed task back to pending so the next tick re-dispatches it.
func (r *ReleaseTaskRepository) Retry(ctx context.Context, id string) error {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if task.TaskStatus != releasetask.TaskStatusFailed {
		return NewValidationError("task_status", "only failed tasks can be retried")
	}
	return r.SetStatus(ctx, id, releasetask.TaskStatusPending)
}
