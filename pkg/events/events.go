// Package events publishes best-effort release/task lifecycle events over
// NATS core pub/sub — the activity-log hook spec.md's design notes reserve
// for a future consumer. Grounded on the shape the pack's
// c360studio/semspec workflow package uses for its domain events (typed
// payload structs, one subject per event kind, JSON on the wire), adapted
// to this module's plain nats.go dependency rather than semspec's own
// natsclient wrapper library, and to core NATS publish rather than
// semspec's JetStream streams — nothing here needs replay or durability,
// only a best-effort fan-out a consumer can subscribe to if one exists.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects publish uses. Each splits into "<domain>.<action>" so a
// consumer can subscribe with a wildcard over one domain without
// receiving the other (e.g. "delivr.release.>" or "delivr.task.>").
const (
	SubjectReleaseStageTransitioned = "delivr.release.stage_transitioned"
	SubjectReleasePaused            = "delivr.release.paused"
	SubjectReleaseResumed           = "delivr.release.resumed"
	SubjectReleaseArchived          = "delivr.release.archived"
	SubjectTaskStatusChanged        = "delivr.task.status_changed"
)

// ReleaseStageTransitionedEvent is published whenever a cron job's
// stage1/stage2/stage3 status advances (spec.md §4.E).
type ReleaseStageTransitionedEvent struct {
	ReleaseID string    `json:"release_id"`
	Stage     int       `json:"stage"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// ReleasePausedEvent is published whenever a release is paused, by any
// pause type (spec.md §4.D).
type ReleasePausedEvent struct {
	ReleaseID string    `json:"release_id"`
	PauseType string    `json:"pause_type"`
	At        time.Time `json:"at"`
}

// ReleaseResumedEvent is published whenever a release's pause clears.
type ReleaseResumedEvent struct {
	ReleaseID string    `json:"release_id"`
	At        time.Time `json:"at"`
}

// ReleaseArchivedEvent is published when a release is archived.
type ReleaseArchivedEvent struct {
	ReleaseID string    `json:"release_id"`
	At        time.Time `json:"at"`
}

// TaskStatusChangedEvent is published whenever a ReleaseTask's status
// changes (spec.md §4.B/§4.C/§4.G).
type TaskStatusChangedEvent struct {
	ReleaseID string    `json:"release_id"`
	TaskID    string    `json:"task_id"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// Publisher fans release/task transitions out over NATS. A nil *Publisher
// (or one built over a connection that later drops) is a safe no-op —
// every Publish call swallows its own error and logs a warning rather
// than propagating it, since no orchestration semantics depend on an
// event actually being delivered.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials url and returns a Publisher. Callers that don't need
// event fan-out can pass a nil *Publisher anywhere one is accepted.
func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("delivr"))
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(subject string, payload any) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("events: marshal failed", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Warn("events: publish failed", "subject", subject, "error", err)
	}
}

// PublishStageTransition publishes a ReleaseStageTransitionedEvent.
func (p *Publisher) PublishStageTransition(_ context.Context, releaseID string, stage int, status string, at time.Time) {
	p.publish(SubjectReleaseStageTransitioned, ReleaseStageTransitionedEvent{
		ReleaseID: releaseID, Stage: stage, Status: status, At: at,
	})
}

// PublishReleasePaused publishes a ReleasePausedEvent.
func (p *Publisher) PublishReleasePaused(_ context.Context, releaseID, pauseType string, at time.Time) {
	p.publish(SubjectReleasePaused, ReleasePausedEvent{
		ReleaseID: releaseID, PauseType: pauseType, At: at,
	})
}

// PublishReleaseResumed publishes a ReleaseResumedEvent.
func (p *Publisher) PublishReleaseResumed(_ context.Context, releaseID string, at time.Time) {
	p.publish(SubjectReleaseResumed, ReleaseResumedEvent{ReleaseID: releaseID, At: at})
}

// PublishReleaseArchived publishes a ReleaseArchivedEvent.
func (p *Publisher) PublishReleaseArchived(_ context.Context, releaseID string, at time.Time) {
	p.publish(SubjectReleaseArchived, ReleaseArchivedEvent{ReleaseID: releaseID, At: at})
}

// PublishTaskStatusChanged publishes a TaskStatusChangedEvent.
func (p *Publisher) PublishTaskStatusChanged(_ context.Context, releaseID, taskID, taskType, status string, at time.Time) {
	p.publish(SubjectTaskStatusChanged, TaskStatusChangedEvent{
		ReleaseID: releaseID, TaskID: taskID, TaskType: taskType, Status: status, At: at,
	})
}
