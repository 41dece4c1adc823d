package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CronJob holds the schema definition for the CronJob entity.
// One CronJob is the runtime control block for exactly one non-terminal
// Release; it encodes stage progression, pause semantics, and the
// schedule of upcoming regression slots.
type CronJob struct {
	ent.Schema
}

// Fields of the CronJob.
func (CronJob) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("cron_job_id").
			Unique().
			Immutable(),
		field.String("release_id").
			Unique().
			Immutable(),
		field.Enum("cron_status").
			Values("pending", "running", "paused", "completed").
			Default("pending"),
		field.Enum("stage1_status").
			Values("pending", "in_progress", "completed").
			Default("pending"),
		field.Enum("stage2_status").
			Values("pending", "in_progress", "completed").
			Default("pending"),
		field.Enum("stage3_status").
			Values("pending", "in_progress", "completed").
			Default("pending"),
		// cron_config carries feature toggles: kick_off_reminder,
		// project_management_ticket, test_suite, pre_regression_builds,
		// automation_builds, automation_runs, regression_stage_approval,
		// test_flight_builds, pre_release_stage_approval, ad_hoc_notification.
		field.JSON("cron_config", map[string]bool{}).
			Optional(),
		// upcoming_regressions is an ordered queue of {slot_time, per_slot_config}.
		field.JSON("upcoming_regressions", []RegressionSlot{}).
			Optional(),
		field.Bool("auto_transition_to_stage2").
			Default(true),
		field.Bool("auto_transition_to_stage3").
			Default(true),
		field.Enum("pause_type").
			Values("none", "user_requested", "task_failure", "awaiting_stage_trigger", "awaiting_manual_build").
			Default("none"),
		field.Time("cron_stopped_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// RegressionSlot is one scheduled regression-cycle slot in CronJob.UpcomingRegressions.
type RegressionSlot struct {
	SlotTime      time.Time      `json:"slot_time"`
	PerSlotConfig map[string]any `json:"per_slot_config,omitempty"`
}

// Edges of the CronJob.
func (CronJob) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("cron_job").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CronJob.
func (CronJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("cron_status"),
		index.Fields("pause_type"),
	}
}
