package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ReleaseTask holds the schema definition for the ReleaseTask entity.
// One unit of work within a stage (and, for Stage 2, within a regression
// cycle), bound to a concrete provider operation by the Task Executor.
type ReleaseTask struct {
	ent.Schema
}

// Fields of the ReleaseTask.
func (ReleaseTask) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("task_id").
			Unique().
			Immutable(),
		field.String("release_id").
			Immutable(),
		field.String("regression_cycle_id").
			Optional().
			Nillable().
			Immutable(),
		field.Enum("task_type").
			Values(
				"pre_kick_off_reminder",
				"fork_branch",
				"create_project_management_ticket",
				"create_test_suite",
				"trigger_pre_regression_builds",
				"trigger_regression_builds",
				"create_test_suite_run",
				"regression_stage_approval",
				"create_release_tag",
				"trigger_test_flight_build",
				"create_aab_build",
				"testflight_build_verified",
				"pre_release_stage_approval",
				"platform_store_uploads",
				"ad_hoc_notification",
			).
			Immutable(),
		field.Enum("stage").
			Values("kickoff", "regression", "post_regression").
			Immutable(),
		field.Enum("task_status").
			Values("pending", "in_progress", "awaiting_callback", "awaiting_manual_build", "completed", "failed", "skipped").
			Default("pending"),
		field.String("external_id").
			Optional().
			Nillable(),
		field.JSON("external_data", map[string]any{}).
			Optional(),
		field.String("account_id").
			Optional().
			Nillable(),
		field.Int("sequence").
			Comment("total order of the task within its (release, stage, cycle) group"),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the ReleaseTask.
func (ReleaseTask) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("tasks").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
		edge.From("cycle", RegressionCycle.Type).
			Ref("tasks").
			Field("regression_cycle_id").
			Unique(),
		edge.To("builds", Build.Type),
	}
}

// Indexes of the ReleaseTask.
func (ReleaseTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("release_id", "stage"),
		index.Fields("release_id", "task_type"),
		index.Fields("regression_cycle_id"),
		index.Fields("task_status"),
	}
}
