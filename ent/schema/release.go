package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Release holds the schema definition for the Release entity.
// A Release is the unit of work the orchestration engine drives through
// Kickoff, Regression, and Pre-Release.
type Release struct {
	ent.Schema
}

// Fields of the Release.
func (Release) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("release_id").
			Unique().
			Immutable(),
		field.String("tenant_id").
			Immutable(),
		field.String("release_branch"),
		field.String("base_branch"),
		field.Enum("type").
			Values("planned", "hotfix", "major", "minor").
			Default("planned"),
		field.Enum("status").
			Values("in_progress", "paused", "completed", "archived").
			Default("in_progress"),
		field.Time("kick_off_date"),
		field.Time("target_release_date").
			Optional().
			Nillable(),
		field.Time("release_date").
			Optional().
			Nillable(),
		field.Bool("has_manual_build_upload").
			Default(false),
		field.String("release_config_id").
			Optional().
			Nillable(),
		field.String("created_by"),
		field.String("release_pilot").
			Optional().
			Nillable(),
		field.String("last_updated_by").
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

// Edges of the Release.
func (Release) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("cron_job", CronJob.Type).
			Unique().
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("tasks", ReleaseTask.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("cycles", RegressionCycle.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("builds", Build.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("uploads", ReleaseUpload.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("platform_targets", PlatformTargetMapping.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.From("release_config", ReleaseConfig.Type).
			Ref("releases").
			Field("release_config_id").
			Unique(),
	}
}

// Indexes of the Release.
func (Release) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id"),
		index.Fields("status"),
		index.Fields("tenant_id", "status"),
	}
}
