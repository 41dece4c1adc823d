package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Build holds the schema definition for the Build entity.
// A CI/CD or manual build attempt tied to a task and a platform.
type Build struct {
	ent.Schema
}

// Fields of the Build.
func (Build) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("build_id").
			Unique().
			Immutable(),
		field.String("release_id").
			Immutable(),
		field.String("task_id").
			Immutable(),
		field.Enum("platform").
			Values("android", "ios", "web").
			Immutable(),
		field.Enum("build_type").
			Values("cicd", "manual").
			Immutable(),
		field.Enum("ci_run_type").
			Values("jenkins", "github_actions", "circle_ci", "gitlab_ci").
			Optional().
			Nillable().
			Comment("set only when build_type=cicd"),
		field.String("queue_location").
			Optional().
			Nillable(),
		field.String("ci_run_id").
			Optional().
			Nillable(),
		field.Enum("workflow_status").
			Values("pending", "running", "completed", "failed").
			Default("pending"),
		field.Enum("build_upload_status").
			Values("pending", "uploaded", "failed").
			Default("pending"),
		field.String("artifact_path").
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

// Edges of the Build.
func (Build) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("builds").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
		edge.From("task", ReleaseTask.Type).
			Ref("builds").
			Field("task_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Build.
func (Build) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id"),
		index.Fields("release_id", "workflow_status"),
		index.Fields("task_id", "platform").
			Unique(),
	}
}
