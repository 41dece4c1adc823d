package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RegressionCycle holds the schema definition for the RegressionCycle entity.
// A scheduled iteration of regression work within Stage 2.
type RegressionCycle struct {
	ent.Schema
}

// Fields of the RegressionCycle.
func (RegressionCycle) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("cycle_id").
			Unique().
			Immutable(),
		field.String("release_id").
			Immutable(),
		field.Int("cycle_tag").
			Comment("monotonically increasing per release"),
		field.Enum("status").
			Values("not_started", "in_progress", "done").
			Default("not_started"),
		field.Bool("is_latest").
			Default(true),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
	}
}

// Edges of the RegressionCycle.
func (RegressionCycle) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("cycles").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
		edge.To("tasks", ReleaseTask.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the RegressionCycle.
func (RegressionCycle) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("release_id", "cycle_tag").
			Unique(),
		index.Fields("release_id", "is_latest"),
	}
}
