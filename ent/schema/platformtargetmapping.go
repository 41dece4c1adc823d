package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PlatformTargetMapping holds the schema definition for the
// PlatformTargetMapping entity: a per-release list of platform/target/
// version triples used to fan build tasks out across platforms and to
// derive the release's version string.
type PlatformTargetMapping struct {
	ent.Schema
}

// Fields of the PlatformTargetMapping.
func (PlatformTargetMapping) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("platform_target_id").
			Unique().
			Immutable(),
		field.String("release_id").
			Immutable(),
		field.Enum("platform").
			Values("android", "ios", "web").
			Immutable(),
		field.Enum("target").
			Values("app_store", "play_store", "web").
			Immutable(),
		field.String("version"),
	}
}

// Edges of the PlatformTargetMapping.
func (PlatformTargetMapping) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("platform_targets").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the PlatformTargetMapping.
func (PlatformTargetMapping) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("release_id", "platform").
			Unique(),
	}
}
