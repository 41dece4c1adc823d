package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ReleaseUpload holds the schema definition for the ReleaseUpload entity.
// A staged manual build artifact provided by a user, upserted by
// (release_id, platform, stage); the last upload wins.
type ReleaseUpload struct {
	ent.Schema
}

// Fields of the ReleaseUpload.
func (ReleaseUpload) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("upload_id").
			Unique().
			Immutable(),
		field.String("tenant_id").
			Immutable(),
		field.String("release_id").
			Immutable(),
		field.Enum("platform").
			Values("android", "ios", "web").
			Immutable(),
		field.Enum("stage").
			Values("kick_off", "regression", "pre_release").
			Immutable(),
		field.String("artifact_path"),
		field.Bool("is_used").
			Default(false),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the ReleaseUpload.
func (ReleaseUpload) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("release", Release.Type).
			Ref("uploads").
			Field("release_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ReleaseUpload.
func (ReleaseUpload) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("release_id", "platform", "stage").
			Unique(),
	}
}
