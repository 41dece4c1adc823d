package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// ReleaseConfig holds the schema definition for the ReleaseConfig entity:
// a reusable template bound to zero or more releases, carrying per-capability
// provider config IDs and feature-toggle defaults. The Service API's
// StartCronJob merges a call's per-release toggle overrides over this
// row's feature_toggle_defaults via dario.cat/mergo before writing the
// CronJob the state machine reads.
type ReleaseConfig struct {
	ent.Schema
}

// Fields of the ReleaseConfig.
func (ReleaseConfig) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("release_config_id").
			Unique().
			Immutable(),
		field.String("tenant_id").
			Immutable(),
		field.String("name"),
		field.String("ci_config_id").
			Optional().
			Nillable(),
		field.String("test_mgmt_id").
			Optional().
			Nillable(),
		field.JSON("pm_ids_by_platform", map[string]string{}).
			Optional(),
		field.JSON("notification_channels", []string{}).
			Optional(),
		field.JSON("feature_toggle_defaults", map[string]bool{}).
			Optional(),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the ReleaseConfig.
func (ReleaseConfig) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("releases", Release.Type),
	}
}
