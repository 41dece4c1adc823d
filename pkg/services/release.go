package services

import (
	"context"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// CreateRelease inserts a new Release row. Not itself one of spec.md
// §4.H's eight named operations, but startCronJob's literal signature
// (`startCronJob(releaseId)`) presumes a release already exists, and
// nothing else in this core creates one — so the façade exposes it as
// the operation a caller invokes before startCronJob.
func (s *Service) CreateRelease(ctx context.Context, in repositories.CreateReleaseInput) (*ent.Release, error) {
	if in.ReleaseBranch == "" {
		return nil, NewValidationError("release_branch", "required")
	}
	if in.BaseBranch == "" {
		return nil, NewValidationError("base_branch", "required")
	}
	if in.TenantID == "" {
		return nil, NewValidationError("tenant_id", "required")
	}
	return s.store.Releases.Create(ctx, in)
}
