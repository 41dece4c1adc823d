package services

import (
	"context"

	"github.com/dream-horizon/delivr/pkg/models"
)

// IntakeManualUpload delegates spec.md §4.H/§4.G's manual upload intake
// to the Build Callback Aggregator, which owns the staging, readiness
// check, and callback-firing logic end to end.
func (s *Service) IntakeManualUpload(ctx context.Context, in models.ManualUploadInput) error {
	return s.callback.IntakeManualUpload(ctx, in)
}
