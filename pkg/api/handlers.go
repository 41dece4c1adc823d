package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// CreateRelease handles POST /releases.
func (s *Server) CreateRelease(c *gin.Context) {
	var req CreateReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rel, err := s.svc.CreateRelease(c.Request.Context(), repositories.CreateReleaseInput{
		TenantID:             req.TenantID,
		ReleaseBranch:        req.ReleaseBranch,
		BaseBranch:           req.BaseBranch,
		Type:                 release.Type(req.Type),
		KickOffDate:          req.KickOffDate,
		TargetReleaseDate:    req.TargetReleaseDate,
		HasManualBuildUpload: req.HasManualBuildUpload,
		ReleaseConfigID:      req.ReleaseConfigID,
		CreatedBy:            req.CreatedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// GetRelease handles GET /releases/:id.
func (s *Server) GetRelease(c *gin.Context) {
	rel, err := s.store.Releases.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// ListTasks handles GET /releases/:id/tasks.
func (s *Server) ListTasks(c *gin.Context) {
	tasks, err := s.store.Tasks.FindByRelease(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// StartCronJob handles POST /releases/:id/cron.
func (s *Server) StartCronJob(c *gin.Context) {
	var req StartCronJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := s.svc.StartCronJob(c.Request.Context(), models.StartCronJobInput{
		ReleaseID:       c.Param("id"),
		KickOffDate:     req.KickOffDate,
		TargetDate:      req.TargetDate,
		CronConfig:      req.CronConfig,
		ReleaseConfigID: req.ReleaseConfigID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// StopCronJob handles DELETE /releases/:id/cron.
func (s *Server) StopCronJob(c *gin.Context) {
	if err := s.svc.StopCronJob(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PauseRelease handles POST /releases/:id/pause.
func (s *Server) PauseRelease(c *gin.Context) {
	var req TenantScopedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.PauseRelease(c.Request.Context(), c.Param("id"), req.TenantID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResumeRelease handles POST /releases/:id/resume.
func (s *Server) ResumeRelease(c *gin.Context) {
	var req TenantScopedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.ResumeRelease(c.Request.Context(), c.Param("id"), req.TenantID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ArchiveRelease handles POST /releases/:id/archive.
func (s *Server) ArchiveRelease(c *gin.Context) {
	var req ArchiveReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.ArchiveRelease(c.Request.Context(), c.Param("id"), req.AccountID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TriggerStage2 handles POST /releases/:id/stage2.
func (s *Server) TriggerStage2(c *gin.Context) {
	var req TenantScopedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.TriggerStage2(c.Request.Context(), models.TriggerStage2Input{
		ReleaseID: c.Param("id"),
		TenantID:  req.TenantID,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TriggerStage3 handles POST /releases/:id/stage3.
func (s *Server) TriggerStage3(c *gin.Context) {
	var req TriggerStage3Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.TriggerStage3(c.Request.Context(), models.TriggerStage3Input{
		ReleaseID:    c.Param("id"),
		TenantID:     req.TenantID,
		ApprovedBy:   req.ApprovedBy,
		Comments:     req.Comments,
		ForceApprove: req.ForceApprove,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RetryTask handles POST /tasks/:id/retry.
func (s *Server) RetryTask(c *gin.Context) {
	taskID := c.Param("id")
	task, err := s.store.Tasks.FindByID(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.svc.RetryTask(c.Request.Context(), models.RetryTaskInput{
		ReleaseID: task.ReleaseID,
		TaskID:    taskID,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApproveTask handles POST /tasks/:id/approve.
func (s *Server) ApproveTask(c *gin.Context) {
	var req ApproveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.ApproveTask(c.Request.Context(), c.Param("id"), req.AccountID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IntakeManualUpload handles POST /releases/:id/uploads.
func (s *Server) IntakeManualUpload(c *gin.Context) {
	var req ManualUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.IntakeManualUpload(c.Request.Context(), models.ManualUploadInput{
		TenantID:     req.TenantID,
		ReleaseID:    c.Param("id"),
		Platform:     models.Platform(req.Platform),
		Stage:        models.UploadStage(req.Stage),
		ArtifactPath: req.ArtifactPath,
	}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
