// Package api exposes the Service API (spec.md §4.H) as a gin HTTP surface:
// one handler per lifecycle/stage/task operation, plus a handful of
// read-only endpoints over the repository layer for operators and the
// delivrctl CLI. Grounded on the teacher's pkg/api/handlers.go: a Server
// struct wrapping the process's core collaborators, one method per route,
// errors reported as `{"error": "..."}` JSON bodies.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dream-horizon/delivr/pkg/repositories"
	"github.com/dream-horizon/delivr/pkg/services"
)

// Server wires the Service façade and the repository layer into gin routes.
type Server struct {
	svc   *services.Service
	store *repositories.Store
}

// NewServer builds a Server.
func NewServer(svc *services.Service, store *repositories.Store) *Server {
	return &Server{svc: svc, store: store}
}

// Register mounts every route onto router.
func (s *Server) Register(router gin.IRouter) {
	router.POST("/releases", s.CreateRelease)
	router.GET("/releases/:id", s.GetRelease)
	router.GET("/releases/:id/tasks", s.ListTasks)

	router.POST("/releases/:id/cron", s.StartCronJob)
	router.DELETE("/releases/:id/cron", s.StopCronJob)
	router.POST("/releases/:id/pause", s.PauseRelease)
	router.POST("/releases/:id/resume", s.ResumeRelease)
	router.POST("/releases/:id/archive", s.ArchiveRelease)

	router.POST("/releases/:id/stage2", s.TriggerStage2)
	router.POST("/releases/:id/stage3", s.TriggerStage3)

	router.POST("/tasks/:id/retry", s.RetryTask)
	router.POST("/tasks/:id/approve", s.ApproveTask)

	router.POST("/releases/:id/uploads", s.IntakeManualUpload)
}

// conflictErrors are the services package's sentinel errors for requests
// that are well-formed but inapplicable to the release/task's current
// state — reported as 409 rather than 500.
var conflictErrors = []error{
	services.ErrAlreadyRunning,
	services.ErrWrongStageState,
	services.ErrCherryPickPending,
	services.ErrCyclesNotCompleted,
	services.ErrTerminalRelease,
	services.ErrNotPaused,
	services.ErrMustRetryTask,
	services.ErrMustTriggerStage,
	services.ErrMustUploadManualBuild,
	services.ErrTaskNotFailed,
	services.ErrNotApprovable,
}

// writeError maps a service-layer or repository error to a status code.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
