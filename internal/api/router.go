package api

import (
	"github.com/gin-gonic/gin"

	"github.com/walkup/printq/internal/api/handlers"
	"github.com/walkup/printq/internal/api/middleware"
)

// NewRouter wires the public submission surface and the operator surface.
func NewRouter(auth *middleware.AuthMiddleware, jobs *handlers.JobHandler, maxUploadBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Memory threshold for multipart parsing; larger bodies spill to disk
	// and the per-file cap is enforced in the upload handler.
	r.MaxMultipartMemory = maxUploadBytes

	apiGroup := r.Group("/api")

	// Public: anonymous submitters.
	apiGroup.POST("/upload", jobs.Upload)
	apiGroup.GET("/jobs/:id", jobs.GetJob)

	// Session management.
	apiGroup.POST("/admin/login", auth.LoginHandler)
	apiGroup.POST("/admin/logout", auth.LogoutHandler)
	apiGroup.GET("/admin/me", auth.MeHandler)

	// Operator-only queue management.
	admin := apiGroup.Group("/admin", auth.RequireAuth())
	admin.GET("/jobs", jobs.ListJobs)
	admin.PATCH("/jobs/:id/status", jobs.UpdateStatus)
	admin.GET("/jobs/:id/download", jobs.Download)

	return r
}
