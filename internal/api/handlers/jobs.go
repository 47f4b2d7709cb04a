package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walkup/printq/internal/db"
	"github.com/walkup/printq/internal/files"
)

// documentTypes is the advisory set of expected upload formats. Anything
// else is accepted but logged, matching the walk-up kiosk's lenient intake.
var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-powerpoint":                                           true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// PublicJob is the reduced projection served to anonymous callers. The
// stored file path stays internal.
type PublicJob struct {
	ID               int64     `json:"id"`
	DisplayName      string    `json:"display_name"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	IsColor          bool      `json:"is_color"`
	Copies           int       `json:"copies"`
	PageRange        string    `json:"page_range,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type JobHandler struct {
	jobs      *db.JobStore
	files     *files.Store
	maxUpload int64
	logger    *slog.Logger
}

func NewJobHandler(jobs *db.JobStore, fileStore *files.Store, maxUpload int64, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		files:     fileStore,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Upload accepts one or more documents plus shared print options and
// creates one job per file. The response is always an array.
func (h *JobHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart request"})
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	displayName := strings.TrimSpace(c.PostForm("displayName"))
	if displayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "displayName is required"})
		return
	}

	copies := 1
	if v := c.PostForm("copies"); v != "" {
		copies, err = strconv.Atoi(v)
		if err != nil || copies < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "copies must be a positive integer"})
			return
		}
	}

	isColor := c.PostForm("isColor") == "true"
	pageRange := c.PostForm("pageRange")

	for _, upload := range uploads {
		if upload.Size > h.maxUpload {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("file %q exceeds the %d byte upload limit", upload.Filename, h.maxUpload),
			})
			return
		}
	}

	created := make([]*db.PrintJob, 0, len(uploads))
	for _, upload := range uploads {
		fileType := upload.Header.Get("Content-Type")
		if fileType == "" {
			fileType = "application/octet-stream"
		}
		if !documentTypes[fileType] {
			h.logger.Warn("accepting non-document upload",
				"filename", upload.Filename, "content_type", fileType)
		}

		src, err := upload.Open()
		if err != nil {
			h.logger.Error("failed to open uploaded file", "filename", upload.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		storedName, size, err := h.files.Save(upload.Filename, src)
		src.Close()
		if err != nil {
			h.logger.Error("failed to store uploaded file", "filename", upload.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		job := &db.PrintJob{
			DisplayName:      displayName,
			FilePath:         storedName,
			OriginalFilename: upload.Filename,
			FileType:         fileType,
			FileSize:         size,
			IsColor:          isColor,
			Copies:           copies,
			PageRange:        pageRange,
		}

		if err := h.jobs.Create(c.Request.Context(), job); err != nil {
			h.logger.Error("failed to create job row", "filename", upload.Filename, "error", err)
			h.files.Remove(storedName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		h.logger.Info("job submitted",
			"job_id", job.ID, "display_name", displayName,
			"filename", upload.Filename, "size", size, "copies", copies)
		created = append(created, job)
	}

	response := make([]PublicJob, 0, len(created))
	for _, job := range created {
		response = append(response, toPublicJob(job))
	}

	c.JSON(http.StatusCreated, response)
}

// GetJob serves the public confirmation view of a single job.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("failed to get job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toPublicJob(job))
}

// ListJobs returns the full queue for operators: pending first, then
// newest-first.
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if jobs == nil {
		jobs = []*db.PrintJob{}
	}
	c.JSON(http.StatusOK, jobs)
}

// UpdateStatus advances a job through the PENDING -> PRINTING -> COMPLETED
// lifecycle. Anything off that path is rejected.
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	id, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if !db.ValidStatus(req.Status) || req.Status == db.StatusExpired {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status %q", req.Status)})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("failed to get job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if !db.CanTransition(job.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("cannot transition from %s to %s", job.Status, req.Status),
		})
		return
	}

	updated, err := h.jobs.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("failed to update job status", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.logger.Info("job status updated", "job_id", id, "from", job.Status, "to", updated.Status)
	c.JSON(http.StatusOK, updated)
}

// Download streams a job's stored file back to the operator. inline=true
// serves browser-viewable types in place; everything else (and the
// default mode) forces a download under the original filename.
func (h *JobHandler) Download(c *gin.Context) {
	id, err := parseJobID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("failed to get job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	path, err := h.files.Path(job.FilePath)
	if err != nil || !h.files.Exists(job.FilePath) {
		// The row exists but its file is gone: either swept or lost.
		h.logger.Warn("job file missing on disk", "job_id", id, "file", job.FilePath)
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	if c.Query("inline") == "true" && isViewable(job.FileType) {
		c.Header("Content-Type", job.FileType)
		c.Header("Content-Disposition", "inline")
		c.File(path)
		return
	}

	c.FileAttachment(path, job.OriginalFilename)
}

func isViewable(fileType string) bool {
	return fileType == "application/pdf" ||
		strings.HasPrefix(fileType, "image/") ||
		strings.HasPrefix(fileType, "text/")
}

func parseJobID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func toPublicJob(job *db.PrintJob) PublicJob {
	return PublicJob{
		ID:               job.ID,
		DisplayName:      job.DisplayName,
		OriginalFilename: job.OriginalFilename,
		FileType:         job.FileType,
		FileSize:         job.FileSize,
		IsColor:          job.IsColor,
		Copies:           job.Copies,
		PageRange:        job.PageRange,
		Status:           job.Status,
		CreatedAt:        job.CreatedAt,
	}
}
