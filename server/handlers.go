package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modelcompare/internal/bench"
	"modelcompare/internal/config"
	"modelcompare/internal/report"
)

// Server wires the configured model and prompt tables to the batch
// dispatcher and exposes the result over HTTP.
type Server struct {
	cfg     *config.Config
	client  bench.Invoker
	jobs    *JobManager
	metrics *Metrics
}

// NewServer creates a server over a fixed run configuration. The invoker is
// injectable so tests can substitute a stub backend.
func NewServer(cfg *config.Config, client bench.Invoker) *Server {
	return &Server{
		cfg:     cfg,
		client:  client,
		jobs:    NewJobManager(),
		metrics: NewMetrics(),
	}
}

// StartJobCleanup prunes old terminal jobs from the in-memory registry every
// interval. Runs for the lifetime of the process.
func (s *Server) StartJobCleanup(interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if n := s.jobs.CleanupOldJobs(maxAge); n > 0 {
				AppLogger.Infow("pruned old jobs", "count", n)
			}
		}
	}()
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": len(s.cfg.Models),
	})
}

// ModelsHandler lists the configured models without credentials.
func (s *Server) ModelsHandler(c *gin.Context) {
	infos := make([]ModelInfo, 0, len(s.cfg.Models))
	for _, m := range s.cfg.Models {
		infos = append(infos, ModelInfo{
			Name:       m.Name,
			ID:         m.ID,
			BaseURL:    m.BaseURL,
			InputRate:  m.InputRate,
			OutputRate: m.OutputRate,
		})
	}
	c.JSON(http.StatusOK, ModelsResponse{Models: infos, Count: len(infos)})
}

// StartRunHandler starts an asynchronous comparison batch and returns the
// job id. Progress is served via SSE or websocket streams.
func (s *Server) StartRunHandler(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	models, prompts, err := s.selectWork(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	items := bench.ExpandWorkItems(models, prompts)
	jobID := s.jobs.CreateJob(req, len(items))
	s.metrics.RunStarted()

	go s.executeJob(jobID, req, models, items)

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  jobID,
		"status": JobRunning,
		"items":  len(items),
	})
}

// executeJob runs the batch in the background. Item failures become result
// rows inside a completed job; only setup faults fail the job itself.
func (s *Server) executeJob(jobID string, req RunRequest, models []bench.ModelSpec, items []bench.WorkItem) {
	params := s.cfg.Params.ToInferenceParams()
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	concurrency := s.cfg.Concurrency
	if req.Concurrency > 0 {
		concurrency = req.Concurrency
	}

	dispatcher := bench.NewDispatcher(s.client, params)
	dispatcher.OnResult = func(r bench.InferenceResult) {
		s.jobs.ItemDone(jobID)
		s.metrics.ObserveResult(r)
	}

	store, err := dispatcher.Run(context.Background(), items, concurrency)
	if err != nil {
		s.jobs.FailJob(jobID, err.Error())
		return
	}

	results := store.SortedByKey()
	s.jobs.CompleteJob(jobID, &RunOutcome{
		Summaries: report.Summarize(models, results),
		Results:   results,
	})
}

// selectWork resolves requested subsets against the configured tables.
func (s *Server) selectWork(req RunRequest) ([]bench.ModelSpec, []bench.PromptCase, error) {
	models := s.cfg.Models
	if len(req.ModelNames) > 0 {
		models = nil
		for _, name := range req.ModelNames {
			found := false
			for _, m := range s.cfg.Models {
				if m.Name == name {
					models = append(models, m)
					found = true
					break
				}
			}
			if !found {
				return nil, nil, fmt.Errorf("unknown model %q", name)
			}
		}
	}

	prompts := s.cfg.Prompts
	if len(req.PromptIDs) > 0 {
		prompts = nil
		for _, id := range req.PromptIDs {
			found := false
			for _, p := range s.cfg.Prompts {
				if p.ID == id {
					prompts = append(prompts, p)
					found = true
					break
				}
			}
			if !found {
				return nil, nil, fmt.Errorf("unknown prompt %q", id)
			}
		}
	}

	return models, prompts, nil
}

// GetJobHandler returns the current state of a job.
func (s *Server) GetJobHandler(c *gin.Context) {
	job, exists := s.jobs.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "Job not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler returns all known jobs, newest first.
func (s *Server) ListJobsHandler(c *gin.Context) {
	jobs := s.jobs.ListJobs()
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// ExportCSVHandler streams a completed job's results as a CSV download.
func (s *Server) ExportCSVHandler(c *gin.Context) {
	job, exists := s.jobs.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "Job not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if job.Status != JobCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Conflict",
			Message: "Job has not completed",
			Code:    http.StatusConflict,
		})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", job.ID))
	if err := report.WriteCSV(c.Writer, job.Result.Results); err != nil {
		AppLogger.Errorw("CSV export failed", "jobId", job.ID, "error", err)
	}
}

// ExportHTMLHandler renders a completed job's results as the HTML report.
func (s *Server) ExportHTMLHandler(c *gin.Context) {
	job, exists := s.jobs.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "Job not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if job.Status != JobCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Conflict",
			Message: "Job has not completed",
			Code:    http.StatusConflict,
		})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	data := report.NewReportData(s.cfg.Models, s.cfg.Scenarios, job.Result.Results)
	if err := report.RenderHTML(c.Writer, data); err != nil {
		AppLogger.Errorw("HTML export failed", "jobId", job.ID, "error", err)
	}
}
