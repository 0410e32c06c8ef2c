package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

// StreamJobProgressHandler streams job progress via Server-Sent Events until
// the job reaches a terminal state or the client disconnects.
func (s *Server) StreamJobProgressHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, exists := s.jobs.GetJob(jobID)
	if !exists {
		c.JSON(404, gin.H{"error": "Job not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	// Send the current state immediately.
	c.Writer.WriteString(job.ToSSEMessage())
	c.Writer.Flush()
	if job.Terminal() {
		return
	}

	updateChan := make(chan *Job, 16)
	s.jobs.RegisterListener(jobID, updateChan)
	defer s.jobs.UnregisterListener(jobID, updateChan)

	ctx := c.Request.Context()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			AppLogger.Infow("SSE connection closed", "jobId", jobID)
			return
		case <-ticker.C:
			// Keep-alive so proxies do not drop the stream between updates.
			c.Writer.WriteString("data: {\"type\":\"ping\",\"timestamp\":\"" + time.Now().Format(time.RFC3339) + "\"}\n\n")
			c.Writer.Flush()
		case updatedJob := <-updateChan:
			c.Writer.WriteString(updatedJob.ToSSEMessage())
			c.Writer.Flush()
			if updatedJob.Terminal() {
				return
			}
		}
	}
}
