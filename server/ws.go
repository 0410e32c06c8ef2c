package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS policy lives in middleware
}

// StreamJobProgressWSHandler streams job progress over a websocket. Same
// payloads as the SSE stream, for clients that prefer a socket.
func (s *Server) StreamJobProgressWSHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, exists := s.jobs.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		AppLogger.Errorw("websocket upgrade failed", "jobId", jobID, "error", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(job); err != nil {
		return
	}
	if job.Terminal() {
		return
	}

	updateChan := make(chan *Job, 16)
	s.jobs.RegisterListener(jobID, updateChan)
	defer s.jobs.UnregisterListener(jobID, updateChan)

	// Drain client frames so closes are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			AppLogger.Infow("websocket connection closed", "jobId", jobID)
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case updatedJob := <-updateChan:
			if err := conn.WriteJSON(updatedJob); err != nil {
				return
			}
			if updatedJob.Terminal() {
				return
			}
		}
	}
}
