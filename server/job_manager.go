package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job has no cancelled state: once a batch is submitted it
// runs to completion, failures and all.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job tracks one comparison batch running on the server.
type Job struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	Progress    int              `json:"progress"` // 0-100
	Message     string           `json:"message"`
	Completed   int              `json:"completed"`
	Total       int              `json:"total"`
	Result      *RunOutcome      `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Request     RunRequest       `json:"request"`
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// ToSSEMessage renders the job as a server-sent event frame.
func (j *Job) ToSSEMessage() string {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Sprintf("data: {\"id\":%q,\"status\":\"failed\",\"error\":\"marshal error\"}\n\n", j.ID)
	}
	return fmt.Sprintf("data: %s\n\n", data)
}

// JobManager holds the in-memory job registry and fans job updates out to
// progress listeners (SSE and websocket connections).
type JobManager struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	listeners map[string][]chan *Job
}

// NewJobManager creates an empty job registry.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:      make(map[string]*Job),
		listeners: make(map[string][]chan *Job),
	}
}

// CreateJob registers a new running job and returns its id.
func (jm *JobManager) CreateJob(request RunRequest, total int) string {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	jobID := uuid.New().String()
	jm.jobs[jobID] = &Job{
		ID:        jobID,
		Status:    JobRunning,
		Message:   "Starting comparison batch...",
		Total:     total,
		CreatedAt: time.Now(),
		Request:   request,
	}
	AppLogger.Infow("job created", "jobId", jobID, "items", total)
	return jobID
}

// GetJob retrieves a snapshot of a job by id. Callers never see a job that
// is still being mutated by the batch goroutine.
func (jm *JobManager) GetJob(jobID string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	job, exists := jm.jobs[jobID]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all jobs, newest first.
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	jobs := make([]*Job, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		snapshot := *j
		jobs = append(jobs, &snapshot)
	}
	for i := 0; i < len(jobs); i++ {
		for j := i + 1; j < len(jobs); j++ {
			if jobs[j].CreatedAt.After(jobs[i].CreatedAt) {
				jobs[i], jobs[j] = jobs[j], jobs[i]
			}
		}
	}
	return jobs
}

// ItemDone records one completed work item and notifies listeners.
func (jm *JobManager) ItemDone(jobID string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists {
		AppLogger.Errorw("job not found for progress update", "jobId", jobID)
		return
	}
	job.Completed++
	if job.Total > 0 {
		job.Progress = job.Completed * 100 / job.Total
	}
	job.Message = fmt.Sprintf("Completed %d of %d calls", job.Completed, job.Total)
	jm.broadcast(jobID, job)
}

// CompleteJob marks a job as completed with its outcome.
func (jm *JobManager) CompleteJob(jobID string, result *RunOutcome) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists {
		AppLogger.Errorw("job not found for completion", "jobId", jobID)
		return
	}
	job.Status = JobCompleted
	job.Progress = 100
	job.Message = "Comparison completed"
	job.Result = result
	now := time.Now()
	job.CompletedAt = &now
	AppLogger.Infow("job completed", "jobId", jobID, "items", job.Total)
	jm.broadcast(jobID, job)
}

// FailJob marks a job as failed. This only happens for setup faults; item
// failures are data inside a completed job, never a failed job.
func (jm *JobManager) FailJob(jobID string, errorMsg string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists {
		AppLogger.Errorw("job not found for failure", "jobId", jobID)
		return
	}
	job.Status = JobFailed
	job.Message = "Comparison failed"
	job.Error = errorMsg
	now := time.Now()
	job.CompletedAt = &now
	AppLogger.Errorw("job failed", "jobId", jobID, "error", errorMsg)
	jm.broadcast(jobID, job)
}

// CleanupOldJobs drops terminal jobs whose completion is older than maxAge
// and returns how many were removed. The registry is in-memory only, so old
// batches are pruned periodically instead of persisted.
func (jm *JobManager) CleanupOldJobs(maxAge time.Duration) int {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for jobID, job := range jm.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(jm.jobs, jobID)
			delete(jm.listeners, jobID)
			removed++
			AppLogger.Infow("cleaned up old job", "jobId", jobID)
		}
	}
	return removed
}

// RegisterListener subscribes a channel to job updates.
func (jm *JobManager) RegisterListener(jobID string, ch chan *Job) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.listeners[jobID] = append(jm.listeners[jobID], ch)
}

// UnregisterListener removes a previously registered channel.
func (jm *JobManager) UnregisterListener(jobID string, ch chan *Job) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	chans := jm.listeners[jobID]
	for i, c := range chans {
		if c == ch {
			jm.listeners[jobID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
}

// broadcast must be called with the lock held. Listeners get a snapshot so
// later mutations do not race with readers; slow listeners are skipped
// rather than blocking the batch.
func (jm *JobManager) broadcast(jobID string, job *Job) {
	snapshot := *job
	for _, ch := range jm.listeners[jobID] {
		select {
		case ch <- &snapshot:
		default:
		}
	}
}
