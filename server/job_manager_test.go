package server

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	AppLogger = zap.NewNop().Sugar()
}

func TestJobLifecycle(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 4)
	require.NotEmpty(t, jobID)

	job, ok := jm.GetJob(jobID)
	require.True(t, ok)
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, 4, job.Total)
	assert.Zero(t, job.Completed)
	assert.False(t, job.Terminal())

	for i := 0; i < 4; i++ {
		jm.ItemDone(jobID)
	}
	job, _ = jm.GetJob(jobID)
	assert.Equal(t, 4, job.Completed)
	assert.Equal(t, 100, job.Progress)

	jm.CompleteJob(jobID, &RunOutcome{})
	job, _ = jm.GetJob(jobID)
	assert.Equal(t, JobCompleted, job.Status)
	assert.True(t, job.Terminal())
	require.NotNil(t, job.CompletedAt)
}

func TestFailJob(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 1)

	jm.FailJob(jobID, "concurrency must be positive")
	job, _ := jm.GetJob(jobID)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "concurrency must be positive", job.Error)
	assert.True(t, job.Terminal())
}

func TestGetJobUnknown(t *testing.T) {
	jm := NewJobManager()
	_, ok := jm.GetJob("nope")
	assert.False(t, ok)
}

func TestGetJobReturnsSnapshot(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 2)

	job, _ := jm.GetJob(jobID)
	job.Status = JobFailed

	fresh, _ := jm.GetJob(jobID)
	assert.Equal(t, JobRunning, fresh.Status)
}

func TestListJobsNewestFirst(t *testing.T) {
	jm := NewJobManager()
	first := jm.CreateJob(RunRequest{}, 1)
	time.Sleep(2 * time.Millisecond)
	second := jm.CreateJob(RunRequest{}, 1)

	jobs := jm.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second, jobs[0].ID)
	assert.Equal(t, first, jobs[1].ID)
}

func TestListenersReceiveUpdates(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 2)

	ch := make(chan *Job, 16)
	jm.RegisterListener(jobID, ch)
	defer jm.UnregisterListener(jobID, ch)

	jm.ItemDone(jobID)
	jm.CompleteJob(jobID, &RunOutcome{})

	var updates []*Job
	for len(updates) < 2 {
		select {
		case j := <-ch:
			updates = append(updates, j)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for listener updates")
		}
	}
	assert.Equal(t, 1, updates[0].Completed)
	assert.Equal(t, JobCompleted, updates[1].Status)
}

func TestSlowListenerDoesNotBlockBroadcast(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 10)

	full := make(chan *Job) // unbuffered and never read
	jm.RegisterListener(jobID, full)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			jm.ItemDone(jobID)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow listener")
	}
}

func TestUnregisterListenerStopsUpdates(t *testing.T) {
	jm := NewJobManager()
	jobID := jm.CreateJob(RunRequest{}, 1)

	ch := make(chan *Job, 4)
	jm.RegisterListener(jobID, ch)
	jm.UnregisterListener(jobID, ch)

	jm.ItemDone(jobID)
	select {
	case <-ch:
		t.Fatal("unregistered listener still receiving")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCleanupOldJobs(t *testing.T) {
	jm := NewJobManager()
	old := jm.CreateJob(RunRequest{}, 1)
	jm.CompleteJob(old, &RunOutcome{})
	running := jm.CreateJob(RunRequest{}, 1)

	// The completed job finished just now, so a generous max age keeps it.
	assert.Zero(t, jm.CleanupOldJobs(time.Hour))

	removed := jm.CleanupOldJobs(-time.Second)
	assert.Equal(t, 1, removed)

	_, ok := jm.GetJob(old)
	assert.False(t, ok)
	_, ok = jm.GetJob(running)
	assert.True(t, ok, "running jobs must survive cleanup")
}

func TestToSSEMessage(t *testing.T) {
	job := &Job{ID: "abc", Status: JobRunning, Progress: 50}
	msg := job.ToSSEMessage()
	assert.True(t, strings.HasPrefix(msg, "data: "))
	assert.True(t, strings.HasSuffix(msg, "\n\n"))
	assert.Contains(t, msg, `"id":"abc"`)
	assert.Contains(t, msg, `"progress":50`)
}
