package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelcompare/internal/bench"
	"modelcompare/internal/config"
)

// stubInvoker returns canned results so handler tests run without a backend.
type stubInvoker struct {
	failKeys map[string]bench.FailureKind
}

func (s *stubInvoker) Invoke(ctx context.Context, item bench.WorkItem, params bench.InferenceParams) bench.InferenceResult {
	if kind, ok := s.failKeys[item.Key()]; ok {
		return bench.Failure(item, kind, "stub fault")
	}
	return bench.InferenceResult{
		Item:         item,
		Response:     "stub response",
		LatencyMS:    5,
		InputTokens:  10,
		OutputTokens: 20,
		Cost:         bench.EstimateCost(item.Model, 10, 20),
		Status:       bench.StatusSuccess,
		Timestamp:    time.Now(),
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Models = []bench.ModelSpec{
		{Name: "sonnet", ID: "anthropic.claude-sonnet", InputRate: 0.003, OutputRate: 0.015},
		{Name: "haiku", ID: "anthropic.claude-haiku", InputRate: 0.0008, OutputRate: 0.004},
	}
	cfg.Prompts = []bench.PromptCase{
		{ID: "p1", Category: "test", Text: "first prompt"},
		{ID: "p2", Category: "test", Text: "second prompt"},
	}
	return cfg
}

func testRouter(t *testing.T, invoker bench.Invoker) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := NewServer(testConfig(), invoker)
	router := gin.New()
	srv.SetupRoutes(router)
	return srv, router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func waitForJob(t *testing.T, srv *Server, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := srv.jobs.GetJob(jobID)
		require.True(t, ok)
		if job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestHealthHandler(t *testing.T) {
	_, router := testRouter(t, &stubInvoker{})
	w := doJSON(router, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestModelsHandlerOmitsCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Models[0].APIKey = "sk-secret"
	gin.SetMode(gin.TestMode)
	srv := NewServer(cfg, &stubInvoker{})
	router := gin.New()
	srv.SetupRoutes(router)

	w := doJSON(router, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "sonnet", resp.Models[0].Name)
	assert.NotContains(t, w.Body.String(), "sk-secret")
}

func TestStartRunCompletesJob(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{Concurrency: 4})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		JobID string `json:"jobId"`
		Items int    `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.JobID)
	assert.Equal(t, 4, accepted.Items) // 2 models x 2 prompts

	job := waitForJob(t, srv, accepted.JobID)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Results, 4)
	assert.Len(t, job.Result.Summaries, 2)
}

func TestStartRunWithSubsets(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{
		ModelNames: []string{"haiku"},
		PromptIDs:  []string{"p2"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	job := waitForJob(t, srv, accepted.JobID)
	require.NotNil(t, job.Result)
	require.Len(t, job.Result.Results, 1)
	assert.Equal(t, "haiku/p2", job.Result.Results[0].Item.Key())
}

func TestStartRunRejectsUnknownModel(t *testing.T) {
	_, router := testRouter(t, &stubInvoker{})
	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{ModelNames: []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown model")
}

func TestStartRunRejectsUnknownPrompt(t *testing.T) {
	_, router := testRouter(t, &stubInvoker{})
	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{PromptIDs: []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown prompt")
}

func TestJobCompletesDespiteItemFailures(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{
		failKeys: map[string]bench.FailureKind{"sonnet/p1": bench.FailureThrottled},
	})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	job := waitForJob(t, srv, accepted.JobID)
	assert.Equal(t, JobCompleted, job.Status)

	failures := 0
	for _, r := range job.Result.Results {
		if r.Failed() {
			failures++
			assert.Equal(t, "sonnet/p1", r.Item.Key())
		}
	}
	assert.Equal(t, 1, failures)
}

func TestGetJobHandlerNotFound(t *testing.T) {
	_, router := testRouter(t, &stubInvoker{})
	w := doJSON(router, http.MethodGet, "/api/jobs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobsHandler(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})
	srv.jobs.CreateJob(RunRequest{}, 1)

	w := doJSON(router, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestExportCSVConflictWhileRunning(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})
	jobID := srv.jobs.CreateJob(RunRequest{}, 1)

	w := doJSON(router, http.MethodGet, "/api/jobs/"+jobID+"/export/csv", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportCSVAfterCompletion(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{})
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	waitForJob(t, srv, accepted.JobID)

	w = doJSON(router, http.MethodGet, "/api/jobs/"+accepted.JobID+"/export/csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), accepted.JobID)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 5) // header + 4 rows
	assert.True(t, strings.HasPrefix(lines[0], "work_item,"))
}

func TestExportHTMLAfterCompletion(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{})
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	waitForJob(t, srv, accepted.JobID)

	w = doJSON(router, http.MethodGet, "/api/jobs/"+accepted.JobID+"/export/html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Model Comparison Report")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{})
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	waitForJob(t, srv, accepted.JobID)

	w = doJSON(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "modelcompare_runs_total 1")
	assert.Contains(t, body, `modelcompare_items_total{model="sonnet",status="success"} 2`)
}

func TestSSEStreamDeliversTerminalState(t *testing.T) {
	srv, router := testRouter(t, &stubInvoker{})

	w := doJSON(router, http.MethodPost, "/api/runs", RunRequest{})
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	waitForJob(t, srv, accepted.JobID)

	// Connecting after completion: the stream sends the final snapshot and ends.
	w = doJSON(router, http.MethodGet, "/api/jobs/"+accepted.JobID+"/stream", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestNoRouteReturnsJSON(t *testing.T) {
	_, router := testRouter(t, &stubInvoker{})
	w := doJSON(router, http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found")
}
