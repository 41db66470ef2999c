package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(":0", nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Algorithms(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/algorithms", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var algorithms []opt.Algorithm
	if err := json.NewDecoder(w.Body).Decode(&algorithms); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(algorithms) != len(opt.Names()) {
		t.Errorf("Expected %d algorithms, got %d", len(opt.Names()), len(algorithms))
	}

	w = doRequest(s, http.MethodPost, "/api/v1/algorithms", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_CreateJob(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"algorithm":   opt.NamePolynomialSolver,
		"numWeights":  2,
		"points":      linePoints(),
		"maxSteps":    10,
		"seed":        7,
		"convergence": map[string]interface{}{"enabled": false},
	}

	w := doRequest(s, http.MethodPost, "/api/v1/jobs", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	// The worker starts immediately
	if job.State != StatePending && job.State != StateRunning {
		t.Errorf("Expected pending or running state, got %s", job.State)
	}

	// Omitted fields keep their defaults
	if job.Config.Hyperparameters.Adam.Beta1 != opt.DefaultHyperparameters().Adam.Beta1 {
		t.Error("Omitted hyperparameters should take defaults")
	}

	done := waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State.Finished() })
	if done.State != StateCompleted {
		t.Errorf("Expected completed, got %s (%s)", done.State, done.Error)
	}
	if done.Iterations != 10 {
		t.Errorf("Expected 10 iterations, got %d", done.Iterations)
	}
}

func TestServer_CreateJob_RandomPoints(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"algorithm": opt.NameAdam,
		"numPoints": 6,
		"maxSteps":  5,
	}

	w := doRequest(s, http.MethodPost, "/api/v1/jobs", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	json.NewDecoder(w.Body).Decode(&job)
	if len(job.Points) != 6 {
		t.Errorf("Expected 6 generated points, got %d", len(job.Points))
	}
}

func TestServer_CreateJob_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"unknown algorithm", `{"algorithm":"bogus"}`},
		{"negative weights", `{"numWeights":-1}`},
		{"negative penalty", `{"weightPenalty":-0.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	if len(s.jobManager.ListJobs()) != 0 {
		t.Error("Invalid requests should not create jobs")
	}
}

func TestServer_ListJobs(t *testing.T) {
	s := newTestServer(t)

	s.jobManager.CreateJob(testConfig(), linePoints())
	s.jobManager.CreateJob(testConfig(), linePoints())

	w := doRequest(s, http.MethodGet, "/api/v1/jobs", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}

	w = doRequest(s, http.MethodDelete, "/api/v1/jobs", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s := newTestServer(t)

	job := s.jobManager.CreateJob(testConfig(), linePoints())

	for _, path := range []string{"/api/v1/jobs/%s", "/api/v1/jobs/%s/status"} {
		w := doRequest(s, http.MethodGet, fmt.Sprintf(path, job.ID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if response["id"] != job.ID {
			t.Error("Response should contain job ID")
		}
		if response["state"] != string(StatePending) {
			t.Errorf("Expected pending state, got %v", response["state"])
		}
		if response["numPoints"] != float64(4) {
			t.Errorf("Expected 4 points, got %v", response["numPoints"])
		}
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/jobs/", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/jobs/abc/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_GetCurves(t *testing.T) {
	s := newTestServer(t)

	cfg := testConfig()
	job := s.submit(cfg, cfg.Points)
	waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State.Finished() })

	w := doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/curves", job.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Points      []fit.Point  `json:"points"`
		Curves      []*fit.Curve `json:"curves"`
		BestWeights []float64    `json:"bestWeights"`
		Iterations  int          `json:"iterations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Points) != 4 {
		t.Errorf("Expected 4 points, got %d", len(response.Points))
	}
	if len(response.Curves) == 0 {
		t.Error("Expected curves")
	}
	if len(response.BestWeights) != 2 {
		t.Errorf("Expected 2 best weights, got %d", len(response.BestWeights))
	}
	if response.Iterations != 20 {
		t.Errorf("Expected 20 iterations, got %d", response.Iterations)
	}

	// A pending job has an empty population
	pending := s.jobManager.CreateJob(testConfig(), linePoints())
	w = doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/curves", pending.ID), nil)
	if !strings.Contains(w.Body.String(), `"curves":[]`) {
		t.Errorf("Expected empty curve list, got %s", w.Body.String())
	}
}

func TestServer_UpdatePoints(t *testing.T) {
	s := newTestServer(t)

	job := s.jobManager.CreateJob(testConfig(), linePoints())
	path := fmt.Sprintf("/api/v1/jobs/%s/points", job.ID)

	w := doRequest(s, http.MethodPut, path, map[string]interface{}{"points": []fit.Point{{X: 0, Y: 1}}})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPut, path, map[string]interface{}{"points": []fit.Point{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty dataset, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPost, path, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPut, "/api/v1/jobs/nonexistent/points", map[string]interface{}{"points": linePoints()})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	s.jobManager.Cancel(job.ID)
	w = doRequest(s, http.MethodPut, path, map[string]interface{}{"points": linePoints()})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for finished job, got %d", w.Code)
	}
}

func TestServer_CancelJob(t *testing.T) {
	s := newTestServer(t)

	cfg := testConfig()
	cfg.MaxSteps = 0
	cfg.StepsPerSecond = 200
	job := s.submit(cfg, cfg.Points)
	waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State == StateRunning })

	path := fmt.Sprintf("/api/v1/jobs/%s/cancel", job.ID)
	w := doRequest(s, http.MethodPost, path, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State == StateCancelled })

	w = doRequest(s, http.MethodPost, path, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, path, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_Checkpoints(t *testing.T) {
	dir := t.TempDir()
	checkpointStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	s := NewServer(":0", checkpointStore)
	if s.traceDir != dir {
		t.Errorf("Expected trace dir %s, got %s", dir, s.traceDir)
	}

	cfg := testConfig()
	cfg.CheckpointInterval = 10
	job := s.submit(cfg, cfg.Points)
	waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State.Finished() })

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if _, err := checkpointStore.LoadCheckpoint(job.ID); err != nil {
		t.Errorf("Expected checkpoint: %v", err)
	}
}

func TestServer_ShutdownCancelsJobs(t *testing.T) {
	s := NewServer(":0", nil)

	cfg := testConfig()
	cfg.MaxSteps = 0
	cfg.StepsPerSecond = 200
	job := s.submit(cfg, cfg.Points)
	waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State == StateRunning })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	updated, _ := s.jobManager.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Expected cancelled after shutdown, got %s", updated.State)
	}
}

func TestServer_Index(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No jobs yet") {
		t.Error("Empty page should say there are no jobs")
	}

	job := s.jobManager.CreateJob(testConfig(), linePoints())

	w = doRequest(s, http.MethodGet, "/", nil)
	body := w.Body.String()
	if !strings.Contains(body, job.ID) {
		t.Error("Page should list the job")
	}
	if !strings.Contains(body, "Pending") {
		t.Error("Page should contain the Pending state")
	}
	if !strings.Contains(body, opt.NamePolynomialSolver) {
		t.Error("Page should contain the algorithm")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %s", ct)
	}

	w = doRequest(s, http.MethodGet, "/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodOptions, "/api/v1/jobs", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestServer_JobStream_SSE(t *testing.T) {
	s := newTestServer(t)

	job := s.submit(testConfig(), linePoints())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil).WithContext(ctx)
	w := httptest.NewRecorder()

	// Returns once the final event has been written
	s.handleJobStream(w, req, job.ID)

	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Error("Expected text/event-stream content type")
	}

	body := w.Body.String()
	if !strings.Contains(body, "data: {") {
		t.Fatal("Expected SSE data in response")
	}

	lines := strings.Split(strings.TrimSpace(body), "\n\n")
	last := strings.TrimPrefix(lines[len(lines)-1], "data: ")
	var event ProgressEvent
	if err := json.Unmarshal([]byte(last), &event); err != nil {
		t.Fatalf("Failed to parse last event: %v", err)
	}
	if event.State != StateCompleted {
		t.Errorf("Expected final completed event, got %s", event.State)
	}
	if event.JobID != job.ID {
		t.Errorf("Expected job %s, got %s", job.ID, event.JobID)
	}
}

func TestServer_JobStream_FinishedJob(t *testing.T) {
	s := newTestServer(t)

	job := s.jobManager.CreateJob(testConfig(), linePoints())
	s.jobManager.Cancel(job.ID)

	w := doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil)
	if !strings.Contains(w.Body.String(), `"state":"cancelled"`) {
		t.Errorf("Expected a single cancelled event, got %s", w.Body.String())
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	event := ProgressEvent{
		JobID:       "job1",
		State:       StateRunning,
		Iterations:  10,
		BestLoss:    0.5,
		BestWeights: []float64{1, 2},
		Timestamp:   time.Now(),
	}
	eb.Broadcast(event)

	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.Iterations != 10 {
			t.Errorf("Expected 10 iterations, got %d", received.Iterations)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	eb.Broadcast(ProgressEvent{JobID: "job2", Iterations: 3})
	select {
	case received := <-ch:
		t.Errorf("Should not receive events of another job, got %+v", received)
	default:
	}
}

func TestEventBroadcaster_ReplaysLastEvent(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(ProgressEvent{JobID: "job1", Iterations: 7})

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	select {
	case received := <-ch:
		if received.Iterations != 7 {
			t.Errorf("Expected replayed event with 7 iterations, got %d", received.Iterations)
		}
	default:
		t.Error("Late subscriber should receive the last event")
	}
}

func TestEventBroadcaster_CleanupJob(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	eb.Broadcast(ProgressEvent{JobID: "job1"})
	<-ch

	eb.CleanupJob("job1")

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after cleanup")
	}
	if _, ok := eb.LastEvent("job1"); ok {
		t.Error("Last event should be removed after cleanup")
	}

	// Unsubscribing a cleaned up channel must not panic
	eb.Unsubscribe("job1", ch)
}

// divergentConfig runs gradient ascent, which drives the loss to infinity
func divergentConfig() config.RunConfig {
	cfg := testConfig()
	cfg.Algorithm = opt.NameGradient
	cfg.Points = []fit.Point{{X: -1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}}
	cfg.MaxSteps = 2000
	cfg.Hyperparameters.Gradient.LearningRate = -5
	return cfg
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestServer_DivergentJob(t *testing.T) {
	s := newTestServer(t)

	cfg := divergentConfig()
	job := s.submit(cfg, cfg.Points)
	done := waitForJob(t, s.jobManager, job.ID, func(j *Job) bool { return j.State.Finished() })

	if done.State != StateCompleted {
		t.Fatalf("Expected completed, got %s (%s)", done.State, done.Error)
	}
	if done.StopReason != string(driver.StopDiverged) {
		t.Errorf("Expected diverged stop, got %q", done.StopReason)
	}
	if done.Iterations >= cfg.MaxSteps {
		t.Errorf("Run should stop before max steps, got %d", done.Iterations)
	}
	if !fit.Finite(done.BestLoss) || done.BestLoss > done.InitialLoss {
		t.Errorf("Best loss %v should stay at the finite initial loss %v", done.BestLoss, done.InitialLoss)
	}

	var status map[string]interface{}
	decodeBody(t, doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil), &status)
	if status["stopReason"] != string(driver.StopDiverged) {
		t.Errorf("Unexpected status %v", status)
	}

	var curves struct {
		Curves []*fit.Curve `json:"curves"`
	}
	decodeBody(t, doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/curves", job.ID), nil), &curves)
	if len(curves.Curves) != 1 {
		t.Errorf("Expected 1 curve, got %d", len(curves.Curves))
	}

	var jobs []Job
	decodeBody(t, doRequest(s, http.MethodGet, "/api/v1/jobs", nil), &jobs)
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(jobs))
	}
}

func TestServer_NonFiniteValuesEncodeAsNull(t *testing.T) {
	s := newTestServer(t)

	healthy := s.jobManager.CreateJob(testConfig(), linePoints())
	broken := s.jobManager.CreateJob(testConfig(), linePoints())
	s.jobManager.UpdateJob(broken.ID, func(j *Job) {
		j.Loss = math.NaN()
		j.BestLoss = math.Inf(1)
		j.InitialLoss = math.Inf(-1)
		j.BestWeights = []float64{1, math.NaN()}
		j.Curves = []*fit.Curve{{ID: 1, Weights: []float64{math.Inf(1)}, Loss: math.NaN()}}
	})

	var jobs []map[string]interface{}
	decodeBody(t, doRequest(s, http.MethodGet, "/api/v1/jobs", nil), &jobs)
	if len(jobs) != 2 {
		t.Fatalf("One broken job must not hide the others, got %d jobs", len(jobs))
	}
	for _, j := range jobs {
		if j["id"] != broken.ID {
			continue
		}
		if j["loss"] != nil || j["bestLoss"] != nil || j["initialLoss"] != nil {
			t.Errorf("Expected null losses, got %v", j)
		}
		weights, _ := j["bestWeights"].([]interface{})
		if len(weights) != 2 || weights[0] != 1.0 || weights[1] != nil {
			t.Errorf("Expected [1, null] weights, got %v", j["bestWeights"])
		}
	}

	var status map[string]interface{}
	decodeBody(t, doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", broken.ID), nil), &status)
	if status["loss"] != nil {
		t.Errorf("Expected null loss, got %v", status["loss"])
	}

	w := doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/curves", broken.ID), nil)
	if !strings.Contains(w.Body.String(), `{"id":1,"weights":[null],"loss":null}`) {
		t.Errorf("Unexpected curves body: %s", w.Body.String())
	}

	w = doRequest(s, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", healthy.ID), nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for healthy job, got %d", w.Code)
	}
}

func TestWriteSSEEvent_NonFinite(t *testing.T) {
	w := httptest.NewRecorder()
	event := ProgressEvent{JobID: "job", State: StateRunning, Loss: math.NaN(), BestLoss: 0.5, BestWeights: []float64{math.Inf(-1)}}

	if err := writeSSEEvent(w, event); err != nil {
		t.Fatalf("writeSSEEvent failed: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"loss":null`) || !strings.Contains(body, `"bestLoss":0.5`) || !strings.Contains(body, `"bestWeights":[null]`) {
		t.Errorf("Unexpected event: %s", body)
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"loss": math.NaN()})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
