package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Finished reports whether the state is terminal
func (s JobState) Finished() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var (
	// ErrJobNotFound is returned for unknown job IDs
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinished is returned when a finished job is cancelled or given new points
	ErrJobFinished = errors.New("job already finished")
)

// Job represents an optimization job.
// Values returned by JobManager are snapshots; the worker replaces slices instead of
// mutating them, so a snapshot stays consistent after the job moves on.
type Job struct {
	ID          string           `json:"id"`
	State       JobState         `json:"state"`
	Config      config.RunConfig `json:"config"`
	Points      []fit.Point      `json:"points"`
	BestWeights []float64        `json:"bestWeights,omitempty"`
	Loss        float64          `json:"loss"`
	BestLoss    float64          `json:"bestLoss"`
	InitialLoss float64          `json:"initialLoss"`
	Iterations  int              `json:"iterations"`
	StopReason  string           `json:"stopReason,omitempty"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     *time.Time       `json:"endTime,omitempty"`
	Error       string           `json:"error,omitempty"`

	// Curves is the latest population snapshot, served by the curves endpoint
	Curves []*fit.Curve `json:"-"`

	cancel  context.CancelFunc
	updates chan []fit.Point
}

// MarshalJSON encodes non-finite losses and weights of a diverged run as null
func (j Job) MarshalJSON() ([]byte, error) {
	type job Job
	return json.Marshal(struct {
		job
		BestWeights []fit.JSONFloat `json:"bestWeights,omitempty"`
		Loss        fit.JSONFloat   `json:"loss"`
		BestLoss    fit.JSONFloat   `json:"bestLoss"`
		InitialLoss fit.JSONFloat   `json:"initialLoss"`
	}{
		job:         job(j),
		BestWeights: fit.JSONFloats(j.BestWeights),
		Loss:        fit.JSONFloat(j.Loss),
		BestLoss:    fit.JSONFloat(j.BestLoss),
		InitialLoss: fit.JSONFloat(j.InitialLoss),
	})
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job fitting the given dataset
func (jm *JobManager) CreateJob(cfg config.RunConfig, points []fit.Point) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    cfg,
		Points:    fit.ClonePoints(points),
		StartTime: time.Now(),
		updates:   make(chan []fit.Point, 1),
	}

	jm.jobs[job.ID] = job
	snapshot := *job
	return &snapshot
}

// GetJob retrieves a snapshot of a job by ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all jobs, oldest first
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			snapshot := *job
			runningJobs = append(runningJobs, &snapshot)
		}
	}
	return runningJobs
}

// UpdatePoints hands a replacement dataset to the job's worker.
// Only the latest pending update is kept; it is applied between optimizer steps.
func (jm *JobManager) UpdatePoints(id string, points []fit.Point) error {
	if len(points) == 0 {
		return fit.ErrEmptyDataset
	}

	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State.Finished() {
		return fmt.Errorf("%w: %s", ErrJobFinished, id)
	}

	update := fit.ClonePoints(points)
	select {
	case <-job.updates:
	default:
	}
	job.updates <- update
	return nil
}

// Cancel stops a job. A pending job is cancelled before its worker starts.
func (jm *JobManager) Cancel(id string) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State.Finished() {
		return fmt.Errorf("%w: %s", ErrJobFinished, id)
	}

	if job.cancel != nil {
		job.cancel()
		return nil
	}

	endTime := time.Now()
	job.State = StateCancelled
	job.EndTime = &endTime
	return nil
}

// start moves a pending job to running and hands its update channel to the worker
func (jm *JobManager) start(id string, cancel context.CancelFunc) (<-chan []fit.Point, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State != StatePending {
		return nil, fmt.Errorf("job %s is %s, not pending", id, job.State)
	}

	job.State = StateRunning
	job.cancel = cancel
	return job.updates, nil
}
