package server

import (
	"net/http"

	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	jobs := s.jobManager.ListJobs()

	jobItems := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		color := "#6b7280"
		if a, ok := opt.Lookup(job.Config.Algorithm); ok {
			color = a.Color
		}
		jobItems[i] = ui.JobListItem{
			ID:          job.ID,
			State:       string(job.State),
			Algorithm:   job.Config.Algorithm,
			Color:       color,
			NumWeights:  job.Config.NumWeights,
			NumPoints:   len(job.Points),
			Iterations:  job.Iterations,
			BestLoss:    job.BestLoss,
			InitialLoss: job.InitialLoss,
			BestWeights: job.BestWeights,
			StartTime:   job.StartTime,
			EndTime:     job.EndTime,
			Error:       job.Error,
		}
	}

	if err := ui.JobList(jobItems).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
