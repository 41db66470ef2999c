package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/fit"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

// jobSummary mirrors the job fields returned by GET /api/v1/jobs
type jobSummary struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Config struct {
		Algorithm  string `json:"algorithm"`
		NumWeights int    `json:"numWeights"`
	} `json:"config"`
	Points      []fit.Point `json:"points"`
	Iterations  int         `json:"iterations"`
	InitialLoss float64     `json:"initialLoss"`
	BestLoss    float64     `json:"bestLoss"`
}

// jobStatus mirrors GET /api/v1/jobs/{id}/status
type jobStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Config struct {
		Algorithm      string  `json:"algorithm"`
		NumWeights     int     `json:"numWeights"`
		WeightPenalty  float64 `json:"weightPenalty"`
		MaxSteps       int     `json:"maxSteps"`
		StepsPerSecond float64 `json:"stepsPerSecond"`
	} `json:"config"`
	NumPoints      int       `json:"numPoints"`
	BestWeights    []float64 `json:"bestWeights"`
	BestLoss       float64   `json:"bestLoss"`
	InitialLoss    float64   `json:"initialLoss"`
	Iterations     int       `json:"iterations"`
	StopReason     string    `json:"stopReason"`
	Elapsed        float64   `json:"elapsed"`
	StepsPerSecond float64   `json:"stepsPerSecond"`
	Error          string    `json:"error"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}

	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func getJSON(url string, v interface{}) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(out io.Writer, url string) error {
	var jobs []jobSummary
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Algorithm: %s\n", job.Config.Algorithm)
		fmt.Fprintf(out, "  Weights: %d, Points: %d\n", job.Config.NumWeights, len(job.Points))
		if job.Iterations > 0 {
			fmt.Fprintf(out, "  Loss: %.6g -> %.6g after %d steps\n", job.InitialLoss, job.BestLoss, job.Iterations)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var status jobStatus
	code, err := getJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	if status.StopReason != "" {
		fmt.Fprintf(out, "Stopped: %s\n", status.StopReason)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Algorithm: %s\n", status.Config.Algorithm)
	fmt.Fprintf(out, "  Weights: %d\n", status.Config.NumWeights)
	fmt.Fprintf(out, "  Points: %d\n", status.NumPoints)
	fmt.Fprintf(out, "  Weight penalty: %g\n", status.Config.WeightPenalty)
	fmt.Fprintf(out, "  Max steps: %d\n", status.Config.MaxSteps)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Steps: %d\n", status.Iterations)
	if status.Iterations > 0 {
		fmt.Fprintf(out, "  Initial Loss: %.6g\n", status.InitialLoss)
		fmt.Fprintf(out, "  Best Loss: %.6g\n", status.BestLoss)
		if status.InitialLoss > 0 {
			improvement := status.InitialLoss - status.BestLoss
			fmt.Fprintf(out, "  Improvement: %.6g (%.1f%%)\n", improvement, improvement/status.InitialLoss*100)
		}
		fmt.Fprintf(out, "  Curve: %s\n", fit.FormatPolynomial(status.BestWeights))
	}

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.StepsPerSecond > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f steps/sec\n", status.StepsPerSecond)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
