package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/cwbudde/curvefit/internal/fit"
)

// JobListItem is the view model of one row in the job list
type JobListItem struct {
	ID          string
	State       string
	Algorithm   string
	Color       string
	NumWeights  int
	NumPoints   int
	Iterations  int
	BestLoss    float64
	InitialLoss float64
	BestWeights []float64
	StartTime   time.Time
	EndTime     *time.Time
	Error       string
}

// Polynomial formats the best weights, or "-" before the first step
func (j JobListItem) Polynomial() string {
	if len(j.BestWeights) == 0 {
		return "-"
	}
	return fit.FormatPolynomial(j.BestWeights)
}

// Duration returns the wall time of the job so far
func (j JobListItem) Duration() time.Duration {
	end := time.Now()
	if j.EndTime != nil {
		end = *j.EndTime
	}
	return end.Sub(j.StartTime).Round(time.Millisecond)
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>curvefit jobs</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #e5e7eb; padding: 0.4rem 0.6rem; text-align: left; }
.badge { border-radius: 0.25rem; color: #fff; padding: 0.1rem 0.4rem; }
.error { color: #b91c1c; }
</style>
</head>
<body>
<h1>Jobs</h1>
`

const pageTail = `</body>
</html>
`

// JobList renders the job overview page
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if len(jobs) == 0 {
			if _, err := io.WriteString(w, "<p>No jobs yet. POST a run configuration to /api/v1/jobs.</p>\n"); err != nil {
				return err
			}
			_, err := io.WriteString(w, pageTail)
			return err
		}

		if _, err := io.WriteString(w, "<table>\n<tr><th>Job</th><th>State</th><th>Algorithm</th><th>Weights</th><th>Points</th><th>Steps</th><th>Initial loss</th><th>Best loss</th><th>Best curve</th><th>Time</th></tr>\n"); err != nil {
			return err
		}
		for _, job := range jobs {
			if err := jobRow(job).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</table>\n"); err != nil {
			return err
		}

		_, err := io.WriteString(w, pageTail)
		return err
	})
}

func jobRow(job JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id := templ.EscapeString(job.ID)
		var b strings.Builder
		fmt.Fprintf(&b, `<tr><td><a href="/api/v1/jobs/%s">%s</a></td>`, id, id)
		fmt.Fprintf(&b, `<td>%s`, templ.EscapeString(stateLabel(job.State)))
		if job.Error != "" {
			fmt.Fprintf(&b, ` <span class="error">%s</span>`, templ.EscapeString(job.Error))
		}
		b.WriteString(`</td>`)
		fmt.Fprintf(&b, `<td><span class="badge" style="background:%s">%s</span></td>`,
			templ.EscapeString(job.Color), templ.EscapeString(job.Algorithm))
		fmt.Fprintf(&b, `<td>%d</td><td>%d</td><td>%d</td>`, job.NumWeights, job.NumPoints, job.Iterations)
		fmt.Fprintf(&b, `<td>%.6g</td><td>%.6g</td>`, job.InitialLoss, job.BestLoss)
		fmt.Fprintf(&b, `<td>%s</td><td>%s</td></tr>`, templ.EscapeString(job.Polynomial()), job.Duration())
		b.WriteString("\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func stateLabel(state string) string {
	if state == "" {
		return "Unknown"
	}
	return strings.ToUpper(state[:1]) + state[1:]
}
