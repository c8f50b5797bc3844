// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/callwatchio/callwatch/internal/models"
)

// Renderer produces the persisted report artifacts: the per-user CSV
// table, the self-contained HTML visualization, and the JSON summary
// sidecar. All writes are atomic (temp file then rename), so readers
// never observe a partial artifact.
type Renderer struct {
	// bucketDisplayLimit caps the per-bucket member list in the HTML
	// output; members beyond it collapse into "+N more".
	bucketDisplayLimit int

	// maxUsers caps the top-failing-users table in the HTML output.
	maxUsers int
}

// NewRenderer creates a renderer with the given display limits.
func NewRenderer(bucketDisplayLimit, maxUsers int) *Renderer {
	return &Renderer{bucketDisplayLimit: bucketDisplayLimit, maxUsers: maxUsers}
}

// writeAtomic writes a file via a temp sibling and os.Rename. The temp
// file is removed on any failure.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return nil
}

// RenderCSV writes the per-user statistics table: one row per user with
// raw fractions plus percentage-formatted columns.
func (r *Renderer) RenderCSV(path string, stats []models.UserFailureStats) error {
	err := writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)

		header := []string{
			"user_name", "total_sessions", "failed_sessions", "success_sessions",
			"failure_rate", "success_rate", "failure_rate_pct", "success_rate_pct",
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for _, u := range stats {
			row := []string{
				u.Name,
				strconv.Itoa(u.TotalSessions),
				strconv.Itoa(u.FailedSessions),
				strconv.Itoa(u.SuccessSessions),
				strconv.FormatFloat(u.FailureRate, 'f', -1, 64),
				strconv.FormatFloat(u.SuccessRate, 'f', -1, 64),
				fmt.Sprintf("%.2f%%", u.FailureRate*100),
				fmt.Sprintf("%.2f%%", u.SuccessRate*100),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}

		w.Flush()
		return w.Error()
	})
	if err != nil {
		return &RenderError{Artifact: "csv", Err: err}
	}
	return nil
}

// bucketView is the per-band slice of the HTML visualization.
type bucketView struct {
	Label    string
	Count    int
	Percent  float64
	BarWidth float64
	Members  []string
	More     int
}

// htmlData feeds the report template.
type htmlData struct {
	From        string
	To          string
	GeneratedAt string
	Summary     models.SummaryStats
	Buckets     []bucketView
	TopUsers    []models.UserFailureStats
	MoreUsers   int
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(rate float64) string {
		return fmt.Sprintf("%.1f%%", rate*100)
	},
}).Parse(reportTemplateHTML))

// RenderHTML writes the self-contained HTML visualization: summary
// header, ten-bucket distribution table, and top-failing-users table.
func (r *Renderer) RenderHTML(path string, window Window, summary models.SummaryStats,
	buckets []models.RateBucket, stats []models.UserFailureStats, generatedAt time.Time) error {

	views := make([]bucketView, 0, len(buckets))
	for _, b := range buckets {
		v := bucketView{
			Label:    b.RangeLabel,
			Count:    b.Count,
			Percent:  b.PercentOfTotal,
			BarWidth: b.PercentOfTotal,
		}
		for i, m := range b.Members {
			if i >= r.bucketDisplayLimit {
				v.More = b.Count - r.bucketDisplayLimit
				break
			}
			v.Members = append(v.Members, fmt.Sprintf("%s (%.1f%%)", m.Name, m.FailureRate*100))
		}
		views = append(views, v)
	}

	top := stats
	moreUsers := 0
	if len(top) > r.maxUsers {
		moreUsers = len(top) - r.maxUsers
		top = top[:r.maxUsers]
	}

	data := htmlData{
		From:        window.FromString(),
		To:          window.ToString(),
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Summary:     summary,
		Buckets:     views,
		TopUsers:    top,
		MoreUsers:   moreUsers,
	}

	err := writeAtomic(path, func(f *os.File) error {
		return reportTemplate.Execute(f, data)
	})
	if err != nil {
		return &RenderError{Artifact: "html", Err: err}
	}
	return nil
}

// WriteSummary persists the full analysis result as a JSON sidecar so
// cache hits can answer without re-running the analysis.
func (r *Renderer) WriteSummary(path string, result *models.AnalysisResult) error {
	err := writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	})
	if err != nil {
		return &RenderError{Artifact: "summary", Err: err}
	}
	return nil
}

// LoadSummary reads a previously persisted analysis result.
func LoadSummary(path string) (*models.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var result models.AnalysisResult
	if err := json.NewDecoder(f).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode summary sidecar: %w", err)
	}
	return &result, nil
}

const reportTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>User Failure Rates {{.From}} to {{.To}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; margin: 1rem 0; min-width: 40rem; }
th, td { border: 1px solid #d0d0e0; padding: 0.4rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #f0f0f8; }
.summary { display: flex; gap: 2rem; flex-wrap: wrap; margin: 1rem 0; }
.stat { background: #f7f7fc; border: 1px solid #e0e0ee; border-radius: 6px; padding: 0.6rem 1rem; }
.stat b { display: block; font-size: 1.2rem; }
.bar { background: #4c6ef5; height: 0.9rem; border-radius: 2px; }
.members { color: #555; font-size: 0.8rem; }
.more { color: #888; font-style: italic; }
.generated { color: #888; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>Voice Session Failure Analysis: {{.From}} to {{.To}}</h1>
<p class="generated">Generated {{.GeneratedAt}}</p>

<div class="summary">
  <div class="stat"><b>{{pct .Summary.OverallFailureRate}}</b>overall failure rate</div>
  <div class="stat"><b>{{.Summary.TotalUsers}}</b>users</div>
  <div class="stat"><b>{{.Summary.TotalSessions}}</b>sessions</div>
  <div class="stat"><b>{{.Summary.TotalFailures}}</b>failures</div>
  <div class="stat"><b>{{pct .Summary.AvgUserFailureRate}}</b>mean user rate</div>
  <div class="stat"><b>{{pct .Summary.MedianUserFailureRate}}</b>median user rate</div>
</div>

<h2>Failure Rate Distribution</h2>
<table>
<tr><th>Band</th><th>Users</th><th>% of Users</th><th></th><th>Members</th></tr>
{{range .Buckets}}
<tr>
  <td>{{.Label}}</td>
  <td>{{.Count}}</td>
  <td>{{printf "%.1f%%" .Percent}}</td>
  <td style="min-width:12rem"><div class="bar" style="width: {{printf "%.1f" .BarWidth}}%"></div></td>
  <td class="members">{{range $i, $m := .Members}}{{if $i}}, {{end}}{{$m}}{{end}}{{if .More}} <span class="more">+{{.More}} more</span>{{end}}</td>
</tr>
{{end}}
</table>

<h2>Top Failing Users</h2>
<table>
<tr><th>User</th><th>Sessions</th><th>Failed</th><th>Failure Rate</th></tr>
{{range .TopUsers}}
<tr><td>{{.Name}}</td><td>{{.TotalSessions}}</td><td>{{.FailedSessions}}</td><td>{{pct .FailureRate}}</td></tr>
{{end}}
</table>
{{if .MoreUsers}}<p class="more">...and {{.MoreUsers}} more users</p>{{end}}
</body>
</html>
`
