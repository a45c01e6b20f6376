// Package report renders suite results, benchmark reports, health
// statuses, and listings for the terminal. Core packages return
// structured data; all formatting lives here.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/storageprobe/storageprobe/internal/bench"
	"github.com/storageprobe/storageprobe/internal/suite"
	"github.com/storageprobe/storageprobe/pkg/types"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Renderer writes human-readable summaries. Verbose adds per-test
// detail rows.
type Renderer struct {
	w       io.Writer
	verbose bool
}

func NewRenderer(w io.Writer, verbose bool) *Renderer {
	return &Renderer{w: w, verbose: verbose}
}

func statusColor(s suite.Status) string {
	switch s {
	case suite.StatusPassed:
		return green(string(s))
	case suite.StatusError:
		return yellow(string(s))
	default:
		return red(string(s))
	}
}

// SuiteResults prints one row per provider run, plus per-test rows in
// verbose mode.
func (r *Renderer) SuiteResults(results []suite.Result) {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		bold("PROVIDER"), bold("SUITE"), bold("OVERALL"), bold("PASS RATE"), bold("ELAPSED"))
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%dms\n",
			res.Provider, res.Suite, statusColor(res.Overall), res.PassRate*100, res.ElapsedMillis)
	}
	tw.Flush()

	if !r.verbose {
		return
	}
	for _, res := range results {
		if len(res.Tests) == 0 {
			continue
		}
		fmt.Fprintf(r.w, "\n%s\n", bold(res.Provider+" / "+res.Suite))
		tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
		for _, tc := range res.Tests {
			detail := ""
			if tc.Error != "" {
				detail = tc.Error
			}
			fmt.Fprintf(tw, "  %s\t%s\t%dms\t%s\n",
				tc.Name, statusColor(tc.Status), tc.ElapsedMillis, detail)
		}
		tw.Flush()
	}
}

// BenchReport prints the samples table and the fan-out summary.
func (r *Renderer) BenchReport(rep *bench.Report) {
	fmt.Fprintf(r.w, "%s\n", bold("Benchmark: "+rep.Provider))

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		bold("OPERATION"), bold("SIZE"), bold("ELAPSED"), bold("THROUGHPUT"))
	for _, s := range rep.Samples {
		fmt.Fprintf(tw, "%s\t%s\t%dms\t%s/s\n",
			s.Operation, formatBytes(s.SizeBytes), s.ElapsedMillis, formatBytes(int64(s.ThroughputBps)))
	}
	tw.Flush()

	c := rep.Concurrent
	ratio := fmt.Sprintf("%d/%d (%.0f%%)", c.Succeeded, c.Requested, c.SuccessRatio*100)
	if c.Succeeded == c.Requested {
		ratio = green(ratio)
	} else {
		ratio = yellow(ratio)
	}
	fmt.Fprintf(r.w, "concurrent uploads: %s in %dms\n", ratio, c.ElapsedMillis)
}

// HealthStatuses prints one row per probed provider.
func (r *Renderer) HealthStatuses(statuses []types.HealthStatus) {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		bold("PROVIDER"), bold("STATUS"), bold("RESPONSE"), bold("DETAIL"))
	for _, s := range statuses {
		status := red(string(s.Status))
		if s.Healthy() {
			status = green(string(s.Status))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Provider, status, s.Response, s.Message)
	}
	tw.Flush()
}

// Listing prints an object listing page.
func (r *Renderer) Listing(page *types.ListPage) {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		bold("KEY"), bold("SIZE"), bold("MODIFIED"), bold("ETAG"))
	for _, obj := range page.Objects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			obj.Key, formatBytes(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"), obj.ETag)
	}
	tw.Flush()
	if page.IsTruncated {
		fmt.Fprintf(r.w, "... truncated, continue with token %s\n", page.ContinuationToken)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
