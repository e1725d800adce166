// Package batch runs many independent pipeline jobs on a worker pool.
package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"meshpose/internal/logging"
	"meshpose/internal/pipeline"
	"meshpose/internal/reconstruct"
)

// Config holds the resources shared by every job of a batch run.
type Config struct {
	Reconstructor reconstruct.Reconstructor
	Options       pipeline.Options
	Workers       int
	Progress      time.Duration // progress log interval, 0 means 2s
}

// Result holds the outcome of one job.
type Result struct {
	Index   int     `json:"index"`
	Image   string  `json:"image"`
	GLB     string  `json:"glb"`
	Info    string  `json:"info,omitempty"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Seconds float64 `json:"seconds"`
}

// Run processes all jobs and returns one result per job, in job order.
// Jobs without an info path get one next to their GLB so records never
// interleave on stdout. Once ctx is done, unstarted jobs fail with its error.
func Run(ctx context.Context, cfg Config, jobs []pipeline.Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	logger := cfg.Options.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	interval := cfg.Progress
	if interval <= 0 {
		interval = 2 * time.Second
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logger.Info("progress", "done", p, "total", total, "jobs_per_sec", rate)
				}
			}
		}
	}()

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, logger.With("job", idx), idx, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	next := 0
send:
	for ; next < total; next++ {
		select {
		case jobChan <- next:
		case <-ctx.Done():
			break send
		}
	}
	close(jobChan)
	wg.Wait()
	close(done)

	for i := next; i < total; i++ {
		results[i] = newResult(i, withInfo(jobs[i]))
		results[i].Error = ctx.Err().Error()
	}

	logger.Info("batch finished", "total", total, "failed", Failed(results),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return results
}

func processJob(ctx context.Context, cfg Config, logger *slog.Logger, idx int, job pipeline.Job) Result {
	job = withInfo(job)
	res := newResult(idx, job)
	start := time.Now()

	opts := cfg.Options
	opts.Logger = logger
	_, err := pipeline.Run(ctx, job, cfg.Reconstructor, opts)
	res.Seconds = time.Since(start).Seconds()
	if err != nil {
		logger.Error("job failed", "error", err)
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func newResult(idx int, job pipeline.Job) Result {
	return Result{Index: idx, Image: job.Image, GLB: job.GLB, Info: job.Info}
}

// withInfo defaults the record path to the GLB path with a .json extension.
func withInfo(job pipeline.Job) pipeline.Job {
	if job.Info == "" && job.GLB != "" {
		job.Info = strings.TrimSuffix(job.GLB, filepath.Ext(job.GLB)) + ".json"
	}
	return job
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
