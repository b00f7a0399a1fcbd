// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/stratadmin/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a periodic maintenance task. A job with Interval <= 0 runs once at
// Start. Each run gets Timeout, or timeouts.Batch() when Timeout is zero.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Status is the last known outcome of a job, as reported by /health.
type Status struct {
	Name         string     `json:"name"`
	Running      bool       `json:"running"`
	Runs         int        `json:"runs"`
	Failures     int        `json:"failures"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

// Runner executes registered jobs on their intervals until Stop.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*Status
}

// New creates a Runner with no jobs.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		status: make(map[string]*Status),
	}
}

// Register adds a job. Jobs registered after Start wait for the next Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &Status{Name: job.Name}
	r.mu.Unlock()
}

// Names lists the registered jobs in registration order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.jobs))
	for i, j := range r.jobs {
		names[i] = j.Name
	}
	return names
}

// Status returns a copy of every job's status, sorted by name.
func (r *Runner) Status() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.status))
	for _, st := range r.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start launches every registered job. The jobs keep parent's values but not
// its cancellation; Stop ends them.
func (r *Runner) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}

	r.logger.Info("background jobs started", zap.Strings("jobs", r.Names()))
}

// Stop cancels all jobs and waits for them until ctx ends, in which case it
// returns ctx.Err() and logs the jobs that were still running.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background jobs stopped")
		return nil
	case <-ctx.Done():
		var running []string
		for _, st := range r.Status() {
			if st.Running {
				running = append(running, st.Name)
			}
		}
		r.logger.Warn("background jobs did not stop in time", zap.Strings("running", running))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	_ = r.execute(ctx, job)
	if job.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.execute(ctx, job)
		}
	}
}

// execute runs job once under its time budget and records the outcome.
// Failures are logged at Warn unless the runner is stopping.
func (r *Runner) execute(ctx context.Context, job Job) error {
	budget := job.Timeout
	if budget <= 0 {
		budget = timeouts.Batch()
	}
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	r.mark(job.Name)
	start := time.Now()
	err := job.Run(runCtx)
	elapsed := time.Since(start)
	r.record(job.Name, start, elapsed, err)

	switch {
	case err == nil:
		r.logger.Debug("job completed", zap.String("job", job.Name), zap.Duration("duration", elapsed))
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled", zap.String("job", job.Name))
	default:
		r.logger.Warn("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
	}
	return err
}

func (r *Runner) mark(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.status[name]; ok {
		st.Running = true
	}
}

func (r *Runner) record(name string, start time.Time, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.status[name]
	if !ok {
		return
	}
	st.Running = false
	st.Runs++
	st.LastRun = &start
	st.LastDuration = elapsed.Round(time.Millisecond).String()
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
}

// RunOnce runs the named job now on the caller's goroutine and records it
// like a scheduled run.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return ErrUnknownJob
}
