package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/lepinkainen/tempotweak/logging"
)

// Converter performs the actual frame rate conversion. Implementations must
// write outputPath only on success and should return promptly once ctx is
// cancelled, although a call already inside the external tool may not stop
// immediately.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, fps float64) error
}

// Options configures a Controller
type Options struct {
	Progress ProgressSettings
	Logger   *slog.Logger
}

// Controller owns the lifecycle of conversion jobs. At most one job runs at a
// time. Every state change is published, in order, on Events.
type Controller struct {
	converter Converter
	settings  ProgressSettings
	logger    *slog.Logger

	// capacity-1 job slot, held while a job is in StateRunning. A cancelled
	// worker may still be draining after the slot is released; the next
	// worker waits for it before converting.
	pool   *semaphore.Weighted
	queue  *eventQueue
	events chan Event

	mu      sync.Mutex
	seq     uint64
	current Snapshot
	cancel  context.CancelFunc
	release func()
	done    chan struct{}
}

// NewController creates an idle controller
func NewController(converter Converter, opts Options) *Controller {
	settings := opts.Progress
	if settings.Interval <= 0 {
		settings = DefaultProgressSettings()
	}

	c := &Controller{
		converter: converter,
		settings:  settings,
		logger:    logging.NewComponentLogger(opts.Logger, "job"),
		pool:      semaphore.NewWeighted(1),
		queue:     newEventQueue(),
		events:    make(chan Event),
		current:   Snapshot{State: StateIdle, Status: StatusReady},
	}
	go c.queue.dispatch(c.events)
	return c
}

// Events returns the ordered stream of state changes. The channel is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Snapshot returns the current job state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start validates req and launches the conversion in the background. When the
// output file already exists, overwriteConfirmed must be true. Start never
// blocks on the conversion itself and returns the new job's ID.
func (c *Controller) Start(req Request, overwriteConfirmed bool) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}

	outputPath := ResolveOutputPath(req)
	if _, err := os.Stat(outputPath); err == nil && !overwriteConfirmed {
		return "", ErrOverwriteDeclined
	}

	if !c.pool.TryAcquire(1) {
		return "", ErrJobRunning
	}

	c.mu.Lock()
	prev := c.done
	prevOutput := c.current.OutputPath
	c.mu.Unlock()

	// a cancelled worker still draining on the same output keeps its lock;
	// the new worker takes it over once that worker exits
	var lock *flock.Flock
	if !(running(prev) && prevOutput == outputPath) {
		var err error
		if lock, err = lockOutput(outputPath); err != nil {
			c.pool.Release(1)
			return "", err
		}
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { c.pool.Release(1) }) }

	c.mu.Lock()
	c.cancel = cancel
	c.release = release
	c.done = done
	c.current = Snapshot{
		JobID:      id,
		State:      StateRunning,
		Progress:   c.settings.Loading,
		Status:     StatusLoading,
		OutputPath: outputPath,
	}
	c.emitLocked()
	c.mu.Unlock()

	c.logger.Info("job started",
		slog.String("job_id", id),
		slog.String("input", req.InputPath),
		slog.String("output", outputPath),
		slog.Float64("fps", req.FPS),
		slog.Bool("overwrite", overwriteConfirmed))

	go c.run(ctx, cancel, release, id, req, outputPath, lock, prev, done)
	return id, nil
}

// Cancel stops the running job. It does nothing unless confirmed is true and a
// job is running, and reports whether the job was cancelled. The encoder is
// asked to stop but may still finish writing. A new job can be started as soon
// as Cancel returns.
func (c *Controller) Cancel(confirmed bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !confirmed || c.current.State != StateRunning {
		return false
	}

	c.current.State = StateCancelled
	c.current.Progress = 0
	c.current.Status = StatusCancelled
	c.release()
	c.emitLocked()
	c.cancel()

	c.logger.Info("job cancelled", slog.String("job_id", c.current.JobID))
	return true
}

// Wait blocks until the worker of the most recent job has exited. Workers run
// one after another, so every earlier worker has exited too.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels any running job, waits for it and closes Events once every
// pending event has been delivered.
func (c *Controller) Close() {
	c.Cancel(true)
	c.Wait()
	c.queue.close()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, release func(), id string, req Request, outputPath string, lock *flock.Flock, prev <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer release()
	defer cancel()

	logger := c.logger.With(slog.String("job_id", id))

	if prev != nil {
		<-prev
	}
	if lock == nil {
		var err error
		if lock, err = lockOutput(outputPath); err != nil {
			if c.finish(id, StateFailed, 0, StatusFailed, err) {
				logger.Error("job failed", slog.Any("error", err))
			}
			return
		}
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()
	if ctx.Err() != nil {
		return
	}

	c.publish(id, func(s *Snapshot) {
		s.Status = StatusChanging
		s.Progress = max(s.Progress, c.settings.Start)
	})
	c.publish(id, func(s *Snapshot) { s.Status = StatusProcessing })

	reporter := NewReporter(c.settings, func(percent float64) bool {
		return c.publish(id, func(s *Snapshot) {
			s.Progress = max(s.Progress, percent)
		})
	})
	reporter.Start(ctx)

	err := c.converter.Convert(ctx, req.InputPath, outputPath, req.FPS)
	reporter.Stop()

	if err != nil {
		if c.finish(id, StateFailed, 0, StatusFailed, err) {
			logger.Error("job failed", slog.Any("error", err), slog.String("detail", exitDetail(err)))
		} else {
			logger.Debug("conversion ended after cancellation", slog.Any("error", err))
		}
		return
	}

	c.publish(id, func(s *Snapshot) {
		s.Progress = max(s.Progress, c.settings.Finalize)
		s.Status = StatusFinalizing
	})
	if c.finish(id, StateCompleted, 100, StatusComplete, nil) {
		logger.Info("job completed", slog.String("output", outputPath))
	}
}

// publish applies mutate to the job's snapshot if it is still running and
// emits the result. It returns false when the job has left StateRunning.
func (c *Controller) publish(id string, mutate func(*Snapshot)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.JobID != id || c.current.State != StateRunning {
		return false
	}
	mutate(&c.current)
	c.emitLocked()
	return true
}

func (c *Controller) finish(id string, state State, progress float64, status string, err error) bool {
	return c.publish(id, func(s *Snapshot) {
		s.State = state
		s.Progress = progress
		s.Status = status
		s.Err = err
		c.release()
	})
}

// emitLocked must be called with c.mu held so queue order matches mutation order
func (c *Controller) emitLocked() {
	c.seq++
	c.queue.push(Event{
		Seq:        c.seq,
		JobID:      c.current.JobID,
		State:      c.current.State,
		Progress:   c.current.Progress,
		Status:     c.current.Status,
		OutputPath: c.current.OutputPath,
		Err:        c.current.Err,
	})
}

func lockOutput(outputPath string) (*flock.Flock, error) {
	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output %s: %w", outputPath, err)
	}
	if !locked {
		return nil, ErrOutputLocked
	}
	return lock, nil
}

// running reports whether done belongs to a worker that has not exited
func running(done <-chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func exitDetail(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("exit code %d", exitErr.ExitCode())
	}
	return ""
}

// eventQueue is an unbounded FIFO so publishers never block on a slow reader
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Event
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, ev)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *eventQueue) dispatch(out chan<- Event) {
	defer close(out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		ev := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		out <- ev
	}
}
