package job

import (
	"context"
	"sync"
	"time"

	"github.com/lepinkainen/tempotweak/config"
)

// ProgressSettings is the cadence of the simulated progress counter
type ProgressSettings struct {
	Loading  float64 // shown as soon as a job starts
	Start    float64 // first value published by the Reporter
	Ceiling  float64 // the Reporter holds here until the job ends
	Step     float64
	Finalize float64 // pushed by the controller after the encoder returns
	Interval time.Duration
}

// DefaultProgressSettings returns the 5 / 15..90 / 95 / 100 cadence
func DefaultProgressSettings() ProgressSettings {
	return ProgressSettingsFromConfig(config.Default().Progress)
}

// ProgressSettingsFromConfig copies the [progress] config section
func ProgressSettingsFromConfig(p config.Progress) ProgressSettings {
	return ProgressSettings{
		Loading:  p.Loading,
		Start:    p.Start,
		Ceiling:  p.Ceiling,
		Step:     p.Step,
		Finalize: p.Finalize,
		Interval: p.Interval.Duration,
	}
}

// ReporterState is the lifecycle of a Reporter
type ReporterState int

const (
	ReporterNotStarted ReporterState = iota
	ReporterAdvancing
	ReporterStopped
)

// Reporter is a cosmetic progress counter. It advances on wall-clock time only
// and never looks at the encoder, so on long videos it sits at the ceiling
// while ffmpeg is still far from done. Replace it rather than wiring byte or
// frame counts into it.
type Reporter struct {
	settings ProgressSettings
	// publish returns false once the job no longer accepts updates
	publish func(percent float64) bool

	mu       sync.Mutex
	state    ReporterState
	launched bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReporter creates a Reporter that sends each value to publish
func NewReporter(settings ProgressSettings, publish func(percent float64) bool) *Reporter {
	return &Reporter{
		settings: settings,
		publish:  publish,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the counter goroutine. It returns immediately.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.state != ReporterNotStarted {
		r.mu.Unlock()
		return
	}
	r.state = ReporterAdvancing
	r.launched = true
	r.mu.Unlock()

	go r.run(ctx)
}

// Stop halts the counter and waits until no further value can be published
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	launched := r.launched
	if !launched {
		r.state = ReporterStopped
	}
	r.mu.Unlock()

	if launched {
		<-r.done
	}
}

// State returns the current lifecycle state
func (r *Reporter) State() ReporterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reporter) run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.state = ReporterStopped
		r.mu.Unlock()
		close(r.done)
	}()

	ticker := time.NewTicker(r.settings.Interval)
	defer ticker.Stop()

	value := r.settings.Start
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		default:
		}

		if !r.publish(value) {
			return
		}

		if value >= r.settings.Ceiling {
			// hold until the controller ends the job
			select {
			case <-ctx.Done():
			case <-r.stop:
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
		}

		value += r.settings.Step
		if value > r.settings.Ceiling {
			value = r.settings.Ceiling
		}
	}
}
