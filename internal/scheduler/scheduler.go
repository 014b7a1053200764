// Package scheduler runs a job on a fixed interval with synchronous
// start/stop control. A stop issued mid-run waits for the run to finish.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/oggyb/polysms/internal/logger"
)

// BatchProcessor is the job the scheduler runs on every tick.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) error
}

// Scheduler is the control surface exposed to the composition root.
// IsRunning reports whether ticks are accepted, not whether a run is
// in progress.
type Scheduler interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// DefaultInterval is used when no interval is configured.
const DefaultInterval = time.Minute

// DefaultRunTimeout bounds a single run when no timeout is configured.
const DefaultRunTimeout = 30 * time.Second

// controlTimeout bounds how long Start/Stop wait for the loop.
const controlTimeout = 2 * time.Second

var (
	// ErrNotResponding is returned when the control loop does not accept a command.
	ErrNotResponding = errors.New("scheduler control loop not responding")
	// ErrAckTimeout is returned when the loop accepts a command but does not confirm it.
	ErrAckTimeout = errors.New("scheduler acknowledgement timeout")
)

type controlOp int

const (
	opStart controlOp = iota
	opStop
	opStatus
)

type controlMsg struct {
	op   controlOp
	resp chan bool
}

// Option customises a scheduler.
type Option func(*scheduler)

// WithRunOnStart runs the job right after every Start instead of waiting
// for the first tick.
func WithRunOnStart() Option {
	return func(s *scheduler) { s.runOnStart = true }
}

// scheduler keeps all mutable state inside the loop goroutine.
type scheduler struct {
	job        string
	processor  BatchProcessor
	interval   time.Duration
	runTimeout time.Duration
	runOnStart bool
	ctrl       chan controlMsg
	log        zerolog.Logger
}

// New creates a scheduler for processor. job names it in logs. Non-positive
// durations fall back to the defaults.
func New(job string, processor BatchProcessor, interval, runTimeout time.Duration, opts ...Option) Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	s := &scheduler{
		job:        job,
		processor:  processor,
		interval:   interval,
		runTimeout: runTimeout,
		ctrl:       make(chan controlMsg),
	}
	for _, opt := range opts {
		opt(s)
	}
	l := logger.Component("scheduler")
	s.log = l.With().Str("job", job).Logger()

	go s.loop()

	return s
}

// Start begins accepting ticks. It returns once the loop acknowledged.
func (s *scheduler) Start() error {
	return s.send(opStart)
}

// Stop stops accepting ticks. A run in progress is waited for.
func (s *scheduler) Stop() error {
	return s.send(opStop)
}

func (s *scheduler) send(op controlOp) error {
	resp := make(chan bool, 1)

	select {
	case s.ctrl <- controlMsg{op: op, resp: resp}:
	case <-time.After(controlTimeout):
		return ErrNotResponding
	}

	// Stop may legitimately wait for a full run.
	wait := controlTimeout
	if op == opStop {
		wait += s.runTimeout
	}

	select {
	case <-resp:
		return nil
	case <-time.After(wait):
		return ErrAckTimeout
	}
}

// IsRunning reports whether new ticks will be processed.
func (s *scheduler) IsRunning() bool {
	resp := make(chan bool, 1)
	s.ctrl <- controlMsg{op: opStatus, resp: resp}
	return <-resp
}

// loop owns running/inRun and reacts to control messages and ticks.
// A run executes in its own goroutine so control messages keep flowing.
func (s *scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	running := false
	inRun := false
	done := make(chan error, 1)

	// Stop requests received mid-run, answered when the run ends.
	var pendingStops []chan bool

	trigger := func() {
		inRun = true
		s.log.Debug().Msg("run triggered")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
			defer cancel()
			done <- s.processor.ProcessBatch(ctx)
		}()
	}

	for {
		select {
		case msg := <-s.ctrl:
			switch msg.op {
			case opStart:
				if !running {
					s.log.Info().
						Dur("interval", s.interval).
						Dur("run_timeout", s.runTimeout).
						Msg("scheduler started")
					running = true
					if s.runOnStart && !inRun {
						trigger()
					}
				}
				msg.resp <- true

			case opStop:
				if running {
					s.log.Info().Bool("in_run", inRun).Msg("stop requested")
				}
				running = false
				if inRun {
					pendingStops = append(pendingStops, msg.resp)
				} else {
					msg.resp <- true
				}

			case opStatus:
				msg.resp <- running
			}

		case <-ticker.C:
			if !running || inRun {
				continue
			}
			trigger()

		case err := <-done:
			inRun = false
			if err != nil {
				s.log.Error().Err(err).Msg("run failed")
			} else {
				s.log.Debug().Msg("run completed")
			}

			for _, resp := range pendingStops {
				resp <- true
			}
			if len(pendingStops) > 0 {
				s.log.Info().Msg("scheduler stopped")
			}
			pendingStops = nil
		}
	}
}
