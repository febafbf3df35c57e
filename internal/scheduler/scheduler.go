package scheduler

import (
	"sync"
	"time"

	"chat-handoff-be/internal/pkg/logger"
)

// Job runs on each tick with the tick's time.
type Job func(now time.Time)

type jobSpec struct {
	name     string
	interval time.Duration
	run      Job
}

// Scheduler owns the periodic background work (presence sweep, inactivity
// reaper). It is injected rather than ambient and has an explicit start/stop
// lifecycle; no package-level timers.
type Scheduler struct {
	clock  Clock
	logger logger.ILogger

	mu      sync.Mutex
	jobs    []jobSpec
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func New(clock Clock, log logger.ILogger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: log,
	}
}

// Every registers a recurring job. Must be called before Start.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, jobSpec{name: name, interval: interval, run: job})
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})

	// Tickers are created here, not in the goroutines: once Start returns,
	// every job is guaranteed to observe the next tick.
	for _, spec := range s.jobs {
		ticker := s.clock.NewTicker(spec.interval)
		s.wg.Add(1)
		go s.runLoop(spec, ticker)
	}
}

func (s *Scheduler) runLoop(spec jobSpec, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.logger.Info("Scheduler", "Job started", map[string]interface{}{
		"job":      spec.name,
		"interval": spec.interval.String(),
	})

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C():
			spec.run(now)
		}
	}
}

// Stop halts all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler", "All jobs stopped", nil)
}
