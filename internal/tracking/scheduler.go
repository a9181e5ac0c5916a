package tracking

import (
	"context"
	"sync"
	"time"

	"farewatch/pkg/logger"
)

// Runner is one scan pass.
type Runner interface {
	Run(ctx context.Context) (*ScanReport, error)
}

// SchedulerStatus is a snapshot for the health endpoint.
type SchedulerStatus struct {
	Interval   time.Duration `json:"interval"`
	LastRun    time.Time     `json:"last_run"`
	LastError  string        `json:"last_error,omitempty"`
	ErrorCount int           `json:"error_count"`
	Running    bool          `json:"running"`
}

// DefaultScanInterval replaces a non-positive interval.
const DefaultScanInterval = time.Hour

// Scheduler triggers the scanner on a fixed interval. A tick that arrives
// while a pass is still running is skipped.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	logger     logger.Client

	mu         sync.Mutex
	running    bool
	lastRun    time.Time
	lastError  error
	errorCount int
}

func NewScheduler(runner Runner, interval time.Duration, runOnStart bool, log logger.Client) *Scheduler {
	if interval <= 0 {
		log.Warn("scan_interval_invalid_using_default",
			logger.Field{Key: "interval", Value: interval},
			logger.Field{Key: "default", Value: DefaultScanInterval},
		)
		interval = DefaultScanInterval
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     log,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler_started", logger.Field{Key: "interval", Value: s.interval})

	var wg sync.WaitGroup
	defer wg.Wait()

	if s.runOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.trigger(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopping")
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.trigger(ctx)
			}()
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scan_tick_skipped_previous_running")
		return
	}
	s.running = true
	s.lastRun = time.Now()
	s.mu.Unlock()

	_, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.lastError = err
	if err != nil {
		s.errorCount++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled_scan_failed", logger.Err(err))
	}
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{
		Interval:   s.interval,
		LastRun:    s.lastRun,
		ErrorCount: s.errorCount,
		Running:    s.running,
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	return st
}
