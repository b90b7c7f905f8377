package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"f1-highlights/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// ErrDisabled is returned by Start when no schedule is configured.
var ErrDisabled = errors.New("no schedule configured")

// Metrics defines the common interface for stage metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring stage execution
type AgentEvents struct {
	OnSuccess         func(stage string, metrics Metrics, duration time.Duration)
	OnPartialFailure  func(stage string, err error, duration time.Duration)
	OnCriticalFailure func(stage string, err error, duration time.Duration)
}

// MonitorEvents reports every callback to m.
func MonitorEvents(m *monitoring.Monitor) *AgentEvents {
	return &AgentEvents{
		OnSuccess: func(stage string, metrics Metrics, duration time.Duration) {
			m.RecordSuccess(stage, metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(stage string, err error, duration time.Duration) {
			m.RecordPartialFailure(stage, err, duration)
		},
		OnCriticalFailure: func(stage string, err error, duration time.Duration) {
			m.RecordCriticalFailure(stage, err, duration)
		},
	}
}

// Agent defines the interface that a scheduled job must implement
type Agent interface {
	Name() string
	Initialize(ctx context.Context) error
	RunOnce(ctx context.Context) error
}

// Scheduler runs an agent on a cron schedule
type Scheduler struct {
	schedule string
	agent    Agent
	cron     *cron.Cron
}

func New(schedule string, agent Agent) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		agent:    agent,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// Start registers the job and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	if err := s.agent.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Printf("Error running scheduled job for %s: %v", s.agent.Name(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	log.Printf("Scheduler started for %s with schedule: %s", s.agent.Name(), s.schedule)
	s.cron.Start()

	<-ctx.Done()
	log.Printf("Scheduler stopped for %s", s.agent.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	log.Printf("Starting %s run...", agentName)

	if err := s.agent.RunOnce(ctx); err != nil {
		return fmt.Errorf("%s run failed after %v: %w", agentName, time.Since(startTime), err)
	}

	log.Printf("%s run finished in %v", agentName, time.Since(startTime))
	return nil
}
