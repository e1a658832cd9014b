// Package maintenance runs periodic upkeep on the active workspace's
// memory store: FTS index optimization and WAL checkpointing.
package maintenance

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sentinelops/sentineld/pkg/workspace"
)

// Scheduler runs store upkeep on a cron schedule.
type Scheduler struct {
	workspaces *workspace.Manager
	schedule   string
	cron       *cron.Cron
	logger     zerolog.Logger
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	Workspaces *workspace.Manager
	Schedule   string // standard 5-field cron expression
	Logger     zerolog.Logger
}

// NewScheduler creates a maintenance scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Workspaces == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("schedule is required")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule: %w", err)
	}

	return &Scheduler{
		workspaces: cfg.Workspaces,
		schedule:   cfg.Schedule,
		cron:       cron.New(),
		logger:     cfg.Logger,
	}, nil
}

// Start schedules the maintenance job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Run); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop stops the cron runner, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}

// Run performs one maintenance pass against the active workspace. A
// missing workspace is not an error; the job simply has nothing to do.
func (s *Scheduler) Run() {
	svc := s.workspaces.Service()
	if svc == nil {
		s.logger.Debug().Msg("Maintenance skipped, no workspace set")
		return
	}

	store := svc.Store()
	if err := store.Maintain(); err != nil {
		s.logger.Error().Err(err).Msg("Store maintenance failed")
		return
	}

	stats, err := store.GetStats()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read store stats after maintenance")
		return
	}

	s.logger.Info().
		Int("totalMemories", stats.TotalCount).
		Int("withEmbeddings", stats.WithEmbeddings).
		Msg("Store maintenance completed")
}
