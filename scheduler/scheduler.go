package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
)

// DriverFactory opens a browser session for one run
type DriverFactory func() (fetcher.Driver, error)

// OrchestratorFactory builds the orchestrator for one run around its browser session
type OrchestratorFactory func(driver fetcher.Driver) *Orchestrator

// Scheduler repeats scraping runs at a fixed interval
type Scheduler struct {
	interval        time.Duration
	keywords        []string
	newDriver       DriverFactory
	newOrchestrator OrchestratorFactory
	logger          *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler (browser will be created on-demand)
func NewScheduler(interval time.Duration, keywords []string, newDriver DriverFactory, newOrchestrator OrchestratorFactory, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		interval:        interval,
		keywords:        keywords,
		newDriver:       newDriver,
		newOrchestrator: newOrchestrator,
		logger:          log,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start runs immediately, then once per interval, in a goroutine
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the current run and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(s.ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce opens a browser session, runs every keyword and closes the session
func (s *Scheduler) RunOnce(ctx context.Context) (models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return models.RunReport{}, err
	}

	// Create browser only when needed (on-demand)
	s.logger.Info("initializing browser")
	driver, err := s.newDriver()
	if err != nil {
		return models.RunReport{}, fmt.Errorf("failed to start browser: %w", err)
	}

	return s.newOrchestrator(driver).Run(ctx, s.keywords), nil
}
