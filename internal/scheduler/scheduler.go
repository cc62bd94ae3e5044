package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

// Minimal internal interfaces so the scheduler can be unit tested with
// small fake implementations.
type pendingDeliverer interface {
	DeliverPending(ctx context.Context) ([]domain.SendOutcome, error)
}

type reminderSweeper interface {
	Sweep(ctx context.Context) (service.ReminderStats, error)
}

// Scheduler drives two periodic jobs on one ticker: resending pending
// outbound messages every tick, and the reminder sweep on its own coarser
// cadence. Consecutive ticks where every delivery fails raise an ops alert,
// since that usually means the provider or the network is down, not one
// supplier's webhook.
type Scheduler struct {
	outbound  pendingDeliverer
	reminders reminderSweeper

	interval         time.Duration
	reminderInterval time.Duration
	alertWebhook     string
	alertThreshold   int
	lastAlertSentAt  time.Time

	// Internal state
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	// Statistics
	lastRunAt     time.Time
	lastSweepAt   time.Time
	messagesSent  int64
	remindersSent int64
	runsCount     int64

	consecutiveAllFailCount int
}

func NewScheduler(
	outbound *service.OutboundService,
	reminders *service.ReminderService,
	cfg environments.SchedulerConfig,
	reminderInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		outbound:         outbound,
		reminders:        reminders,
		interval:         cfg.Interval,
		reminderInterval: reminderInterval,
		alertWebhook:     cfg.AlertWebhook,
		alertThreshold:   cfg.AlertThreshold,
		running:          false,
	}
}

// StartWithParams restarts the loop with an operator-supplied interval.
func (s *Scheduler) StartWithParams(ctx context.Context, intervalMinutes int) error {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}

	s.mu.Lock()
	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.consecutiveAllFailCount = 0
	s.mu.Unlock()

	return s.Start(ctx)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	logger.Infof("Starting scheduler with interval: %v", s.interval)

	go s.run(ctx)

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneChan)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Infof("Scheduler running. Next execution in %v", s.interval)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
			logger.Debugf("Next execution in %v", s.interval)

		case <-s.stopChan:
			logger.Warnf("Scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Scheduler context cancelled")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	sweepDue := s.lastSweepAt.IsZero() || time.Since(s.lastSweepAt) >= s.reminderInterval
	s.mu.Unlock()

	s.deliverPending(ctx, runNumber)

	if sweepDue {
		s.sweepReminders(ctx, runNumber)
	}
}

func (s *Scheduler) deliverPending(ctx context.Context, runNumber int64) {
	outcomes, err := s.outbound.DeliverPending(ctx)
	if err != nil {
		logger.Errorf("[Run #%d] Error delivering pending messages: %v", runNumber, err)
		return
	}

	if len(outcomes) == 0 {
		logger.Debugf("[Run #%d] No pending messages", runNumber)
		return
	}

	successCount := 0
	for _, o := range outcomes {
		if o.Success {
			successCount++
		}
	}

	s.mu.Lock()
	s.messagesSent += int64(successCount)

	if successCount == 0 {
		s.consecutiveAllFailCount++
		logger.Warnf("[Run #%d] All %d deliveries failed (consecutive count: %d/%d)",
			runNumber, len(outcomes), s.consecutiveAllFailCount, s.alertThreshold)

		if s.consecutiveAllFailCount >= s.alertThreshold && s.alertThreshold > 0 && s.alertWebhook != "" {
			go s.sendAlert(s.alertWebhook, runNumber, s.consecutiveAllFailCount, len(outcomes))
		}
	} else {
		if s.consecutiveAllFailCount > 0 {
			logger.Debugf("[Run #%d] Resetting consecutive failure count (was: %d)",
				runNumber, s.consecutiveAllFailCount)
		}
		s.consecutiveAllFailCount = 0
	}
	s.mu.Unlock()

	logger.Infof("[Run #%d] Delivered %d pending messages, %d successful, %d failed",
		runNumber, len(outcomes), successCount, len(outcomes)-successCount)
}

func (s *Scheduler) sweepReminders(ctx context.Context, runNumber int64) {
	stats, err := s.reminders.Sweep(ctx)
	if err != nil {
		logger.Errorf("[Run #%d] Error sweeping reminders: %v", runNumber, err)
		return
	}

	s.mu.Lock()
	s.lastSweepAt = time.Now()
	s.remindersSent += int64(stats.Sent)
	s.mu.Unlock()

	logger.Infof("[Run #%d] Reminder sweep: %d scanned, %d sent, %d skipped, %d failed",
		runNumber, stats.Scanned, stats.Sent, stats.Skipped, stats.Failed)
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)

	// Wait for goroutine to finish
	<-doneChan

	logger.Infof("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:                 s.running,
		LastRunAt:               s.lastRunAt,
		LastSweepAt:             s.lastSweepAt,
		MessagesSent:            s.messagesSent,
		RemindersSent:           s.remindersSent,
		RunsCount:               s.runsCount,
		Interval:                s.interval,
		ConsecutiveAllFailCount: s.consecutiveAllFailCount,
		LastAlertSentAt:         s.lastAlertSentAt,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

func (s *Scheduler) sendAlert(webhookURL string, runNumber int64, consecutiveFailures, messagesInBatch int) {
	alertPayload := map[string]any{
		"alert":               "consecutive_all_fail",
		"runNumber":           runNumber,
		"consecutiveFailures": consecutiveFailures,
		"messagesInBatch":     messagesInBatch,
		"timestamp":           time.Now().Format(time.RFC3339),
		"message": fmt.Sprintf(
			"All %d supplier deliveries failed for %d consecutive runs",
			messagesInBatch,
			consecutiveFailures,
		),
	}

	jsonData, err := json.Marshal(alertPayload)
	if err != nil {
		logger.Errorf("Failed to marshal alert payload: %v", err)
		return
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warnf("Failed to close alert webhook response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		s.mu.Lock()
		s.lastAlertSentAt = time.Now()
		s.mu.Unlock()
		logger.Infof("Alert sent successfully to %s (consecutive failures: %d)", webhookURL, consecutiveFailures)
	} else {
		logger.Warnf("Alert webhook returned status %d", resp.StatusCode)
	}
}

type SchedulerStatus struct {
	Running                 bool          `json:"running"`
	LastRunAt               time.Time     `json:"lastRunAt,omitempty"`
	LastSweepAt             time.Time     `json:"lastSweepAt,omitempty"`
	NextRunAt               time.Time     `json:"nextRunAt,omitempty"`
	MessagesSent            int64         `json:"messagesSent"`
	RemindersSent           int64         `json:"remindersSent"`
	RunsCount               int64         `json:"runsCount"`
	Interval                time.Duration `json:"interval"`
	ConsecutiveAllFailCount int           `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time     `json:"lastAlertSentAt,omitempty"`
}
