// Package audit writes routing decisions to the compliance trail without
// blocking the query path. Entries are buffered in memory and drained by
// background workers; under sustained backpressure the newest entries are
// dropped and counted.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/repositories"
)

// Service handles asynchronous audit logging.
type Service struct {
	repo        repositories.QueryAuditRepository
	logger      *zap.Logger
	eventChan   chan *models.QueryAuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	dropped     int64
	mu          sync.Mutex
}

// Config holds configuration for the audit service.
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:  4096,
		WorkerCount: 2,
	}
}

// NewService creates an audit service. Call Start before recording.
func NewService(repo repositories.QueryAuditRepository, logger *zap.Logger, config Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.QueryAuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop drains pending entries and stops the workers. Entries still buffered
// when the timeout expires are lost.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record queues an entry without blocking. A full buffer drops the entry;
// the query path must never wait on the audit trail.
func (s *Service) Record(log *models.QueryAuditLog) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}

	select {
	case s.eventChan <- log:
		s.mu.Unlock()
	default:
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		s.logger.Warn("audit buffer full, dropping entry",
			zap.String("tier", log.Tier),
			zap.Int64("dropped_total", dropped))
	}
}

// worker processes entries from the channel.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.persist(log); err != nil {
			s.logger.Error("failed to persist audit entry",
				zap.Int("worker_id", id),
				zap.String("id", log.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *Service) persist(log *models.QueryAuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.repo.Insert(ctx, log)
}

// Stats represents audit service statistics.
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
	Dropped       int64
}

// GetStats returns statistics about the audit service.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
		Dropped:       s.dropped,
	}
}
