// Package ratelimit provides a per-client sliding window rate limiter for
// the query endpoint. State is in-memory; limits apply per process instance.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed           bool
	RequestsRemaining int
	ResetAt           time.Time
}

// Config holds rate limiter settings
type Config struct {
	// RequestsPerMinute caps requests per client key. Zero disables
	// limiting.
	RequestsPerMinute int

	// MaxClients bounds the tracking table. When exceeded, stale entries
	// are evicted before new clients are admitted.
	MaxClients int
}

// DefaultConfig returns the default limiter settings
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
	}
}

type window struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// Service implements a sliding window rate limiter keyed by client
// identifier, typically the remote IP.
type Service struct {
	cfg     Config
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time
}

// NewService creates a rate limiter
func NewService(cfg Config, logger *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// Check records a request for key and reports whether it is within the
// configured limit.
func (s *Service) Check(key string) Result {
	if s.cfg.RequestsPerMinute <= 0 {
		return Result{Allowed: true, RequestsRemaining: -1}
	}

	now := s.now()
	cutoff := now.Add(-time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.clients[key]
	if !ok {
		if len(s.clients) >= s.cfg.MaxClients {
			s.evictStale(cutoff)
		}
		if len(s.clients) >= s.cfg.MaxClients {
			// Table still full of active clients; shedding new ones
			// is safer than unbounded growth.
			s.logger.Warn("rate limiter table full, rejecting new client")
			return Result{Allowed: false, ResetAt: now.Add(time.Minute)}
		}
		w = &window{}
		s.clients[key] = w
	}

	w.lastSeen = now
	w.timestamps = trimBefore(w.timestamps, cutoff)

	if len(w.timestamps) >= s.cfg.RequestsPerMinute {
		return Result{
			Allowed:           false,
			RequestsRemaining: 0,
			ResetAt:           w.timestamps[0].Add(time.Minute),
		}
	}

	w.timestamps = append(w.timestamps, now)
	return Result{
		Allowed:           true,
		RequestsRemaining: s.cfg.RequestsPerMinute - len(w.timestamps),
		ResetAt:           w.timestamps[0].Add(time.Minute),
	}
}

// evictStale drops clients with no requests inside the current window.
// Callers must hold mu.
func (s *Service) evictStale(cutoff time.Time) {
	for key, w := range s.clients {
		if w.lastSeen.Before(cutoff) {
			delete(s.clients, key)
		}
	}
}

// trimBefore drops timestamps older than cutoff, preserving order.
func trimBefore(ts []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(ts) && ts[idx].Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return ts
	}
	return append(ts[:0], ts[idx:]...)
}

// ClientCount returns the number of tracked clients, for stats endpoints.
func (s *Service) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
