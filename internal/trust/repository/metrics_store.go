package repository

import (
	"context"
	"sync"

	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

// MetricsStore accumulates monotonic security counters and a bounded log of
// recent security events. Counters only ever grow; the event log keeps the
// newest entries up to its capacity.
type MetricsStore struct {
	mu          sync.RWMutex
	total       int64
	successes   int64
	failures    int64
	blocked     int64
	byErrorCode map[string]int64
	byAgent     map[string]int64
	events      []domain.SecurityEvent
	capacity    int
}

// NewMetricsStore creates a metrics store keeping at most capacity events.
func NewMetricsStore(capacity int) *MetricsStore {
	return &MetricsStore{
		byErrorCode: make(map[string]int64),
		byAgent:     make(map[string]int64),
		events:      make([]domain.SecurityEvent, 0),
		capacity:    capacity,
	}
}

// RecordSuccess counts a successful operation for the agent.
func (s *MetricsStore) RecordSuccess(ctx context.Context, agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.successes++
	if agentID != "" {
		s.byAgent[agentID]++
	}
}

// RecordFailure counts a failed operation for the agent under its error code.
func (s *MetricsStore) RecordFailure(ctx context.Context, agentID string, errorCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failures++
	s.byErrorCode[errorCode]++
	if agentID != "" {
		s.byAgent[agentID]++
	}
}

// RecordBlocked counts an operation rejected by policy before any authority
// was consulted.
func (s *MetricsStore) RecordBlocked(ctx context.Context, agentID string, errorCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.blocked++
	s.byErrorCode[errorCode]++
	if agentID != "" {
		s.byAgent[agentID]++
	}
}

// AppendEvent adds a signed security event, evicting the oldest entry when
// the log is full.
func (s *MetricsStore) AppendEvent(ctx context.Context, event domain.SecurityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.capacity {
		s.events = s.events[1:]
	}
	s.events = append(s.events, event)
}

// Snapshot returns a copy of the current counters and event log.
func (s *MetricsStore) Snapshot(ctx context.Context) *domain.SecurityMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byErrorCode := make(map[string]int64, len(s.byErrorCode))
	for code, count := range s.byErrorCode {
		byErrorCode[code] = count
	}
	byAgent := make(map[string]int64, len(s.byAgent))
	for agent, count := range s.byAgent {
		byAgent[agent] = count
	}
	events := make([]domain.SecurityEvent, len(s.events))
	copy(events, s.events)

	return &domain.SecurityMetrics{
		TotalRequests: s.total,
		Successes:     s.successes,
		Failures:      s.failures,
		Blocked:       s.blocked,
		ByErrorCode:   byErrorCode,
		ByAgent:       byAgent,
		RecentEvents:  events,
	}
}
