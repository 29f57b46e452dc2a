package agentdoc

import (
	"sort"
	"strings"
	"sync"
)

// ExecutionStats holds the counters of one engine. Counters only go up; they are checked
// against the configured limits after every increment.
//
// All methods are safe for concurrent use, so independent contexts executed in parallel may
// share one engine.
type ExecutionStats struct {
	mu       sync.RWMutex
	counters map[string]int64
	limits   []Limit
	exceeded *LimitExceededEvent
}

// NewExecutionStats creates stats enforcing limits.
func NewExecutionStats(limits ...Limit) *ExecutionStats {
	return &ExecutionStats{
		counters: make(map[string]int64),
		limits:   limits,
	}
}

// IncrCounter increments key by delta and reports the first limit the new value exceeds.
//
// Panics if delta is negative.
func (s *ExecutionStats) IncrCounter(key StatKey, delta int64) *LimitExceededEvent {
	if delta < 0 {
		panic("agentdoc: IncrCounter called with negative delta")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[string(key)] += delta
	if s.exceeded == nil {
		s.exceeded = s.checkLimitsLocked()
	}
	return s.exceeded
}

// GetCounter returns the current value of key, or 0.
func (s *ExecutionStats) GetCounter(key StatKey) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[string(key)]
}

// Exceeded returns the limit that stopped execution, or nil.
func (s *ExecutionStats) Exceeded() *LimitExceededEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exceeded
}

// Counters returns a copy of all counters.
func (s *ExecutionStats) Counters() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		result[k] = v
	}
	return result
}

// Keys returns the counter keys in sorted order.
func (s *ExecutionStats) Keys() []string {
	counters := s.Counters()
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetSteps returns the number of passes run across all documents.
func (s *ExecutionStats) GetSteps() int64 {
	return s.GetCounter(SCSteps)
}

// GetModelCalls returns the number of model calls across all providers.
func (s *ExecutionStats) GetModelCalls() int64 {
	return s.GetCounter(SCModelCalls)
}

func (s *ExecutionStats) checkLimitsLocked() *LimitExceededEvent {
	for _, limit := range s.limits {
		switch limit.Type {
		case LimitExactKey:
			if v := float64(s.counters[limit.Key]); v > limit.MaxValue {
				return &LimitExceededEvent{Limit: limit, Key: limit.Key, Value: v}
			}
		case LimitKeyPrefix:
			for key, count := range s.counters {
				if !strings.HasPrefix(key, limit.Key) {
					continue
				}
				if v := float64(count); v > limit.MaxValue {
					return &LimitExceededEvent{Limit: limit, Key: key, Value: v}
				}
			}
		}
	}
	return nil
}
