// Package ratelimit provides per-identifier submission counting across
// multiple fixed windows. Both backends implement the same contract: every
// configured window is checked before any counter is incremented, and an
// empty identifier fails open so anonymous submissions are never blocked by
// the limiter itself.
package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// Rule defines one rate-limit window: a name, the maximum count allowed, and
// the window duration.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// windowState tracks one window's counter for one identifier.
type windowState struct {
	count       int64
	windowStart time.Time
}

// MemoryLimiter is the in-process rate limiter. A single mutex guards the
// counter map so check-then-increment is atomic per call; contention is
// acceptable because the critical section only touches a handful of counters.
type MemoryLimiter struct {
	mu             sync.Mutex
	rules          []Rule
	authMultiplier float64
	entries        map[string][]windowState
	logger         *zap.Logger
	cleanupFreq    time.Duration
	stopCh         chan struct{}
}

// NewMemoryLimiter creates an in-memory limiter with the given rules. Rules
// are sorted by window length so usage reporting is stable. A background task
// evicts identifiers idle for longer than their largest window.
func NewMemoryLimiter(rules []Rule, authMultiplier float64, logger *zap.Logger) *MemoryLimiter {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Window < sorted[j].Window })

	l := &MemoryLimiter{
		rules:          sorted,
		authMultiplier: authMultiplier,
		entries:        make(map[string][]windowState),
		logger:         logger,
		cleanupFreq:    time.Minute,
		stopCh:         make(chan struct{}),
	}
	go l.startCleanupTask()
	return l
}

// CheckAndIncrement checks every window for the identifier before
// incrementing any of them. When a window is already at its limit nothing is
// incremented and allowed is false. An empty identifier fails open.
func (l *MemoryLimiter) CheckAndIncrement(ctx context.Context, identifier string, authenticated bool) (bool, []core.WindowUsage, error) {
	if identifier == "" || len(l.rules) == 0 {
		return true, nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	states, ok := l.entries[identifier]
	if !ok {
		states = make([]windowState, len(l.rules))
		for i := range states {
			states[i].windowStart = now
		}
		l.entries[identifier] = states
	}

	// Reset any window whose boundary has passed.
	for i, rule := range l.rules {
		if now.Sub(states[i].windowStart) >= rule.Window {
			states[i].count = 0
			states[i].windowStart = now
		}
	}

	// Check all windows before touching any counter.
	allowed := true
	for i, rule := range l.rules {
		if states[i].count >= int64(l.effectiveLimit(rule, authenticated)) {
			allowed = false
			break
		}
	}

	if allowed {
		for i := range states {
			states[i].count++
		}
	}

	usage := make([]core.WindowUsage, len(l.rules))
	for i, rule := range l.rules {
		usage[i] = core.WindowUsage{
			Name:   rule.Name,
			Count:  states[i].count,
			Limit:  l.effectiveLimit(rule, authenticated),
			Window: rule.Window,
		}
	}
	return allowed, usage, nil
}

// effectiveLimit applies the authenticated-identifier multiplier to a rule.
func (l *MemoryLimiter) effectiveLimit(rule Rule, authenticated bool) int {
	if authenticated && l.authMultiplier > 1 {
		return int(float64(rule.Limit) * l.authMultiplier)
	}
	return rule.Limit
}

// Cleanup removes identifiers whose newest window activity is older than the
// largest configured window.
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.rules) == 0 {
		return
	}
	maxWindow := l.rules[len(l.rules)-1].Window
	now := time.Now()
	for id, states := range l.entries {
		stale := true
		for _, ws := range states {
			if now.Sub(ws.windowStart) <= maxWindow {
				stale = false
				break
			}
		}
		if stale {
			delete(l.entries, id)
		}
	}
}

// startCleanupTask periodically evicts stale identifier state.
func (l *MemoryLimiter) startCleanupTask() {
	ticker := time.NewTicker(l.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (l *MemoryLimiter) Stop() {
	close(l.stopCh)
}
