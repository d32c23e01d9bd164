package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// Store is the in-memory pattern store. It validates and compiles pattern
// definitions at load time and publishes immutable, priority-sorted snapshots
// per kind. Snapshots are only replaced wholesale on update, so readers never
// observe a partially rebuilt set.
type Store struct {
	mu      sync.RWMutex
	byKind  map[core.PatternKind][]core.SpamPattern
	defs    map[string]core.PatternDefinition // keyed by kind + "\x00" + body
	tracker *Tracker
	logger  *zap.Logger
}

// NewStore creates an empty pattern store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		byKind:  make(map[core.PatternKind][]core.SpamPattern),
		defs:    make(map[string]core.PatternDefinition),
		tracker: NewTracker(),
		logger:  logger,
	}
}

// NewStoreWithDefaults creates a store seeded with the built-in pattern set.
func NewStoreWithDefaults(logger *zap.Logger) *Store {
	s := NewStore(logger)
	s.UpdatePatterns(DefaultPatterns())
	return s
}

// ActivePatterns returns the enabled patterns of the given kind in
// priority-ascending order. The returned slice is a shared snapshot and must
// be treated as read-only.
func (s *Store) ActivePatterns(kind core.PatternKind) []core.SpamPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byKind[kind]
}

// RecordMatch records a pattern match in the effectiveness tracker.
func (s *Store) RecordMatch(name string, elapsed time.Duration) {
	s.tracker.RecordMatch(name, elapsed)
}

// Stats returns a snapshot of pattern effectiveness counters.
func (s *Store) Stats() []PatternStats {
	return s.tracker.Snapshot()
}

// UpdatePatterns upserts pattern definitions by (body, kind) and rebuilds the
// published snapshots. Definitions that fail validation are rejected and
// logged without aborting the rest of the batch. It returns true when every
// definition in the batch was accepted.
func (s *Store) UpdatePatterns(defs []core.PatternDefinition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	allAccepted := true
	for _, def := range defs {
		if _, err := compile(def); err != nil {
			allAccepted = false
			s.logger.Warn("Rejected pattern definition",
				zap.String("pattern", def.Name),
				zap.String("kind", string(def.Kind)),
				zap.Error(err))
			continue
		}
		s.defs[patternKey(def)] = def
	}

	s.rebuildLocked()
	return allAccepted
}

// rebuildLocked recompiles every stored definition into fresh per-kind
// snapshots. Caller must hold the write lock.
func (s *Store) rebuildLocked() {
	byKind := make(map[core.PatternKind][]core.SpamPattern)
	for _, def := range s.defs {
		if !def.Enabled {
			continue
		}
		compiled, err := compile(def)
		if err != nil {
			// already validated on the way in; treat as defensive skip
			continue
		}
		byKind[def.Kind] = append(byKind[def.Kind], compiled)
	}
	for kind := range byKind {
		patterns := byKind[kind]
		sort.SliceStable(patterns, func(i, j int) bool {
			return patterns[i].Priority < patterns[j].Priority
		})
	}
	s.byKind = byKind
}

func patternKey(def core.PatternDefinition) string {
	return string(def.Kind) + "\x00" + def.Body
}

// compile validates a definition and produces its executable form.
func compile(def core.PatternDefinition) (core.SpamPattern, error) {
	if def.Body == "" {
		return core.SpamPattern{}, fmt.Errorf("empty pattern body")
	}
	if def.RiskWeight < 0 || def.RiskWeight > 100 {
		return core.SpamPattern{}, fmt.Errorf("risk weight %d outside [0,100]", def.RiskWeight)
	}

	pattern := core.SpamPattern{
		Name:          def.Name,
		Kind:          def.Kind,
		Body:          def.Body,
		CaseSensitive: def.CaseSensitive,
		WholeWord:     def.WholeWord,
		RiskWeight:    def.RiskWeight,
		Priority:      def.Priority,
	}

	switch def.Kind {
	case core.PatternRegex:
		if err := ValidateRegexShape(def.Body); err != nil {
			return core.SpamPattern{}, fmt.Errorf("unsafe pattern: %w", err)
		}
		expr := def.Body
		if def.WholeWord {
			expr = `\b(?:` + expr + `)\b`
		}
		if !def.CaseSensitive {
			expr = `(?i)` + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return core.SpamPattern{}, fmt.Errorf("invalid regex: %w", err)
		}
		pattern.Regexp = re
	case core.PatternKeyword, core.PatternPhrase:
		if !def.CaseSensitive {
			pattern.Body = strings.ToLower(def.Body)
		}
	case core.PatternStructural:
		if _, _, err := ParseStructuralRule(def.Body); err != nil {
			return core.SpamPattern{}, err
		}
	default:
		return core.SpamPattern{}, fmt.Errorf("unknown pattern kind %q", def.Kind)
	}

	return pattern, nil
}

// ParseStructuralRule splits a structural pattern body of the form
// "rule:threshold" into its rule name and numeric threshold.
func ParseStructuralRule(body string) (rule string, threshold float64, err error) {
	idx := strings.IndexRune(body, ':')
	if idx <= 0 || idx == len(body)-1 {
		return "", 0, fmt.Errorf("structural rule %q must be rule:threshold", body)
	}
	rule = body[:idx]
	if _, err := fmt.Sscanf(body[idx+1:], "%f", &threshold); err != nil {
		return "", 0, fmt.Errorf("structural rule %q has a non-numeric threshold", body)
	}
	return rule, threshold, nil
}
