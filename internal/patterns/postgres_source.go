package patterns

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// PostgresSource loads pattern definitions from a PostgreSQL table managed by
// the pattern-authoring workflow. The source is read-only; validation and
// compilation stay in the Store.
type PostgresSource struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresSource opens a connection to the pattern database.
func NewPostgresSource(dsn string, logger *zap.Logger) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach pattern database: %w", err)
	}
	return &PostgresSource{db: db, logger: logger}, nil
}

// Load fetches every pattern definition ordered by priority.
func (s *PostgresSource) Load(ctx context.Context) ([]core.PatternDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, body, case_sensitive, whole_word, risk_weight, priority, enabled
		FROM spam_patterns
		ORDER BY priority ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var defs []core.PatternDefinition
	for rows.Next() {
		var def core.PatternDefinition
		var kind string
		if err := rows.Scan(
			&def.Name,
			&kind,
			&def.Body,
			&def.CaseSensitive,
			&def.WholeWord,
			&def.RiskWeight,
			&def.Priority,
			&def.Enabled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern row: %w", err)
		}
		def.Kind = core.PatternKind(kind)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pattern rows: %w", err)
	}

	s.logger.Info("Loaded patterns from database", zap.Int("count", len(defs)))
	return defs, nil
}

// Close closes the underlying database connection.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
