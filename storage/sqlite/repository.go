// Package sqlite provides a SQLite-backed rule repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"rulekit/core"
	"rulekit/storage/sqlite/migrations"
)

// Repository persists rule contexts and rules in SQLite.
type Repository struct {
	sqlDB *sql.DB
}

// Open opens a SQLite rule repository at path and applies embedded migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (r *Repository) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// GetRulesByContext returns the context's rules in insertion order.
func (r *Repository) GetRulesByContext(ctx context.Context, contextID uuid.UUID) ([]core.RuleData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || r.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	exists, err := r.contextExists(ctx, r.sqlDB, contextID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrContextNotFound, contextID)
	}

	rows, err := r.sqlDB.QueryContext(
		ctx,
		`SELECT id, context_id, condition_type, condition_data, consequence_type, consequence_data
		 FROM rules
		 WHERE context_id = ?
		 ORDER BY seq`,
		contextID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := []core.RuleData{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// AddContext registers an empty context.
func (r *Repository) AddContext(ctx context.Context, contextID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := core.ValidateContextID(contextID); err != nil {
		return err
	}

	_, err := r.sqlDB.ExecContext(
		ctx,
		`INSERT INTO rule_contexts (id, created_at) VALUES (?, ?)`,
		contextID.String(),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", core.ErrContextExists, contextID)
		}
		return fmt.Errorf("add context: %w", err)
	}
	return nil
}

// AddRule stores a rule in an existing context.
func (r *Repository) AddRule(ctx context.Context, rule core.RuleData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := core.ValidateRuleData(rule); err != nil {
		return err
	}

	tx, err := r.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add rule: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := r.contextExists(ctx, tx, rule.ContextID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrContextNotFound, rule.ContextID)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO rules (
		   id,
		   context_id,
		   condition_type,
		   condition_data,
		   consequence_type,
		   consequence_data,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID.String(),
		rule.ContextID.String(),
		rule.ConditionType,
		rule.ConditionData,
		rule.ConsequenceType,
		rule.ConsequenceData,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", core.ErrRuleExists, rule.ID)
		}
		return fmt.Errorf("add rule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule. Absent ids are ignored.
func (r *Repository) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := r.sqlDB.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, ruleID.String()); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// ContextIDs returns every stored context id, oldest first.
func (r *Repository) ContextIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || r.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := r.sqlDB.QueryContext(ctx, `SELECT id FROM rule_contexts ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query contexts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse context id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contexts: %w", err)
	}
	return ids, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) contextExists(ctx context.Context, q queryer, contextID uuid.UUID) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM rule_contexts WHERE id = ?`, contextID.String()).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check context: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (core.RuleData, error) {
	var id, contextID string
	var rule core.RuleData
	if err := row.Scan(
		&id,
		&contextID,
		&rule.ConditionType,
		&rule.ConditionData,
		&rule.ConsequenceType,
		&rule.ConsequenceData,
	); err != nil {
		return core.RuleData{}, fmt.Errorf("scan rule: %w", err)
	}

	var err error
	if rule.ID, err = uuid.Parse(id); err != nil {
		return core.RuleData{}, fmt.Errorf("parse rule id %q: %w", id, err)
	}
	if rule.ContextID, err = uuid.Parse(contextID); err != nil {
		return core.RuleData{}, fmt.Errorf("parse context id %q: %w", contextID, err)
	}
	return rule, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ core.Repository = (*Repository)(nil)
