package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medconnect/agent/internal/domain"
	"github.com/rs/zerolog/log"
)

// pgUniqueViolation is the SQLSTATE the store raises when the
// (doctor_id, appointment_time) constraint blocks a write
const pgUniqueViolation = "23505"

// QueryExecutor runs one validated candidate and reports the outcome
type QueryExecutor interface {
	Execute(ctx context.Context, candidate *domain.CandidateQuery) domain.ExecutionOutcome
}

// Executor runs validated queries inside a transaction. The store's
// uniqueness constraint is the sole double-booking guard; there is no
// availability pre-check to race against concurrent writers.
type Executor struct {
	pool    *pgxpool.Pool
	maxRows int
	timeout time.Duration
}

// NewExecutor creates a conflict-aware executor
func NewExecutor(pool *pgxpool.Pool, maxRows int, timeout time.Duration) *Executor {
	if maxRows <= 0 {
		maxRows = 100
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{pool: pool, maxRows: maxRows, timeout: timeout}
}

// Execute runs the candidate and commits or rolls back on every exit
// path. Context carries the turn deadline; an abandoned caller still
// gets a clean commit/rollback because the transaction scope is local.
func (e *Executor) Execute(ctx context.Context, candidate *domain.CandidateQuery) domain.ExecutionOutcome {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return storeError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if candidate.Intent == domain.IntentRead {
		return e.executeRead(ctx, tx, candidate.SQL)
	}
	return e.executeWrite(ctx, tx, candidate.SQL)
}

func (e *Executor) executeRead(ctx context.Context, tx pgx.Tx, sql string) domain.ExecutionOutcome {
	sql = enforceLimit(sql, e.maxRows)

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return storeError(fmt.Errorf("read query failed: %w", err))
	}
	defer rows.Close()

	columns := make([]string, len(rows.FieldDescriptions()))
	for i, fd := range rows.FieldDescriptions() {
		columns[i] = string(fd.Name)
	}

	result := &domain.RowSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return storeError(fmt.Errorf("failed to read row: %w", err))
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return storeError(fmt.Errorf("row iteration failed: %w", err))
	}
	rows.Close()

	result.RowCount = len(result.Rows)
	result.Truncated = result.RowCount >= e.maxRows

	if err := tx.Commit(ctx); err != nil {
		return storeError(fmt.Errorf("failed to commit read: %w", err))
	}
	return domain.ExecutionOutcome{Kind: domain.OutcomeRows, Rows: result}
}

func (e *Executor) executeWrite(ctx context.Context, tx pgx.Tx, sql string) domain.ExecutionOutcome {
	tag, err := tx.Exec(ctx, sql)
	if err != nil {
		return writeError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError(fmt.Errorf("failed to commit write: %w", err))
	}

	log.Info().Int64("rows_affected", tag.RowsAffected()).Msg("write committed")
	return domain.ExecutionOutcome{
		Kind:         domain.OutcomeCommitted,
		RowsAffected: tag.RowsAffected(),
	}
}

// writeError translates a failed write into an outcome. A unique
// violation is a scheduling conflict, not a store fault.
func writeError(err error) domain.ExecutionOutcome {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		log.Warn().Str("constraint", pgErr.ConstraintName).Msg("double booking blocked by store constraint")
		return domain.ExecutionOutcome{
			Kind:     domain.OutcomeConflict,
			Conflict: &domain.ConflictDetail{},
		}
	}
	return storeError(fmt.Errorf("write query failed: %w", err))
}

func storeError(err error) domain.ExecutionOutcome {
	log.Error().Err(err).Msg("store error")
	return domain.ExecutionOutcome{Kind: domain.OutcomeStoreError, Error: err.Error()}
}

// enforceLimit appends a LIMIT clause to reads that lack one
func enforceLimit(sql string, maxRows int) string {
	if strings.Contains(strings.ToUpper(sql), "LIMIT") {
		return sql
	}
	sql = strings.TrimSuffix(strings.TrimSpace(sql), ";")
	return fmt.Sprintf("%s LIMIT %d", sql, maxRows)
}
