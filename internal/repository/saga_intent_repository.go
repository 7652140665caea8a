package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Saga intent states.
const (
	IntentStarted   = "started"
	IntentCompleted = "completed"
	IntentAborted   = "aborted"
)

// SagaIntent is one row of the saga intent log. It records what a saga
// attempted and where it stopped, so a reconciliation job can detect
// dangling remote updates. ConsistencyGap is set when the abort
// happened after a remote mutation had already committed.
type SagaIntent struct {
	ID             string
	AccountNumber  string
	State          string
	Step           string
	Reason         string
	ConsistencyGap bool
	TransactionID  string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// SagaIntentRepository persists the intent log.
type SagaIntentRepository struct {
	db *sql.DB
}

func NewSagaIntentRepository(db *sql.DB) *SagaIntentRepository {
	return &SagaIntentRepository{db: db}
}

// Begin records a new intent before any remote mutation is attempted
// and returns its id.
func (r *SagaIntentRepository) Begin(ctx context.Context, accountNumber string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO saga_intents (id, account_number, state, step, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, id, accountNumber, IntentStarted, "", time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to record saga intent: %w", err)
	}
	return id, nil
}

// Step records the step the saga is about to run.
func (r *SagaIntentRepository) Step(ctx context.Context, id, step string) error {
	query := `UPDATE saga_intents SET step = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, step); err != nil {
		return fmt.Errorf("failed to record saga step: %w", err)
	}
	return nil
}

// Complete marks the intent finished with the persisted transaction id.
func (r *SagaIntentRepository) Complete(ctx context.Context, id, transactionID string) error {
	query := `
		UPDATE saga_intents
		SET state = $2, transaction_id = $3, finished_at = $4
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, IntentCompleted, transactionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to complete saga intent: %w", err)
	}
	return nil
}

// Abort marks the intent aborted at the given step. gap flags aborts
// that left remote state mutated.
func (r *SagaIntentRepository) Abort(ctx context.Context, id, step, reason string, gap bool) error {
	query := `
		UPDATE saga_intents
		SET state = $2, step = $3, reason = $4, consistency_gap = $5, finished_at = $6
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, IntentAborted, step, reason, gap, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to abort saga intent: %w", err)
	}
	return nil
}

// FindGaps lists aborted intents that left remote state mutated, for
// the reconciliation sweep.
func (r *SagaIntentRepository) FindGaps(ctx context.Context) ([]SagaIntent, error) {
	query := `
		SELECT id, account_number, state, step, reason, consistency_gap, COALESCE(transaction_id, ''), started_at, finished_at
		FROM saga_intents
		WHERE state = $1 AND consistency_gap
		ORDER BY started_at
	`
	rows, err := r.db.QueryContext(ctx, query, IntentAborted)
	if err != nil {
		return nil, fmt.Errorf("failed to list saga gaps: %w", err)
	}
	defer rows.Close()

	var intents []SagaIntent
	for rows.Next() {
		var in SagaIntent
		if err := rows.Scan(&in.ID, &in.AccountNumber, &in.State, &in.Step, &in.Reason, &in.ConsistencyGap, &in.TransactionID, &in.StartedAt, &in.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saga intent: %w", err)
		}
		intents = append(intents, in)
	}
	return intents, rows.Err()
}
