// Package repository persists transactions and saga intents in
// PostgreSQL. The embedded bill snapshot is stored as JSONB so the
// acquisition/product chain stays queryable.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// TransactionRepository handles all state-mutating operations for
// transactions against the PostgreSQL write store (source of truth).
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	bill, err := json.Marshal(transaction.Bill)
	if err != nil {
		return fmt.Errorf("failed to marshal bill snapshot: %w", err)
	}
	query := `
		INSERT INTO transactions (id, transaction_type, amount, description, commission, transaction_date, bill)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		transaction.ID, transaction.TransactionType, transaction.TransactionAmount,
		transaction.Description, transaction.Commission, transaction.TransactionDate, bill,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Update replaces the whole record under the given id.
func (r *TransactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	bill, err := json.Marshal(transaction.Bill)
	if err != nil {
		return fmt.Errorf("failed to marshal bill snapshot: %w", err)
	}
	query := `
		UPDATE transactions
		SET transaction_type = $2, amount = $3, description = $4, commission = $5, transaction_date = $6, bill = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		transaction.ID, transaction.TransactionType, transaction.TransactionAmount,
		transaction.Description, transaction.Commission, transaction.TransactionDate, bill,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperr.NewNotFound("transaction", transaction.ID)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperr.NewNotFound("transaction", id)
	}
	return nil
}
