package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
	txredis "github.com/orlandoKuanDev/ms-transaction-bank/internal/redis"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionReadRepository handles all read operations for
// transactions. Single-record lookups try Redis first and fall back to
// PostgreSQL on a miss; list queries always hit PostgreSQL.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *txredis.ViewCache[models.Transaction]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: txredis.NewViewCache[models.Transaction](redisClient, 0, logger),
	}
}

const selectColumns = `id, transaction_type, amount, description, commission, transaction_date, bill`

func scanTransaction(scan func(dest ...any) error) (*models.Transaction, error) {
	var t models.Transaction
	var bill []byte
	if err := scan(&t.ID, &t.TransactionType, &t.TransactionAmount, &t.Description, &t.Commission, &t.TransactionDate, &bill); err != nil {
		return nil, err
	}
	if len(bill) > 0 {
		if err := json.Unmarshal(bill, &t.Bill); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bill snapshot: %w", err)
		}
	}
	return &t, nil
}

// GetByID returns a transaction by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	cacheKey := transactionViewKeyPrefix + id
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, selectColumns)
	row := r.db.QueryRowContext(ctx, query, id)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperr.NewNotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	r.CacheTransaction(ctx, t)
	return t, nil
}

// FindAll returns every stored transaction in storage order.
func (r *TransactionReadRepository) FindAll(ctx context.Context) ([]models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions ORDER BY stored_at`, selectColumns)
	return r.queryList(ctx, query)
}

// FindByDateBetween returns transactions with timestamp in [from, to),
// preserving storage order within the window.
func (r *TransactionReadRepository) FindByDateBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_date >= $1 AND transaction_date < $2
		ORDER BY stored_at
	`, selectColumns)
	return r.queryList(ctx, query, from, to)
}

// FindByProductName returns transactions whose embedded acquisition
// carries the given product.
func (r *TransactionReadRepository) FindByProductName(ctx context.Context, productName string) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE bill -> 'acquisition' -> 'product' ->> 'productName' = $1
		ORDER BY stored_at
	`, selectColumns)
	return r.queryList(ctx, query, productName)
}

// FindByBillAccountNumber returns transactions recorded against the
// given account.
func (r *TransactionReadRepository) FindByBillAccountNumber(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE bill ->> 'accountNumber' = $1
		ORDER BY stored_at
	`, selectColumns)
	return r.queryList(ctx, query, accountNumber)
}

func (r *TransactionReadRepository) queryList(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// CacheTransaction stores the read model for a transaction in Redis.
// Called by the saga immediately after a successful create.
func (r *TransactionReadRepository) CacheTransaction(ctx context.Context, t *models.Transaction) {
	r.cache.Set(ctx, transactionViewKeyPrefix+t.ID, t)
}

// EvictTransaction drops a cached read model, used after update/delete.
func (r *TransactionReadRepository) EvictTransaction(ctx context.Context, id string) {
	r.cache.Delete(ctx, transactionViewKeyPrefix+id)
}
