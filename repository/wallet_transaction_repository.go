package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// WalletTransactionRepository implements the WalletTransactionRepository interface
type WalletTransactionRepository struct {
	q queryable
}

// NewWalletTransactionRepository creates a new wallet transaction repository
func NewWalletTransactionRepository(db *database.DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: db.Pool}
}

// newWalletTransactionRepositoryWithTx creates a new wallet transaction repository with a transaction
func newWalletTransactionRepositoryWithTx(tx queryable) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: tx}
}

// Record creates a new wallet transaction entry. The journal is append-only;
// there is no update path.
func (r *WalletTransactionRepository) Record(ctx context.Context, txn *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (user_id, currency, direction, channel, amount, status, reference, prediction_id, entry_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.Currency,
		txn.Direction,
		txn.Channel,
		txn.Amount,
		txn.Status,
		txn.Reference,
		txn.PredictionID,
		txn.EntryID,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record wallet transaction for user %d: %w", txn.UserID, err)
	}

	return nil
}

// GetByReference retrieves a transaction by its idempotency key
func (r *WalletTransactionRepository) GetByReference(ctx context.Context, channel models.TransactionChannel, reference string) (*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, currency, direction, channel, amount, status, reference, prediction_id, entry_id, created_at
		FROM wallet_transactions
		WHERE channel = $1 AND reference = $2
	`

	txn, err := scanWalletTransaction(r.q.QueryRow(ctx, query, channel, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by reference %s: %w", reference, err)
	}

	return txn, nil
}

// GetByUser returns recent transactions for a user, newest first
func (r *WalletTransactionRepository) GetByUser(ctx context.Context, userID int64, currency string, limit int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, currency, direction, channel, amount, status, reference, prediction_id, entry_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1 AND currency = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, userID, currency, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txns []*models.WalletTransaction
	for rows.Next() {
		txn, err := scanWalletTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// SumNetByUser returns the journal's net effect on available plus reserved.
// Lock and release entries move funds between the two buckets and net to zero.
func (r *WalletTransactionRepository) SumNetByUser(ctx context.Context, userID int64, currency string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN channel IN ('stake_lock', 'stake_release') THEN 0
				WHEN direction = 'credit' THEN amount
				ELSE -amount
			END), 0)
		FROM wallet_transactions
		WHERE user_id = $1 AND currency = $2
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, userID, currency).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions for user %d: %w", userID, err)
	}
	return total, nil
}

func scanWalletTransaction(row pgx.Row) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Currency,
		&txn.Direction,
		&txn.Channel,
		&txn.Amount,
		&txn.Status,
		&txn.Reference,
		&txn.PredictionID,
		&txn.EntryID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
