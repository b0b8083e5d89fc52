package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

// GetBalance retrieves the balance for a user and currency
func (r *WalletRepository) GetBalance(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error) {
	query := `
		SELECT user_id, currency, available, reserved, total_deposited, total_withdrawn, updated_at
		FROM wallets
		WHERE user_id = $1 AND currency = $2
	`

	var balance models.WalletBalance
	err := r.q.QueryRow(ctx, query, userID, currency).Scan(
		&balance.UserID,
		&balance.Currency,
		&balance.Available,
		&balance.Reserved,
		&balance.TotalDeposited,
		&balance.TotalWithdrawn,
		&balance.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}

	return &balance, nil
}

// GetBalanceForUpdate retrieves the balance row under a row lock, creating a
// zero balance if none exists. The insert is idempotent so concurrent first
// touches of the same wallet converge on one row.
func (r *WalletRepository) GetBalanceForUpdate(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error) {
	insert := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id, currency) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID, currency); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet for user %d: %w", userID, err)
	}

	query := `
		SELECT user_id, currency, available, reserved, total_deposited, total_withdrawn, updated_at
		FROM wallets
		WHERE user_id = $1 AND currency = $2
		FOR UPDATE
	`

	var balance models.WalletBalance
	err := r.q.QueryRow(ctx, query, userID, currency).Scan(
		&balance.UserID,
		&balance.Currency,
		&balance.Available,
		&balance.Reserved,
		&balance.TotalDeposited,
		&balance.TotalWithdrawn,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance for user %d: %w", userID, err)
	}

	return &balance, nil
}

// UpdateBalance persists the mutated balance fields
func (r *WalletRepository) UpdateBalance(ctx context.Context, balance *models.WalletBalance) error {
	query := `
		UPDATE wallets
		SET available = $3, reserved = $4, total_deposited = $5, total_withdrawn = $6, updated_at = NOW()
		WHERE user_id = $1 AND currency = $2
	`

	tag, err := r.q.Exec(ctx, query,
		balance.UserID,
		balance.Currency,
		balance.Available,
		balance.Reserved,
		balance.TotalDeposited,
		balance.TotalWithdrawn,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", balance.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no wallet row for user %d currency %s", balance.UserID, balance.Currency)
	}

	return nil
}
