package repository

import (
	"context"
	"fmt"
	"time"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// EscrowLockRepository implements the EscrowLockRepository interface
type EscrowLockRepository struct {
	q queryable
}

// NewEscrowLockRepository creates a new escrow lock repository
func NewEscrowLockRepository(db *database.DB) *EscrowLockRepository {
	return &EscrowLockRepository{q: db.Pool}
}

// newEscrowLockRepositoryWithTx creates a new escrow lock repository with a transaction
func newEscrowLockRepositoryWithTx(tx queryable) *EscrowLockRepository {
	return &EscrowLockRepository{q: tx}
}

const escrowLockColumns = `id, user_id, prediction_id, amount, currency, status, reference, expires_at, created_at, resolved_at`

// Create creates a new lock
func (r *EscrowLockRepository) Create(ctx context.Context, lock *models.EscrowLock) error {
	query := `
		INSERT INTO escrow_locks (user_id, prediction_id, amount, currency, status, reference, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		lock.UserID,
		lock.PredictionID,
		lock.Amount,
		lock.Currency,
		lock.Status,
		lock.Reference,
		lock.ExpiresAt,
	).Scan(&lock.ID, &lock.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create escrow lock: %w", err)
	}

	return nil
}

// GetByID retrieves a lock by its ID
func (r *EscrowLockRepository) GetByID(ctx context.Context, id int64) (*models.EscrowLock, error) {
	query := `SELECT ` + escrowLockColumns + ` FROM escrow_locks WHERE id = $1`

	lock, err := scanEscrowLock(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow lock %d: %w", id, err)
	}
	return lock, nil
}

// GetByReference retrieves a lock by its reference
func (r *EscrowLockRepository) GetByReference(ctx context.Context, reference string) (*models.EscrowLock, error) {
	query := `SELECT ` + escrowLockColumns + ` FROM escrow_locks WHERE reference = $1`

	lock, err := scanEscrowLock(r.q.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow lock by reference %s: %w", reference, err)
	}
	return lock, nil
}

// Update persists lock status changes. The guard on the current status keeps
// terminal locks terminal even under concurrent sweeps.
func (r *EscrowLockRepository) Update(ctx context.Context, lock *models.EscrowLock) error {
	query := `
		UPDATE escrow_locks
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND (status = 'pending' OR status = $2)
	`

	tag, err := r.q.Exec(ctx, query, lock.ID, lock.Status, lock.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update escrow lock %d: %w", lock.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("escrow lock %d is no longer pending", lock.ID)
	}

	return nil
}

// SumPendingByUser returns the total amount held by pending locks for a user
func (r *EscrowLockRepository) SumPendingByUser(ctx context.Context, userID int64, currency string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM escrow_locks
		WHERE user_id = $1 AND currency = $2 AND status = 'pending'
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, userID, currency).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum pending locks for user %d: %w", userID, err)
	}
	return total, nil
}

// GetExpiredPending returns pending locks past their expiry
func (r *EscrowLockRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.EscrowLock, error) {
	query := `
		SELECT ` + escrowLockColumns + `
		FROM escrow_locks
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired locks: %w", err)
	}
	defer rows.Close()

	var locks []*models.EscrowLock
	for rows.Next() {
		lock, err := scanEscrowLock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow lock: %w", err)
		}
		locks = append(locks, lock)
	}

	return locks, rows.Err()
}

func scanEscrowLock(row pgx.Row) (*models.EscrowLock, error) {
	var lock models.EscrowLock
	err := row.Scan(
		&lock.ID,
		&lock.UserID,
		&lock.PredictionID,
		&lock.Amount,
		&lock.Currency,
		&lock.Status,
		&lock.Reference,
		&lock.ExpiresAt,
		&lock.CreatedAt,
		&lock.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lock, nil
}
