package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/academiapress/platform-api/internal/models"
)

// TransactionRepository reads platform payment records.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository constructs a TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// ListCompleted returns completed transactions ordered oldest first, the
// input the revenue aggregation consumes. Only completed rows count toward
// revenue.
func (r *TransactionRepository) ListCompleted(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, user_id, amount, transaction_type, status, created_at
        FROM transactions WHERE status = $1 ORDER BY created_at ASC, id ASC`
	var transactions []models.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, models.TransactionStatusCompleted); err != nil {
		return nil, fmt.Errorf("list completed transactions: %w", err)
	}
	return transactions, nil
}
