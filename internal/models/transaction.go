package models

import "time"

// TransactionStatusCompleted marks transactions that count toward revenue.
const TransactionStatusCompleted = "completed"

// Transaction is a platform payment record. Completed transactions are
// immutable.
type Transaction struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Amount          float64   `db:"amount" json:"amount"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
