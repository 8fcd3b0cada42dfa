// Package repository defines the external persistence boundaries consumed by
// the import pipeline: the ledger store committed transactions go to, and the
// read-only category/payment-method directories that populate classification
// options.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
)

// Transaction is a committed ledger row.
type Transaction struct {
	ID              uuid.UUID               `db:"id"`
	AccountID       uuid.UUID               `db:"account_id"`
	OccurredAt      time.Time               `db:"occurred_at"`
	Description     string                  `db:"description"`
	Amount          decimal.Decimal         `db:"amount"`
	Direction       candidate.FlowDirection `db:"direction"`
	CategoryID      uuid.UUID               `db:"category_id"`
	SubcategoryID   uuid.UUID               `db:"subcategory_id"`
	PaymentMethodID uuid.UUID               `db:"payment_method_id"`
	Fingerprint     string                  `db:"fingerprint"`
	CreatedAt       time.Time               `db:"created_at"`
}

// Category is a top-level classification option, scoped to a flow direction.
type Category struct {
	ID   uuid.UUID               `db:"id"`
	Name string                  `db:"name"`
	Flow candidate.FlowDirection `db:"flow"`
}

// Subcategory is a classification option scoped to its parent category.
type Subcategory struct {
	ID         uuid.UUID `db:"id"`
	CategoryID uuid.UUID `db:"category_id"`
	Name       string    `db:"name"`
}

// PaymentMethod is a classification option for how a transaction was paid.
type PaymentMethod struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

// LedgerStore is the persistence boundary the pipeline commits through.
// Inserts are row-by-row, never wrapped in a cross-row transaction.
type LedgerStore interface {
	// QueryFingerprints returns the fingerprints of transactions already
	// persisted for the account within the date range (inclusive).
	QueryFingerprints(ctx context.Context, accountID uuid.UUID, from, to time.Time) (map[string]struct{}, error)
	// InsertTransaction persists one transaction and returns its id.
	InsertTransaction(ctx context.Context, tx *Transaction) (uuid.UUID, error)
}

// CategoryDirectory exposes the read-only classification directories.
type CategoryDirectory interface {
	ListCategories(ctx context.Context, flow candidate.FlowDirection) ([]*Category, error)
	ListSubcategories(ctx context.Context, categoryID uuid.UUID) ([]*Subcategory, error)
	ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error)
}
