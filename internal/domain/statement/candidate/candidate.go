// Package candidate defines the canonical transaction candidate produced by
// the statement import pipeline, its classification workflow state, and the
// content fingerprint used for deduplication.
package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind categorizes the account a statement belongs to. It drives
// direction inference for single-amount formats.
type AccountKind string

const (
	KindChecking   AccountKind = "checking"
	KindSavings    AccountKind = "savings"
	KindCash       AccountKind = "cash"
	KindCreditCard AccountKind = "creditcard"
)

// FlowDirection indicates whether money entered or left the account.
type FlowDirection string

const (
	Inflow  FlowDirection = "inflow"
	Outflow FlowDirection = "outflow"
)

// Status tracks a candidate through the classification workflow.
// Duplicate is terminal: it is only set by duplicate resolution and is
// never user-editable.
type Status string

const (
	StatusPending        Status = "pending"
	StatusRecognized     Status = "recognized"
	StatusUserClassified Status = "user_classified"
	StatusDuplicate      Status = "duplicate"
)

// Assignment holds the user-facing classification of a candidate and its
// participation in the commit. Subcategories are scoped to a category.
type Assignment struct {
	CategoryID      uuid.UUID
	SubcategoryID   uuid.UUID
	PaymentMethodID uuid.UUID
	Selected        bool
}

// Complete reports whether all three classification fields are set.
func (a Assignment) Complete() bool {
	return a.CategoryID != uuid.Nil && a.SubcategoryID != uuid.Nil && a.PaymentMethodID != uuid.Nil
}

// Candidate is a normalized statement row ready for deduplication and
// classification. Amount is always non-negative; Direction carries the sign.
type Candidate struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	AccountKind AccountKind

	OccurredAt  time.Time
	HasTime     bool // true when the source carried a time-of-day
	Amount      decimal.Decimal
	Direction   FlowDirection
	Description string
	Identifier  string // source-supplied reference, display only
	RowIndex    int    // position in the source file, for diagnostics

	Fingerprint string
	Status      Status
	Assignment  Assignment
}

// fingerprintLayout is the fixed, UTC date-time layout hashed into the
// fingerprint. Time-of-day is preserved: two otherwise identical
// transactions at different times must not collide.
const fingerprintLayout = "2006-01-02T15:04:05"

// Fingerprint derives the deduplication key from the full normalized
// date-with-time, the full trimmed description, and the amount rounded to
// two decimals. Source-supplied identifiers are deliberately excluded: a
// counterparty document number can legitimately repeat across distinct
// transactions.
func Fingerprint(occurredAt time.Time, description string, amount decimal.Decimal) string {
	data := fmt.Sprintf("%s_%s_%s",
		occurredAt.UTC().Format(fingerprintLayout),
		description,
		amount.StringFixed(2),
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// ComputeFingerprint fills in the candidate's fingerprint from its content.
func (c *Candidate) ComputeFingerprint() {
	c.Fingerprint = Fingerprint(c.OccurredAt, c.Description, c.Amount)
}
