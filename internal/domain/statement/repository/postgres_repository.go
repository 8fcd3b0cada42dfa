package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresRepository implements LedgerStore and CategoryDirectory against
// PostgreSQL.
type PostgresRepository struct {
	pgpool PgxPool
}

// NewPostgresRepository creates a PostgreSQL-backed repository.
func NewPostgresRepository(pgpool PgxPool) *PostgresRepository {
	return &PostgresRepository{pgpool: pgpool}
}

var (
	_ LedgerStore       = (*PostgresRepository)(nil)
	_ CategoryDirectory = (*PostgresRepository)(nil)
)

const queryFingerprintsQuery = `
	SELECT fingerprint
	FROM transactions
	WHERE account_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
`

// QueryFingerprints returns the fingerprints already persisted for the
// account within the date range.
func (r *PostgresRepository) QueryFingerprints(ctx context.Context, accountID uuid.UUID, from, to time.Time) (map[string]struct{}, error) {
	rows, err := r.pgpool.Query(ctx, queryFingerprintsQuery, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fingerprints: %w", err)
	}

	return fingerprints, nil
}

const insertTransactionQuery = `
	INSERT INTO transactions (
		id, account_id, occurred_at, description, amount, direction,
		category_id, subcategory_id, payment_method_id, fingerprint
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// InsertTransaction persists one transaction. Each call stands alone: a
// failure does not roll back rows already inserted for the same batch.
func (r *PostgresRepository) InsertTransaction(ctx context.Context, tx *Transaction) (uuid.UUID, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	_, err := r.pgpool.Exec(ctx, insertTransactionQuery,
		tx.ID, tx.AccountID, tx.OccurredAt, tx.Description, tx.Amount.String(),
		string(tx.Direction), tx.CategoryID, tx.SubcategoryID, tx.PaymentMethodID,
		tx.Fingerprint,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return tx.ID, nil
}

const listCategoriesQuery = `
	SELECT id, name, flow
	FROM categories
	WHERE flow = $1
	ORDER BY name
`

// ListCategories returns the categories usable for the given flow direction.
func (r *PostgresRepository) ListCategories(ctx context.Context, flow candidate.FlowDirection) ([]*Category, error) {
	rows, err := r.pgpool.Query(ctx, listCategoriesQuery, string(flow))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		var flowStr string
		if err := rows.Scan(&c.ID, &c.Name, &flowStr); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Flow = candidate.FlowDirection(flowStr)
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	return categories, nil
}

const listSubcategoriesQuery = `
	SELECT id, category_id, name
	FROM subcategories
	WHERE category_id = $1
	ORDER BY name
`

// ListSubcategories returns the subcategories scoped to a category.
func (r *PostgresRepository) ListSubcategories(ctx context.Context, categoryID uuid.UUID) ([]*Subcategory, error) {
	rows, err := r.pgpool.Query(ctx, listSubcategoriesQuery, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []*Subcategory
	for rows.Next() {
		var s Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subcategories = append(subcategories, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subcategories: %w", err)
	}

	return subcategories, nil
}

const listPaymentMethodsQuery = `
	SELECT id, name
	FROM payment_methods
	ORDER BY name
`

// ListPaymentMethods returns all payment methods.
func (r *PostgresRepository) ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	rows, err := r.pgpool.Query(ctx, listPaymentMethodsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*PaymentMethod
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payment methods: %w", err)
	}

	return methods, nil
}
