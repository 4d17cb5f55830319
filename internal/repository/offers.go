// Package repository provides offer persistence against a PostgreSQL
// database. Every storage fault is wrapped as a database error; no method
// leaves a multi-record mutation partially applied.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/offersync/offersync/internal/models"
)

// ErrNotFound is returned when an offer does not exist for the user.
var ErrNotFound = errors.New("offer not found")

const offerColumns = `id, user_id, merchant, title, description, discount, terms, category, expiry_date, status, source, created_at, updated_at`

// PostgresOfferRepository implements offer persistence operations against a
// PostgreSQL database.
type PostgresOfferRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresOfferRepository creates a repository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresOfferRepository(db *sql.DB) *PostgresOfferRepository {
	return &PostgresOfferRepository{DB: db}
}

// GetAllByUser fetches every offer belonging to userID, without filters.
// The duplicate-aware batch create relies on this being a single query
// regardless of batch size.
func (r *PostgresOfferRepository) GetAllByUser(ctx context.Context, userID string) ([]models.StoredOffer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+offerColumns+` FROM offers WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()
	return scanOffers(rows)
}

// List fetches offers for userID matching the SQL-expressible filters:
// source, merchant substring search, and pagination, newest first. Expiry
// filtering happens above this layer since expiry dates are stored as
// source-provided text.
func (r *PostgresOfferRepository) List(ctx context.Context, userID string, f models.OfferFilters) ([]models.StoredOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE user_id = $1`
	args := []any{userID}

	if f.Source != "" {
		args = append(args, f.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND merchant ILIKE $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()
	return scanOffers(rows)
}

// GetByID fetches a single offer by ID for the given user. Returns
// ErrNotFound when no such row exists.
func (r *PostgresOfferRepository) GetByID(ctx context.Context, userID, id string) (*models.StoredOffer, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+offerColumns+` FROM offers WHERE user_id = $1 AND id = $2
	`, userID, id)

	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return o, nil
}

// InsertBatch inserts all offers within a single transaction, so an error
// leaves nothing persisted.
func (r *PostgresOfferRepository) InsertBatch(ctx context.Context, offers []models.StoredOffer) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database error: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, o := range offers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO offers (`+offerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, o.ID, o.UserID, o.Merchant, o.Title, o.Description, o.Discount,
			o.Terms, o.Category, o.ExpiryDate, o.Status, o.Source,
			o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("database error: insert offer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database error: commit: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an offer owned by userID and stamps
// updatedAt. Returns the updated row, or ErrNotFound.
func (r *PostgresOfferRepository) Update(ctx context.Context, userID, id string, o models.Offer, updatedAt string) (*models.StoredOffer, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE offers SET
			merchant = $1, title = $2, description = $3, discount = $4,
			terms = $5, category = $6, expiry_date = $7, status = $8,
			source = $9, updated_at = $10
		WHERE user_id = $11 AND id = $12
		RETURNING `+offerColumns+`
	`, o.Merchant, o.Title, o.Description, o.Discount, o.Terms, o.Category,
		o.ExpiryDate, o.Status, o.Source, updatedAt, userID, id)

	updated, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return updated, nil
}

// Delete removes one offer owned by userID. Returns ErrNotFound when the
// offer does not exist.
func (r *PostgresOfferRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM offers WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllByUser removes every offer owned by userID and returns how many
// were deleted.
func (r *PostgresOfferRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM offers WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return n, nil
}

// CountBySource counts the user's offers grouped by source string.
func (r *PostgresOfferRepository) CountBySource(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM offers WHERE user_id = $1 GROUP BY source
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("database error: scan: %w", err)
		}
		counts[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*models.StoredOffer, error) {
	var o models.StoredOffer
	err := row.Scan(&o.ID, &o.UserID, &o.Merchant, &o.Title, &o.Description,
		&o.Discount, &o.Terms, &o.Category, &o.ExpiryDate, &o.Status,
		&o.Source, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOffers(rows *sql.Rows) ([]models.StoredOffer, error) {
	var offers []models.StoredOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("database error: scan: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return offers, nil
}
