package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/leadflow/internal/model"
)

// CreateProducts inserts every product interest in one transaction.
func (s *SQLiteStorage) CreateProducts(ctx context.Context, products []model.ProductInterest) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	if err := validateProducts(products); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_interests (id, lead_id, category, product, quantity, quantity_numeric, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range products {
		var qty sql.NullString
		if !p.Quantity.IsZero() {
			qty = sql.NullString{String: p.Quantity.Raw, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.LeadID, p.Category, p.Product, qty, p.Quantity.Numeric, p.Notes, utc(p.CreatedAt),
		); err != nil {
			return persistErr("failed to insert product interest", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("failed to commit product interests", err)
	}
	return nil
}

// ListProducts returns a lead's product interests in insertion order.
func (s *SQLiteStorage) ListProducts(ctx context.Context, leadID string) ([]model.ProductInterest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(leadID, "leadID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lead_id, category, product, quantity, quantity_numeric, notes, created_at
		FROM product_interests
		WHERE lead_id = ?
		ORDER BY created_at, rowid`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product interests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.ProductInterest
	for rows.Next() {
		var (
			p     model.ProductInterest
			qty   sql.NullString
			notes sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.LeadID, &p.Category, &p.Product, &qty, &p.Quantity.Numeric, &notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product interest: %w", err)
		}
		p.Quantity.Raw = qty.String
		p.Notes = notes.String
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	return products, rows.Err()
}
