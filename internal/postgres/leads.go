package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrInvalidRecord is returned for a nil record or one missing its ID.
var ErrInvalidRecord = errors.New("invalid record")

const leadColumns = `id, name, email, phone, company, role, location, message, source, status,
	first_response_at, last_contact_at, conversion_date, created_at, updated_at`

// CreateLead inserts a new lead.
func (s *Store) CreateLead(ctx context.Context, lead *model.Lead) error {
	if lead == nil || lead.ID == "" {
		return fmt.Errorf("%w: lead", ErrInvalidRecord)
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = lead.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Company, lead.Role, lead.Location,
		lead.Message, lead.Source, string(lead.Status),
		lead.FirstResponseAt, lead.LastContactAt, lead.ConversionDate,
		lead.CreatedAt.UTC(), lead.UpdatedAt.UTC(),
	)
	if err != nil {
		return persistErr("failed to insert lead", err)
	}
	return nil
}

// GetLead returns a lead by ID.
func (s *Store) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		return nil, notFound("lead", id, err)
	}
	return lead, nil
}

// UpdateLead overwrites every mutable column of an existing lead.
func (s *Store) UpdateLead(ctx context.Context, lead *model.Lead) error {
	if lead == nil || lead.ID == "" {
		return fmt.Errorf("%w: lead", ErrInvalidRecord)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET
			name = $1, email = $2, phone = $3, company = $4, role = $5, location = $6, message = $7,
			source = $8, status = $9, first_response_at = $10, last_contact_at = $11,
			conversion_date = $12, updated_at = $13
		WHERE id = $14`,
		lead.Name, lead.Email, lead.Phone, lead.Company, lead.Role, lead.Location, lead.Message,
		lead.Source, string(lead.Status), lead.FirstResponseAt, lead.LastContactAt, lead.ConversionDate,
		lead.UpdatedAt.UTC(), lead.ID,
	)
	if err != nil {
		return persistErr("failed to update lead", err)
	}
	return requireRow(tag, "lead", lead.ID)
}

// ListLeads returns leads newest first.
func (s *Store) ListLeads(ctx context.Context, filter service.LeadFilter) ([]model.Lead, error) {
	var q query
	if filter.Status != "" {
		q.eq("status", string(filter.Status))
	}
	sql := q.build(`SELECT `+leadColumns+` FROM leads`, "created_at DESC, seq DESC", filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func scanLead(row pgx.Row) (*model.Lead, error) {
	var (
		lead   model.Lead
		status string
	)
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Company, &lead.Role, &lead.Location,
		&lead.Message, &lead.Source, &status,
		&lead.FirstResponseAt, &lead.LastContactAt, &lead.ConversionDate,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Status = model.LeadStatus(status)
	lead.FirstResponseAt = utcPtr(lead.FirstResponseAt)
	lead.LastContactAt = utcPtr(lead.LastContactAt)
	lead.ConversionDate = utcPtr(lead.ConversionDate)
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

// CreateProducts inserts every product interest in one batch.
func (s *Store) CreateProducts(ctx context.Context, products []model.ProductInterest) error {
	if len(products) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range products {
			if p.ID == "" || p.LeadID == "" {
				return fmt.Errorf("%w: product interest", ErrInvalidRecord)
			}
			var qty *string
			if !p.Quantity.IsZero() {
				raw := p.Quantity.Raw
				qty = &raw
			}
			batch.Queue(`
				INSERT INTO product_interests (id, lead_id, category, product, quantity, quantity_numeric, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				p.ID, p.LeadID, p.Category, p.Product, qty, p.Quantity.Numeric, p.Notes, p.CreatedAt.UTC())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return err
		}
		return persistErr("failed to insert product interests", err)
	}
	return nil
}

// ListProducts returns a lead's product interests in insertion order.
func (s *Store) ListProducts(ctx context.Context, leadID string) ([]model.ProductInterest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, category, product, quantity, quantity_numeric, notes, created_at
		FROM product_interests
		WHERE lead_id = $1
		ORDER BY created_at, seq`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product interests: %w", err)
	}
	defer rows.Close()

	var products []model.ProductInterest
	for rows.Next() {
		var (
			p   model.ProductInterest
			qty *string
		)
		if err := rows.Scan(&p.ID, &p.LeadID, &p.Category, &p.Product, &qty, &p.Quantity.Numeric, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product interest: %w", err)
		}
		if qty != nil {
			p.Quantity.Raw = *qty
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	return products, rows.Err()
}

func requireRow(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return nil
}
