package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

const leadColumns = `id, name, email, phone, company, role, location, message, source, status,
	first_response_at, last_contact_at, conversion_date, created_at, updated_at`

// CreateLead inserts a new lead.
func (s *SQLiteStorage) CreateLead(ctx context.Context, lead *model.Lead) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLead(lead); err != nil {
		return err
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = lead.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Company, lead.Role, lead.Location,
		lead.Message, lead.Source, string(lead.Status),
		nullTime(lead.FirstResponseAt), nullTime(lead.LastContactAt), nullTime(lead.ConversionDate),
		utc(lead.CreatedAt), utc(lead.UpdatedAt),
	)
	if err != nil {
		return persistErr("failed to insert lead", err)
	}
	return nil
}

// GetLead returns a lead by ID.
func (s *SQLiteStorage) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if err != nil {
		return nil, notFound("lead", id, err)
	}
	return lead, nil
}

// UpdateLead overwrites every mutable column of an existing lead.
func (s *SQLiteStorage) UpdateLead(ctx context.Context, lead *model.Lead) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLead(lead); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET
			name = ?, email = ?, phone = ?, company = ?, role = ?, location = ?, message = ?,
			source = ?, status = ?, first_response_at = ?, last_contact_at = ?, conversion_date = ?,
			updated_at = ?
		WHERE id = ?`,
		lead.Name, lead.Email, lead.Phone, lead.Company, lead.Role, lead.Location, lead.Message,
		lead.Source, string(lead.Status),
		nullTime(lead.FirstResponseAt), nullTime(lead.LastContactAt), nullTime(lead.ConversionDate),
		utc(lead.UpdatedAt), lead.ID,
	)
	if err != nil {
		return persistErr("failed to update lead", err)
	}
	return requireRow(res, "lead", lead.ID)
}

// ListLeads returns leads newest first.
func (s *SQLiteStorage) ListLeads(ctx context.Context, filter service.LeadFilter) ([]model.Lead, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func scanLead(row scanner) (*model.Lead, error) {
	var (
		lead                                       model.Lead
		phone, company, role, location, message    sql.NullString
		status                                     string
		firstResponse, lastContact, conversionDate sql.NullTime
	)
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &phone, &company, &role, &location, &message,
		&lead.Source, &status, &firstResponse, &lastContact, &conversionDate,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Phone = phone.String
	lead.Company = company.String
	lead.Role = role.String
	lead.Location = location.String
	lead.Message = message.String
	lead.Status = model.LeadStatus(status)
	lead.FirstResponseAt = timePtr(firstResponse)
	lead.LastContactAt = timePtr(lastContact)
	lead.ConversionDate = timePtr(conversionDate)
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id, sql.ErrNoRows)
	}
	return nil
}
