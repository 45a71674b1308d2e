package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

const assignmentColumns = `id, lead_id, owner_id, owner_name, status, assigned_at, sla_deadline,
	completed_at, sla_met, response_time_minutes`

// CreateAssignment inserts an assignment.
func (s *SQLiteStorage) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssignment(a); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (`+assignmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.LeadID, a.OwnerID, a.OwnerName, string(a.Status), utc(a.AssignedAt), utc(a.SLADeadline),
		nullTime(a.CompletedAt), nullBool(a.SLAMet), nullInt(a.ResponseTimeMinutes),
	)
	if err != nil {
		return persistErr("failed to insert assignment", err)
	}
	return nil
}

// GetAssignment returns an assignment by ID.
func (s *SQLiteStorage) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, notFound("assignment", id, err)
	}
	return a, nil
}

// UpdateAssignment rewrites the owner, status and completion columns.
func (s *SQLiteStorage) UpdateAssignment(ctx context.Context, a *model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssignment(a); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE assignments
		SET owner_id = ?, owner_name = ?, status = ?, sla_deadline = ?, completed_at = ?,
			sla_met = ?, response_time_minutes = ?
		WHERE id = ?`,
		a.OwnerID, a.OwnerName, string(a.Status), utc(a.SLADeadline), nullTime(a.CompletedAt),
		nullBool(a.SLAMet), nullInt(a.ResponseTimeMinutes), a.ID,
	)
	if err != nil {
		return persistErr("failed to update assignment", err)
	}
	return requireRow(res, "assignment", a.ID)
}

// ListAssignments returns assignments oldest first.
func (s *SQLiteStorage) ListAssignments(ctx context.Context, filter service.AssignmentFilter) ([]model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.LeadID != "" {
		where = append(where, "lead_id = ?")
		args = append(args, filter.LeadID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY assigned_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row scanner) (*model.Assignment, error) {
	var (
		a         model.Assignment
		status    string
		completed sql.NullTime
		met       sql.NullBool
		minutes   sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.LeadID, &a.OwnerID, &a.OwnerName, &status, &a.AssignedAt, &a.SLADeadline,
		&completed, &met, &minutes)
	if err != nil {
		return nil, err
	}

	a.Status = model.AssignmentStatus(status)
	a.AssignedAt = a.AssignedAt.UTC()
	a.SLADeadline = a.SLADeadline.UTC()
	a.CompletedAt = timePtr(completed)
	if met.Valid {
		v := met.Bool
		a.SLAMet = &v
	}
	if minutes.Valid {
		v := int(minutes.Int64)
		a.ResponseTimeMinutes = &v
	}
	return &a, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
