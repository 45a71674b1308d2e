package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `id, lead_id, type, status, message, actor_type, actor_id, metadata, created_at, updated_at`

// CreateActivity appends an activity. A retried insert with the same ID is ignored.
func (s *Store) CreateActivity(ctx context.Context, activity *model.Activity) error {
	if activity == nil || activity.ID == "" || activity.LeadID == "" {
		return fmt.Errorf("%w: activity", ErrInvalidRecord)
	}
	if activity.UpdatedAt.IsZero() {
		activity.UpdatedAt = activity.CreatedAt
	}

	meta, err := encodeMetadata(activity.Metadata)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO lead_activity (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		activity.ID, activity.LeadID, string(activity.Type), string(activity.Status), activity.Message,
		string(activity.ActorType), activity.ActorID, meta, activity.CreatedAt.UTC(), activity.UpdatedAt.UTC(),
	)
	if err != nil {
		return persistErr("failed to insert activity", err)
	}
	return nil
}

// GetActivity returns an activity by ID.
func (s *Store) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM lead_activity WHERE id = $1`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, notFound("activity", id, err)
	}
	return a, nil
}

// UpdateActivity rewrites an activity's status, message, actor and metadata.
func (s *Store) UpdateActivity(ctx context.Context, activity *model.Activity) error {
	if activity == nil || activity.ID == "" {
		return fmt.Errorf("%w: activity", ErrInvalidRecord)
	}

	meta, err := encodeMetadata(activity.Metadata)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE lead_activity
		SET status = $1, message = $2, actor_type = $3, actor_id = $4, metadata = $5, updated_at = $6
		WHERE id = $7`,
		string(activity.Status), activity.Message, string(activity.ActorType), activity.ActorID,
		meta, activity.UpdatedAt.UTC(), activity.ID,
	)
	if err != nil {
		return persistErr("failed to update activity", err)
	}
	return requireRow(tag, "activity", activity.ID)
}

// ListActivities returns activities matching filter ordered by creation time.
func (s *Store) ListActivities(ctx context.Context, filter service.ActivityFilter) ([]model.Activity, error) {
	var q query
	if filter.LeadID != "" {
		q.eq("lead_id", filter.LeadID)
	}
	if filter.Type != "" {
		q.eq("type", string(filter.Type))
	}
	if filter.Status != "" {
		q.eq("status", string(filter.Status))
	}
	order := "created_at, seq"
	if filter.NewestFirst {
		order = "created_at DESC, seq DESC"
	}
	sql := q.build(`SELECT `+activityColumns+` FROM lead_activity`, order, filter.Limit, 0)

	rows, err := s.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func encodeMetadata(meta model.ActivityMetadata) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s metadata: %w", meta.ActivityType(), err)
	}
	return string(b), nil
}

func scanActivity(row pgx.Row) (*model.Activity, error) {
	var (
		a                  model.Activity
		typ, status, actor string
		meta               []byte
	)
	if err := row.Scan(&a.ID, &a.LeadID, &typ, &status, &a.Message, &actor, &a.ActorID, &meta, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	a.Type = model.ActivityType(typ)
	a.Status = model.ActivityStatus(status)
	a.ActorType = model.ActorType(actor)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	decoded, err := model.DecodeMetadata(a.Type, meta)
	if err != nil {
		return nil, err
	}
	a.Metadata = decoded
	return &a, nil
}

const assignmentColumns = `id, lead_id, owner_id, owner_name, status, assigned_at, sla_deadline,
	completed_at, sla_met, response_time_minutes`

// CreateAssignment inserts an assignment.
func (s *Store) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	if a == nil || a.ID == "" || a.LeadID == "" {
		return fmt.Errorf("%w: assignment", ErrInvalidRecord)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO assignments (`+assignmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.LeadID, a.OwnerID, a.OwnerName, string(a.Status), a.AssignedAt.UTC(), a.SLADeadline.UTC(),
		a.CompletedAt, a.SLAMet, a.ResponseTimeMinutes,
	)
	if err != nil {
		return persistErr("failed to insert assignment", err)
	}
	return nil
}

// GetAssignment returns an assignment by ID.
func (s *Store) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, notFound("assignment", id, err)
	}
	return a, nil
}

// UpdateAssignment rewrites the owner, status and completion columns.
func (s *Store) UpdateAssignment(ctx context.Context, a *model.Assignment) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: assignment", ErrInvalidRecord)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE assignments
		SET owner_id = $1, owner_name = $2, status = $3, sla_deadline = $4, completed_at = $5,
			sla_met = $6, response_time_minutes = $7
		WHERE id = $8`,
		a.OwnerID, a.OwnerName, string(a.Status), a.SLADeadline.UTC(), a.CompletedAt,
		a.SLAMet, a.ResponseTimeMinutes, a.ID,
	)
	if err != nil {
		return persistErr("failed to update assignment", err)
	}
	return requireRow(tag, "assignment", a.ID)
}

// ListAssignments returns assignments oldest first.
func (s *Store) ListAssignments(ctx context.Context, filter service.AssignmentFilter) ([]model.Assignment, error) {
	var q query
	if filter.LeadID != "" {
		q.eq("lead_id", filter.LeadID)
	}
	if filter.Status != "" {
		q.eq("status", string(filter.Status))
	}
	sql := q.build(`SELECT `+assignmentColumns+` FROM assignments`, "assigned_at, seq", 0, 0)

	rows, err := s.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

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

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var (
		a       model.Assignment
		status  string
		minutes *int32
	)
	err := row.Scan(&a.ID, &a.LeadID, &a.OwnerID, &a.OwnerName, &status, &a.AssignedAt, &a.SLADeadline,
		&a.CompletedAt, &a.SLAMet, &minutes)
	if err != nil {
		return nil, err
	}

	a.Status = model.AssignmentStatus(status)
	a.AssignedAt = a.AssignedAt.UTC()
	a.SLADeadline = a.SLADeadline.UTC()
	a.CompletedAt = utcPtr(a.CompletedAt)
	if minutes != nil {
		v := int(*minutes)
		a.ResponseTimeMinutes = &v
	}
	return &a, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
