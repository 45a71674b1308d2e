package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

const activityColumns = `id, lead_id, type, status, message, actor_type, actor_id, metadata, created_at, updated_at`

// CreateActivity appends an activity. Inserting an ID that already exists is
// a no-op, so a write retried with the same ID never duplicates.
func (s *SQLiteStorage) CreateActivity(ctx context.Context, activity *model.Activity) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateActivity(activity); err != nil {
		return err
	}
	if activity.UpdatedAt.IsZero() {
		activity.UpdatedAt = activity.CreatedAt
	}

	meta, err := encodeMetadata(activity.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO lead_activity (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.LeadID, string(activity.Type), string(activity.Status), activity.Message,
		string(activity.ActorType), activity.ActorID, meta, utc(activity.CreatedAt), utc(activity.UpdatedAt),
	)
	if err != nil {
		return persistErr("failed to insert activity", err)
	}
	return nil
}

// GetActivity returns an activity by ID.
func (s *SQLiteStorage) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM lead_activity WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, notFound("activity", id, err)
	}
	return a, nil
}

// UpdateActivity rewrites an activity's status, message, actor and metadata.
func (s *SQLiteStorage) UpdateActivity(ctx context.Context, activity *model.Activity) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateActivity(activity); err != nil {
		return err
	}

	meta, err := encodeMetadata(activity.Metadata)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE lead_activity
		SET status = ?, message = ?, actor_type = ?, actor_id = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		string(activity.Status), activity.Message, string(activity.ActorType), activity.ActorID,
		meta, utc(activity.UpdatedAt), activity.ID,
	)
	if err != nil {
		return persistErr("failed to update activity", err)
	}
	return requireRow(res, "activity", activity.ID)
}

// ListActivities returns activities matching filter ordered by creation time.
func (s *SQLiteStorage) ListActivities(ctx context.Context, filter service.ActivityFilter) ([]model.Activity, error) {
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
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + activityColumns + ` FROM lead_activity`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.NewestFirst {
		query += " ORDER BY created_at DESC, rowid DESC"
	} else {
		query += " ORDER BY created_at, rowid"
	}
	query, args = paginate(query, args, filter.Limit, 0)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func scanActivity(row scanner) (*model.Activity, error) {
	var (
		a                   model.Activity
		typ, status, actor  string
		actorID             sql.NullString
		meta                string
	)
	if err := row.Scan(&a.ID, &a.LeadID, &typ, &status, &a.Message, &actor, &actorID, &meta, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	a.Type = model.ActivityType(typ)
	a.Status = model.ActivityStatus(status)
	a.ActorType = model.ActorType(actor)
	a.ActorID = actorID.String
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	decoded, err := model.DecodeMetadata(a.Type, []byte(meta))
	if err != nil {
		return nil, err
	}
	a.Metadata = decoded
	return &a, nil
}
