package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/psiconnect/practice-api/internal/model"
	"github.com/psiconnect/practice-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) FetchPending(ctx context.Context, method string, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, patient_id, delivery_method, status, notification_type,
		       message, metadata, scheduled_for, sent_at, created_at, updated_at
		FROM notifications
		WHERE delivery_method = $1
		  AND status = $2
		  AND scheduled_for <= NOW()
		ORDER BY scheduled_for ASC, created_at ASC
		LIMIT $3
	`

	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, method, string(model.NotificationStatusPending), limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending notifications: %w", err)
	}
	return notifications, nil
}

// Claim is the optimistic guard against overlapping worker runs: the
// transition only succeeds while the row is still pending.
func (r *notificationRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query,
		string(model.NotificationStatusProcessing), id, string(model.NotificationStatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, patch model.Metadata) error {
	if patch == nil {
		patch = model.Metadata{}
	}

	// metadata || patch is a shallow merge: patch keys win, the rest of the
	// stored object is preserved.
	query := `
		UPDATE notifications
		SET status = $1,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
		    sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END,
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, string(status), patch, id)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (r *notificationRepository) ConvertDeliveryMethod(ctx context.Context, id uuid.UUID, method string, patch model.Metadata) error {
	if patch == nil {
		patch = model.Metadata{}
	}

	query := `
		UPDATE notifications
		SET delivery_method = $1,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, method, patch, id, string(model.NotificationStatusPending))
	if err != nil {
		return fmt.Errorf("failed to convert delivery method: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification %s not pending", id)
	}
	return nil
}
