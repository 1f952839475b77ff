package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/psiconnect/practice-api/internal/model"
)

type (
	// NotificationRepository is the queue contract the dispatch workers run
	// against.
	NotificationRepository interface {
		// FetchPending returns up to limit notifications queued under the
		// given delivery method whose schedule time has passed.
		FetchPending(ctx context.Context, method string, limit int) ([]*model.Notification, error)

		// Claim transitions a notification from pending to processing. It
		// returns false when the row was already claimed by another worker.
		Claim(ctx context.Context, id uuid.UUID) (bool, error)

		// UpdateStatus sets the terminal status and shallow-merges patch
		// into the stored metadata. sent_at is stamped when status is sent.
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, patch model.Metadata) error

		// ConvertDeliveryMethod reroutes a still-pending notification to
		// another delivery method, merging patch into metadata. Status is
		// left untouched.
		ConvertDeliveryMethod(ctx context.Context, id uuid.UUID, method string, patch model.Metadata) error
	}

	// TemplateRepository loads the message template set from the settings
	// store. A nil set means no override is stored and the hard-coded
	// defaults apply.
	TemplateRepository interface {
		GetTemplates(ctx context.Context) (model.TemplateSet, error)
	}
)
