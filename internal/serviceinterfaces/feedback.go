package serviceinterfaces

import (
	"context"

	"feedbackboard/internal/models"
)

// FeedbackServiceInterface defines operations for the feedback board store.
type FeedbackServiceInterface interface {
	ListFeedback(ctx context.Context, filter models.FilterCriteria, userID string) ([]models.FeedbackRecord, error)
	GetFeedbackByID(ctx context.Context, id int64, userID string) (*models.FeedbackRecord, error)
	CreateFeedback(ctx context.Context, draft models.Draft) (*models.FeedbackRecord, error)
	ToggleLike(ctx context.Context, id int64, userID string) (bool, error)
	RespondToFeedback(ctx context.Context, id int64, response, responderID string) error
	UpdateStatus(ctx context.Context, id int64, status models.FeedbackStatus) error
	DeleteFeedback(ctx context.Context, id int64) error
	GetStats(ctx context.Context, userID string) (*models.FeedbackStats, error)
}
