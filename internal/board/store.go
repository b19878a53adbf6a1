package board

import (
	"context"

	"feedbackboard/internal/models"
)

// RemoteStore is the authoritative feedback backend. Implementations return
// contextutils.AppError values with TRANSPORT_ERROR, SERVER_ERROR or
// MALFORMED_RESPONSE codes; server messages are carried unchanged.
type RemoteStore interface {
	List(ctx context.Context, query map[string]string) ([]models.FeedbackRecord, error)
	Get(ctx context.Context, id int64) (*models.FeedbackRecord, error)
	Create(ctx context.Context, draft models.Draft) (*models.FeedbackRecord, error)
	Like(ctx context.Context, id int64) error
	Respond(ctx context.Context, id int64, text string) error
	SetStatus(ctx context.Context, id int64, status models.FeedbackStatus) error
	Delete(ctx context.Context, id int64) error
}
