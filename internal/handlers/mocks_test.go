package handlers

import (
	"context"

	"feedbackboard/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockFeedbackService is a testify mock of serviceinterfaces.FeedbackServiceInterface
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) ListFeedback(ctx context.Context, filter models.FilterCriteria, userID string) ([]models.FeedbackRecord, error) {
	args := m.Called(ctx, filter, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackRecord), args.Error(1)
}

func (m *MockFeedbackService) GetFeedbackByID(ctx context.Context, id int64, userID string) (*models.FeedbackRecord, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackRecord), args.Error(1)
}

func (m *MockFeedbackService) CreateFeedback(ctx context.Context, draft models.Draft) (*models.FeedbackRecord, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackRecord), args.Error(1)
}

func (m *MockFeedbackService) ToggleLike(ctx context.Context, id int64, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFeedbackService) RespondToFeedback(ctx context.Context, id int64, response, responderID string) error {
	args := m.Called(ctx, id, response, responderID)
	return args.Error(0)
}

func (m *MockFeedbackService) UpdateStatus(ctx context.Context, id int64, status models.FeedbackStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockFeedbackService) DeleteFeedback(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeedbackService) GetStats(ctx context.Context, userID string) (*models.FeedbackStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackStats), args.Error(1)
}
