package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"feedbackboard/internal/config"
	"feedbackboard/internal/middleware"
	"feedbackboard/internal/models"
	"feedbackboard/internal/observability"
	"feedbackboard/internal/serviceinterfaces"
	contextutils "feedbackboard/internal/utils"
)

// FeedbackHandler handles the feedback board endpoints.
type FeedbackHandler struct {
	feedbackService serviceinterfaces.FeedbackServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewFeedbackHandler creates a FeedbackHandler.
func NewFeedbackHandler(fs serviceinterfaces.FeedbackServiceInterface, cfg *config.Config, logger *observability.Logger) *FeedbackHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &FeedbackHandler{
		feedbackService: fs,
		config:          cfg,
		logger:          logger,
	}
}

// ListFeedback handles GET /api/feedback.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	filter := models.FilterCriteria{
		Type:   strings.TrimSpace(c.Query("type")),
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feedback",
		observability.AttributeTypeFilter(filter.Type),
		observability.AttributeStatusFilter(filter.Status),
		observability.AttributeSearch(filter.Search),
	)
	defer observability.FinishSpan(span, nil)

	if filter.Type != "" {
		if _, err := models.ParseType(filter.Type); err != nil {
			HandleAppError(c, badRequest(msgBadRequest, err.Error()))
			return
		}
	}
	if filter.Status != "" {
		if _, err := models.ParseStatus(filter.Status); err != nil {
			HandleAppError(c, badRequest(msgBadRequest, err.Error()))
			return
		}
	}
	if utf8.RuneCountInString(filter.Search) > h.config.Server.MaxSearchLength {
		HandleAppError(c, badRequest(msgSearchTooLong, ""))
		return
	}

	list, err := h.feedbackService.ListFeedback(ctx, filter, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error(ctx, "Failed to list feedback", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetFeedbackStats handles GET /api/feedback/stats.
func (h *FeedbackHandler) GetFeedbackStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback_stats")
	defer observability.FinishSpan(span, nil)

	stats, err := h.feedbackService.GetStats(ctx, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error(ctx, "Failed to count feedback", err)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetFeedback handles GET /api/feedback/:id.
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, nil)

	rec, err := h.feedbackService.GetFeedbackByID(ctx, id, middleware.GetUserID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CreateFeedback handles POST /api/feedback. The author is always the caller.
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_feedback")
	defer observability.FinishSpan(span, nil)

	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		HandleAppError(c, badRequest(msgBadRequest, err.Error()))
		return
	}
	draft.AuthorID = middleware.GetUserID(c)

	rec, err := h.feedbackService.CreateFeedback(ctx, draft)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// LikeFeedback handles POST /api/feedback/:id/like. A second like from the
// same user removes the first.
func (h *FeedbackHandler) LikeFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "like_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, nil)

	liked, err := h.feedbackService.ToggleLike(ctx, id, middleware.GetUserID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	message := "点赞成功"
	if !liked {
		message = "已取消点赞"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "liked": liked})
}

// UpdateFeedbackStatus handles PUT /api/feedback/:id/status.
func (h *FeedbackHandler) UpdateFeedbackStatus(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feedback_status", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, nil)

	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, badRequest(msgBadRequest, err.Error()))
		return
	}

	if err := h.feedbackService.UpdateStatus(ctx, id, req.Status); err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info(ctx, "Feedback status updated", map[string]interface{}{
		"feedback_id": id,
		"status":      string(req.Status),
		"user_id":     middleware.GetUserID(c),
	})
	c.JSON(http.StatusOK, gin.H{"message": "状态更新成功"})
}

// RespondFeedback handles POST /api/feedback/:id/respond.
func (h *FeedbackHandler) RespondFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "respond_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, nil)

	var req models.ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, badRequest(msgBadRequest, err.Error()))
		return
	}

	if err := h.feedbackService.RespondToFeedback(ctx, id, req.Response, middleware.GetUserID(c)); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "回复成功"})
}

// DeleteFeedback handles DELETE /api/feedback/:id. Authors may delete their
// own records; staff may delete any.
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, nil)

	userID := middleware.GetUserID(c)
	rec, err := h.feedbackService.GetFeedbackByID(ctx, id, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	if !rec.IsOwnedBy(userID) && !middleware.IsStaff(c) {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityWarn, msgDeleteForbidden, ""))
		return
	}

	if err := h.feedbackService.DeleteFeedback(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info(ctx, "Feedback deleted", map[string]interface{}{
		"feedback_id": id,
		"user_id":     userID,
		"role":        middleware.GetUserRole(c),
	})
	c.JSON(http.StatusOK, gin.H{"message": "反馈删除成功"})
}

// parseFeedbackID reads the :id path parameter, answering 400 when it is not
// a positive integer
func parseFeedbackID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		HandleAppError(c, badRequest(msgInvalidID, raw))
		return 0, false
	}
	return id, true
}

func badRequest(message, details string) *contextutils.AppError {
	return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, message, details)
}
