package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *MockFeedbackService) {
	t.Helper()
	service := &MockFeedbackService{}
	t.Cleanup(func() { service.AssertExpectations(t) })

	router := NewRouter(config.DefaultConfig(), service, observability.NewNopLogger())
	gin.SetMode(gin.TestMode)
	return router, service
}

func doRequest(router *gin.Engine, method, path, body, userID, role string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set(config.HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(config.HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func sampleRecord(id int64, author string) *models.FeedbackRecord {
	return &models.FeedbackRecord{
		ID:        id,
		Type:      models.TypeBug,
		Title:     "Broken link",
		Content:   "The syllabus link 404s",
		Status:    models.StatusPending,
		AuthorID:  author,
		CreatedAt: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestListFeedback_PassesFilterAndUser(t *testing.T) {
	router, service := setupRouter(t)
	service.On("ListFeedback", mock.Anything,
		models.FilterCriteria{Type: "bug", Status: "pending", Search: "link"}, "anon-1").
		Return([]models.FeedbackRecord{*sampleRecord(1, "anon-1")}, nil)

	w := doRequest(router, http.MethodGet, "/api/feedback?type=bug&status=pending&search=+link+", "", "anon-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var list []models.FeedbackRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Broken link", list[0].Title)
}

func TestListFeedback_EmptyListIsArray(t *testing.T) {
	router, service := setupRouter(t)
	service.On("ListFeedback", mock.Anything, models.FilterCriteria{}, "").
		Return([]models.FeedbackRecord{}, nil)

	w := doRequest(router, http.MethodGet, "/api/feedback", "", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestListFeedback_RejectsBadFilters(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{name: "unknown type", query: "type=rant", message: msgBadRequest},
		{name: "unknown status", query: "status=archived", message: msgBadRequest},
		{name: "search too long", query: "search=" + url.QueryEscape(strings.Repeat("长", config.MaxSearchLength+1)), message: msgSearchTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/feedback?"+tt.query, "", "anon-1", "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeBody(t, w)["error"])
		})
	}
}

func TestListFeedback_ServiceFailure(t *testing.T) {
	router, service := setupRouter(t)
	service.On("ListFeedback", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	w := doRequest(router, http.MethodGet, "/api/feedback", "", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternal, decodeBody(t, w)["error"])
}

func TestGetFeedback(t *testing.T) {
	router, service := setupRouter(t)
	service.On("GetFeedbackByID", mock.Anything, int64(7), "anon-1").Return(sampleRecord(7, "anon-2"), nil)

	w := doRequest(router, http.MethodGet, "/api/feedback/7", "", "anon-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decodeBody(t, w)["id"])
}

func TestGetFeedback_InvalidID(t *testing.T) {
	router, _ := setupRouter(t)

	for _, raw := range []string{"abc", "0", "-3"} {
		w := doRequest(router, http.MethodGet, "/api/feedback/"+raw, "", "", "")

		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Equal(t, msgInvalidID, decodeBody(t, w)["error"], raw)
	}
}

func TestGetFeedback_NotFound(t *testing.T) {
	router, service := setupRouter(t)
	service.On("GetFeedbackByID", mock.Anything, int64(9), "").
		Return(nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %d not found", 9))

	w := doRequest(router, http.MethodGet, "/api/feedback/9", "", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgNotFound, decodeBody(t, w)["error"])
}

func TestCreateFeedback_AuthorIsCaller(t *testing.T) {
	router, service := setupRouter(t)
	service.On("CreateFeedback", mock.Anything, models.Draft{
		Type:     models.TypeFeature,
		Title:    "Dark mode",
		Content:  "Please",
		AuthorID: "anon-5",
	}).Return(&models.FeedbackRecord{ID: 12, Title: "Dark mode", AuthorID: "anon-5"}, nil)

	body := `{"type":"feature","title":"Dark mode","content":"Please","author_id":"someone-else"}`
	w := doRequest(router, http.MethodPost, "/api/feedback", body, "anon-5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anon-5", decodeBody(t, w)["author_id"])
}

func TestCreateFeedback_RequiresUser(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/feedback", `{"type":"bug"}`, "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateFeedback_MalformedBody(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/feedback", `{"title":`, "anon-5", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgBadRequest, decodeBody(t, w)["error"])
}

func TestCreateFeedback_ValidationMessageIsForwarded(t *testing.T) {
	router, service := setupRouter(t)
	service.On("CreateFeedback", mock.Anything, mock.Anything).
		Return(nil, contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn, "title is required", ""))

	w := doRequest(router, http.MethodPost, "/api/feedback", `{"type":"bug","content":"x"}`, "anon-5", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title is required", decodeBody(t, w)["error"])
}

func TestLikeFeedback_Toggle(t *testing.T) {
	router, service := setupRouter(t)
	service.On("ToggleLike", mock.Anything, int64(3), "anon-1").Return(true, nil).Once()
	service.On("ToggleLike", mock.Anything, int64(3), "anon-1").Return(false, nil).Once()

	w := doRequest(router, http.MethodPost, "/api/feedback/3/like", "", "anon-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "点赞成功", body["message"])
	assert.Equal(t, true, body["liked"])

	w = doRequest(router, http.MethodPost, "/api/feedback/3/like", "", "anon-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["liked"])
}

func TestRespondFeedback_StaffOnly(t *testing.T) {
	router, service := setupRouter(t)
	service.On("RespondToFeedback", mock.Anything, int64(4), "We will fix it", "t-1").Return(nil)

	w := doRequest(router, http.MethodPost, "/api/feedback/4/respond", `{"response":"We will fix it"}`, "anon-1", config.RoleStudent)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, "/api/feedback/4/respond", `{"response":"We will fix it"}`, "t-1", config.RoleTeacher)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "回复成功", decodeBody(t, w)["message"])
}

func TestUpdateFeedbackStatus(t *testing.T) {
	router, service := setupRouter(t)
	service.On("UpdateStatus", mock.Anything, int64(4), models.StatusResolved).Return(nil)

	w := doRequest(router, http.MethodPut, "/api/feedback/4/status", `{"status":"resolved"}`, "admin-1", config.RoleAdmin)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "状态更新成功", decodeBody(t, w)["message"])
}

func TestUpdateFeedbackStatus_NotFound(t *testing.T) {
	router, service := setupRouter(t)
	service.On("UpdateStatus", mock.Anything, int64(40), models.StatusClosed).
		Return(contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %d not found", 40))

	w := doRequest(router, http.MethodPut, "/api/feedback/40/status", `{"status":"closed"}`, "t-1", config.RoleTeacher)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgNotFound, decodeBody(t, w)["error"])
}

func TestDeleteFeedback_Permissions(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		role     string
		expected int
	}{
		{name: "owner", userID: "anon-1", role: config.RoleStudent, expected: http.StatusOK},
		{name: "teacher", userID: "t-1", role: config.RoleTeacher, expected: http.StatusOK},
		{name: "admin", userID: "a-1", role: config.RoleAdmin, expected: http.StatusOK},
		{name: "other student", userID: "anon-2", role: config.RoleStudent, expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := setupRouter(t)
			service.On("GetFeedbackByID", mock.Anything, int64(5), tt.userID).Return(sampleRecord(5, "anon-1"), nil)
			if tt.expected == http.StatusOK {
				service.On("DeleteFeedback", mock.Anything, int64(5)).Return(nil)
			}

			w := doRequest(router, http.MethodDelete, "/api/feedback/5", "", tt.userID, tt.role)

			require.Equal(t, tt.expected, w.Code)
			body := decodeBody(t, w)
			if tt.expected == http.StatusOK {
				assert.Equal(t, "反馈删除成功", body["message"])
			} else {
				assert.Equal(t, msgDeleteForbidden, body["error"])
				service.AssertNotCalled(t, "DeleteFeedback", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDeleteFeedback_NotFound(t *testing.T) {
	router, service := setupRouter(t)
	service.On("GetFeedbackByID", mock.Anything, int64(5), "anon-1").
		Return(nil, contextutils.ErrRecordNotFound)

	w := doRequest(router, http.MethodDelete, "/api/feedback/5", "", "anon-1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgNotFound, decodeBody(t, w)["error"])
}

func TestGetFeedbackStats(t *testing.T) {
	router, service := setupRouter(t)
	service.On("GetStats", mock.Anything, "anon-1").
		Return(&models.FeedbackStats{Total: 4, Pending: 2, Resolved: 1, Mine: 1}, nil)

	w := doRequest(router, http.MethodGet, "/api/feedback/stats", "", "anon-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.FeedbackStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, models.FeedbackStats{Total: 4, Pending: 2, Resolved: 1, Mine: 1}, stats)
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeValidationFailed))
	assert.Equal(t, http.StatusUnauthorized, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeForbidden))
	assert.Equal(t, http.StatusNotFound, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeRecordNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeDatabaseConnection))
	assert.Equal(t, http.StatusInternalServerError, mapErrorCodeToHTTPStatus(contextutils.ErrorCodeDatabaseQuery))
}
