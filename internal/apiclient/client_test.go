package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
	contextutils "feedbackboard/internal/utils"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://board.test"

func setupClient(t *testing.T, role string) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	cfg := &config.ClientConfig{BaseURL: testBaseURL + "/", Role: role, RequestTimeout: 2 * time.Second}
	return NewClient(cfg, "anon-me", nil)
}

const listBody = `[
	{"id": 2, "type": "bug", "title": "Crash", "content": "boom", "status": "pending", "author_id": "anon-me",
	 "created_at": "2024-05-01T10:00:00Z", "like_count": 3, "liked_by_current_user": true},
	{"id": 1, "type": "praise", "title": "Nice", "content": "thanks", "status": "resolved", "author_id": "anon-x",
	 "created_at": "2024-04-30T10:00:00Z", "like_count": 0, "liked_by_current_user": false,
	 "teacher_response": "Glad you like it", "responded_at": "2024-05-01T11:00:00Z"}
]`

func TestList_DecodesRecordsAndSendsIdentity(t *testing.T) {
	client := setupClient(t, config.RoleStudent)

	httpmock.RegisterResponderWithQuery(http.MethodGet, testBaseURL+"/api/feedback",
		map[string]string{"status": "resolved", "search": "登录"},
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "anon-me", req.Header.Get(config.HeaderUserID))
			assert.Equal(t, config.RoleStudent, req.Header.Get(config.HeaderUserRole))
			return httpmock.NewStringResponse(http.StatusOK, listBody), nil
		})

	records, err := client.List(context.Background(), map[string]string{"status": "resolved", "search": "登录"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ID)
	assert.True(t, records[0].LikedByCurrentUser)
	assert.Equal(t, models.StatusResolved, records[1].Status)
	require.NotNil(t, records[1].TeacherResponse)
	assert.Equal(t, "Glad you like it", *records[1].TeacherResponse)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestList_NoQueryHasNoQueryString(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback",
		func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.URL.RawQuery)
			assert.Empty(t, req.Header.Get(config.HeaderUserRole))
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	records, err := client.List(context.Background(), map[string]string{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestList_MalformedBodiesBecomeEmpty(t *testing.T) {
	bodies := map[string]string{
		"object":       `{"items": []}`,
		"null":         `null`,
		"empty":        ``,
		"html":         `<html>oops</html>`,
		"bad elements": `[{"id": "not-a-number"}]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := setupClient(t, "")
			httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback",
				httpmock.NewStringResponder(http.StatusOK, body))

			records, err := client.List(context.Background(), nil)
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestServerErrorsKeepMessage(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodDelete, testBaseURL+"/api/feedback/4",
		httpmock.NewStringResponder(http.StatusForbidden, `{"error": "无权删除此反馈"}`))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback/5",
		httpmock.NewStringResponder(http.StatusBadGateway, `upstream unavailable`))
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/feedback/6/like",
		httpmock.NewStringResponder(http.StatusInternalServerError, `{}`))

	err := client.Delete(context.Background(), 4)
	require.Error(t, err)
	var appErr *contextutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, contextutils.ErrorCodeServerResponse, appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.HTTPStatus)
	assert.Equal(t, "无权删除此反馈", appErr.Message)

	_, err = client.Get(context.Background(), 5)
	assert.Equal(t, "upstream unavailable", contextutils.UserMessage(err))

	err = client.Like(context.Background(), 6)
	assert.Equal(t, "Internal Server Error", contextutils.UserMessage(err))
}

func TestTransportErrors(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback",
		httpmock.NewErrorResponder(errors.New("dial tcp: connection refused")))

	_, err := client.List(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeTransport, contextutils.GetErrorCode(err))
	assert.True(t, contextutils.IsRetryable(err))
}

func TestTimeoutIsTransportError(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback/1",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeTransport, contextutils.GetErrorCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGet_MalformedRecord(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback/1",
		httpmock.NewStringResponder(http.StatusOK, `[1,2,3]`))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback/2",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	_, err := client.Get(context.Background(), 1)
	assert.True(t, contextutils.IsError(err, contextutils.ErrMalformedResponse))

	_, err = client.Get(context.Background(), 2)
	assert.True(t, contextutils.IsError(err, contextutils.ErrMalformedResponse))
}

func TestCreate_SendsDraft(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/feedback",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			data, err := io.ReadAll(req.Body)
			require.NoError(t, err)

			var draft models.Draft
			require.NoError(t, json.Unmarshal(data, &draft))
			assert.Equal(t, models.TypeFeature, draft.Type)
			assert.Equal(t, "anon-me", draft.AuthorID)

			return httpmock.NewStringResponse(http.StatusOK,
				`{"id": 11, "type": "feature", "title": "Dark mode", "content": "please", "status": "pending", "author_id": "anon-me", "created_at": "2024-05-01T10:00:00Z"}`), nil
		})

	rec, err := client.Create(context.Background(), models.Draft{Type: models.TypeFeature, Title: "Dark mode", Content: "please", AuthorID: "anon-me"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.ID)
	assert.Equal(t, models.StatusPending, rec.Status)
}

func TestWrites_SendExpectedBodies(t *testing.T) {
	client := setupClient(t, config.RoleTeacher)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/feedback/3/respond",
		func(req *http.Request) (*http.Response, error) {
			var body models.ResponseRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "On it", body.Response)
			assert.Equal(t, config.RoleTeacher, req.Header.Get(config.HeaderUserRole))
			return httpmock.NewStringResponse(http.StatusOK, `{"message": "回复成功"}`), nil
		})
	httpmock.RegisterResponder(http.MethodPut, testBaseURL+"/api/feedback/3/status",
		func(req *http.Request) (*http.Response, error) {
			var body models.StatusUpdate
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, models.StatusProcessing, body.Status)
			return httpmock.NewStringResponse(http.StatusOK, `{"message": "状态更新成功"}`), nil
		})
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/feedback/3/like",
		httpmock.NewStringResponder(http.StatusOK, `{"liked": true, "like_count": 1}`))

	require.NoError(t, client.Respond(context.Background(), 3, "On it"))
	require.NoError(t, client.SetStatus(context.Background(), 3, models.StatusProcessing))
	require.NoError(t, client.Like(context.Background(), 3))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testBaseURL+"/api/feedback/3/respond"])
	assert.Equal(t, 1, info["PUT "+testBaseURL+"/api/feedback/3/status"])
}

func TestStats(t *testing.T) {
	client := setupClient(t, "")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/feedback/stats",
		httpmock.NewStringResponder(http.StatusOK, `{"total": 5, "pending": 2, "resolved": 1, "mine": 1}`))

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStats{Total: 5, Pending: 2, Resolved: 1, Mine: 1}, *stats)
}
