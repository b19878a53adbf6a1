// Package apiclient is the REST client for the feedback board API. It
// implements board.RemoteStore.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"feedbackboard/internal/board"
	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"
	"feedbackboard/internal/version"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const feedbackPath = "/api/feedback"

var _ board.RemoteStore = (*Client)(nil)

// Client talks to the feedback board REST API on behalf of one user
type Client struct {
	baseURL    string
	userID     string
	role       string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a client for cfg.BaseURL acting as userID with cfg.Role
func NewClient(cfg *config.ClientConfig, userID string, logger *observability.Logger) *Client {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  userID,
		role:    cfg.Role,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		logger: logger,
	}
}

// List fetches records matching query, newest first. A body that is not a
// JSON array of records yields an empty list.
func (c *Client) List(ctx context.Context, query map[string]string) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "list")
	defer observability.FinishSpan(span, &err)

	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}

	body, err := c.do(ctx, http.MethodGet, feedbackPath, values, nil)
	if err != nil {
		return nil, err
	}

	records, decodeErr := decodeList(body)
	if decodeErr != nil {
		c.logger.Warn(ctx, "Feedback list response was not a record array", map[string]interface{}{
			"error": decodeErr.Error(),
			"bytes": len(body),
		})
		return []models.FeedbackRecord{}, nil
	}
	return records, nil
}

// Get fetches a single record
func (c *Client) Get(ctx context.Context, id int64) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "get", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	body, err := c.do(ctx, http.MethodGet, recordPath(id, ""), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Create submits a new record and returns it as stored
func (c *Client) Create(ctx context.Context, draft models.Draft) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "create")
	defer observability.FinishSpan(span, &err)

	body, err := c.do(ctx, http.MethodPost, feedbackPath, nil, draft)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Like toggles the current user's like on a record
func (c *Client) Like(ctx context.Context, id int64) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "like", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	_, err = c.do(ctx, http.MethodPost, recordPath(id, "/like"), nil, nil)
	return err
}

// Respond posts a staff reply
func (c *Client) Respond(ctx context.Context, id int64, text string) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "respond", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	_, err = c.do(ctx, http.MethodPost, recordPath(id, "/respond"), nil, models.ResponseRequest{Response: text})
	return err
}

// SetStatus changes a record's workflow status
func (c *Client) SetStatus(ctx context.Context, id int64, status models.FeedbackStatus) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "set_status", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	_, err = c.do(ctx, http.MethodPut, recordPath(id, "/status"), nil, models.StatusUpdate{Status: status})
	return err
}

// Delete removes a record
func (c *Client) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := observability.TraceClientFunction(ctx, "delete", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	_, err = c.do(ctx, http.MethodDelete, recordPath(id, ""), nil, nil)
	return err
}

// Stats fetches the server-side aggregate counts for the current user
func (c *Client) Stats(ctx context.Context) (result0 *models.FeedbackStats, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "stats")
	defer observability.FinishSpan(span, &err)

	body, err := c.do(ctx, http.MethodGet, feedbackPath+"/stats", nil, nil)
	if err != nil {
		return nil, err
	}

	var stats models.FeedbackStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, contextutils.NewMalformedResponseError("stats body is not an object", err)
	}
	return &stats, nil
}

// do sends one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "feedbackboard/"+version.Version)
	if c.userID != "" {
		req.Header.Set(config.HeaderUserID, c.userID)
	}
	if c.role != "" {
		req.Header.Set(config.HeaderUserRole, c.role)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contextutils.NewTransportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contextutils.NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, contextutils.NewServerError(resp.StatusCode, serverMessage(resp.StatusCode, body))
	}
	return body, nil
}

// serverMessage extracts the `error` field of an error body, falling back to
// the raw body and then the status text
func serverMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

func decodeList(body []byte) ([]models.FeedbackRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array, got %d bytes", len(trimmed))
	}

	var records []models.FeedbackRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.FeedbackRecord{}
	}
	return records, nil
}

func decodeRecord(body []byte) (*models.FeedbackRecord, error) {
	var rec models.FeedbackRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, contextutils.NewMalformedResponseError("feedback body is not a record", err)
	}
	if rec.ID == 0 {
		return nil, contextutils.NewMalformedResponseError("feedback body has no id", nil)
	}
	return &rec, nil
}

func recordPath(id int64, suffix string) string {
	return feedbackPath + "/" + strconv.FormatInt(id, 10) + suffix
}
