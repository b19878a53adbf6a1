package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Controller routes intents to the remote store and owns the session State.
// It is safe for concurrent use: state swaps happen under a mutex while remote
// calls run outside of it, and reload responses are applied last-issued-wins.
type Controller struct {
	store   RemoteStore
	logger  *observability.Logger
	metrics *observability.BoardMetrics
	timeout time.Duration
	maxNav  int

	mu    sync.Mutex
	state State
}

// NewController creates a controller for userID. A nil logger or metrics disables them.
func NewController(store RemoteStore, cfg *config.ClientConfig, userID string, logger *observability.Logger, metrics *observability.BoardMetrics) *Controller {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	pageSize, timeout, maxNav := config.DefaultPageSize, config.DefaultRequestTimeout, DefaultMaxShown
	if cfg != nil {
		if cfg.PageSize > 0 {
			pageSize = cfg.PageSize
		}
		if cfg.RequestTimeout > 0 {
			timeout = cfg.RequestTimeout
		}
		if cfg.MaxNavPages > 0 {
			maxNav = cfg.MaxNavPages
		}
	}
	return &Controller{
		store:   store,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
		maxNav:  maxNav,
		state:   NewState(userID, pageSize),
	}
}

// Preset sets the criteria the next LoadRequested will use without fetching.
// One-shot callers use it to apply filters and search with a single request.
func (c *Controller) Preset(criteria models.FilterCriteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Criteria = criteria
}

// State returns the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nav returns the navigation bar for the current page
func (c *Controller) Nav() []NavItem {
	return c.State().Nav(c.maxNav)
}

// Dispatch applies intent and returns the resulting state. The returned error
// is the failure of the requested action; a reload that fails after a
// successful write is reported through State.Phase and State.LastError instead.
func (c *Controller) Dispatch(ctx context.Context, intent Intent) (result0 State, err error) {
	if intent == nil {
		return c.State(), contextutils.WrapError(contextutils.ErrInvalidInput, "no intent")
	}
	ctx, span := observability.TraceBoardFunction(ctx, "dispatch", attribute.String("board.intent", intent.intentName()))
	defer observability.FinishSpan(span, &err)

	switch in := intent.(type) {
	case LoadRequested:
		err = c.reload(ctx, TriggerInitial, nil)
	case FilterChanged:
		err = c.reload(ctx, TriggerFilter, func(fc models.FilterCriteria) models.FilterCriteria {
			fc.Type, fc.Status = in.Type, in.Status
			return fc
		})
	case SearchSubmitted:
		err = c.reload(ctx, TriggerSearch, func(fc models.FilterCriteria) models.FilterCriteria {
			fc.Search = in.Query
			return fc
		})
	case PageRequested:
		err = c.goToPage(in.Page)
	case LikeRequested:
		err = c.write(ctx, "like", in.ID, func(ctx context.Context) error {
			return c.store.Like(ctx, in.ID)
		})
	case RespondRequested:
		err = c.write(ctx, "respond", in.ID, func(ctx context.Context) error {
			return c.store.Respond(ctx, in.ID, in.Text)
		})
	case StatusRequested:
		err = c.write(ctx, "status", in.ID, func(ctx context.Context) error {
			return c.store.SetStatus(ctx, in.ID, in.Status)
		})
	case DeleteRequested:
		err = c.write(ctx, "delete", in.ID, func(ctx context.Context) error {
			return c.store.Delete(ctx, in.ID)
		})
	case CreateRequested:
		err = c.create(ctx, in.Draft)
	case DetailRequested:
		err = c.openDetail(ctx, in.ID)
	case DetailClosed:
		c.mu.Lock()
		c.state = c.state.CloseDetail()
		c.mu.Unlock()
	default:
		err = contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported intent %T", intent)
	}

	return c.State(), err
}

// reload issues a list request and applies the response if it is still the
// latest one. update, when set, derives the new criteria from the current ones.
func (c *Controller) reload(ctx context.Context, trigger Trigger, update func(models.FilterCriteria) models.FilterCriteria) error {
	c.mu.Lock()
	criteria := c.state.Criteria
	if update != nil {
		criteria = update(criteria)
	}
	next, ticket := c.state.BeginReload(trigger, criteria)
	c.state = next
	c.mu.Unlock()

	ctx, span := observability.TraceBoardFunction(ctx, "reload",
		observability.AttributeTrigger(string(trigger)),
		attribute.Int64("board.seq", int64(ticket.Seq)),
	)
	defer span.End()

	start := time.Now()
	records, err := c.list(ctx, ticket.Query)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		next, applied := c.state.FailReload(ticket, err)
		if !applied {
			c.discardStale(ctx, ticket)
			return nil
		}
		c.state = next
		c.metrics.RecordReload(ctx, string(trigger), PhaseFailed.String(), elapsed)
		c.logger.Error(ctx, "Feedback reload failed", err, map[string]interface{}{
			"trigger": string(trigger),
			"seq":     ticket.Seq,
		})
		return err
	}

	next, applied := c.state.CompleteReload(ticket, records)
	if !applied {
		c.discardStale(ctx, ticket)
		return nil
	}
	c.state = next
	c.metrics.RecordReload(ctx, string(trigger), PhaseReady.String(), elapsed)
	c.logger.Debug(ctx, "Feedback reloaded", map[string]interface{}{
		"trigger":      string(trigger),
		"seq":          ticket.Seq,
		"records":      next.Cache.Len(),
		"current_page": next.Pagination.CurrentPage,
		"total_pages":  next.Pagination.TotalPages,
	})
	return nil
}

// discardStale must be called with c.mu held
func (c *Controller) discardStale(ctx context.Context, ticket Ticket) {
	c.metrics.RecordStale(ctx, string(ticket.Trigger))
	c.logger.Debug(ctx, "Discarding stale feedback response", map[string]interface{}{
		"seq":    ticket.Seq,
		"latest": c.state.LatestSeq(),
	})
}

// list fetches records, substituting an empty list for an unreadable body
func (c *Controller) list(ctx context.Context, query map[string]string) ([]models.FeedbackRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.store.List(callCtx, query)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrMalformedResponse) {
			c.logger.Warn(ctx, "Malformed feedback list, showing empty list", map[string]interface{}{"error": err.Error()})
			return []models.FeedbackRecord{}, nil
		}
		return nil, normalizeRemoteError(err)
	}
	return records, nil
}

// write runs a mutating call and reloads on success. A failed write leaves
// the state untouched.
func (c *Controller) write(ctx context.Context, action string, id int64, call func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := call(callCtx)
	cancel()
	if err != nil {
		err = normalizeRemoteError(err)
		c.logger.Warn(ctx, "Feedback write failed", map[string]interface{}{
			"action":      action,
			"feedback_id": id,
			"error":       err.Error(),
		})
		return err
	}

	if action == "delete" {
		c.mu.Lock()
		if c.state.DetailOpenFor(id) {
			c.state = c.state.CloseDetail()
		}
		c.mu.Unlock()
	}

	if err := c.reload(ctx, TriggerWrite, nil); err != nil {
		// the write itself succeeded; State.LastError carries the reload failure
		return nil
	}

	if action != "delete" {
		c.refreshDetail(ctx, id)
	}
	return nil
}

func (c *Controller) create(ctx context.Context, draft models.Draft) error {
	if draft.AuthorID == "" {
		draft.AuthorID = c.State().UserID
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	created, err := c.store.Create(callCtx, draft)
	cancel()
	if err != nil {
		return normalizeRemoteError(err)
	}

	var createdID int64
	if created != nil {
		createdID = created.ID
	}
	c.logger.Info(ctx, "Feedback created", map[string]interface{}{"feedback_id": createdID})

	_ = c.reload(ctx, TriggerWrite, nil)
	return nil
}

// refreshDetail re-fetches the open detail after a write on the same record
func (c *Controller) refreshDetail(ctx context.Context, id int64) {
	if !c.State().DetailOpenFor(id) {
		return
	}

	rec, err := c.get(ctx, id)
	if err != nil {
		c.logger.Warn(ctx, "Failed to refresh feedback detail", map[string]interface{}{
			"feedback_id": id,
			"error":       err.Error(),
		})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.DetailOpenFor(id) {
		c.state = c.state.OpenDetail(*rec)
	}
}

// openDetail shows a cached record when it carries content, otherwise fetches it
func (c *Controller) openDetail(ctx context.Context, id int64) error {
	c.mu.Lock()
	cached, ok := c.state.Cache.FindByID(id)
	if ok && cached.Content != "" {
		c.state = c.state.OpenDetail(cached)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	rec, err := c.get(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state = c.state.OpenDetail(*rec)
	c.mu.Unlock()
	return nil
}

func (c *Controller) get(ctx context.Context, id int64) (result0 *models.FeedbackRecord, err error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec, err := c.store.Get(callCtx, id)
	if err != nil {
		return nil, normalizeRemoteError(err)
	}
	if rec == nil {
		return nil, contextutils.NewMalformedResponseError("empty feedback body", nil)
	}
	return rec, nil
}

func (c *Controller) goToPage(page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.state.GoToPage(page)
	if !ok {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "page %d is out of range (1-%d)", page, c.state.Pagination.TotalPages)
	}
	c.state = next
	return nil
}

// normalizeRemoteError turns bare context failures from a store into transport errors
func normalizeRemoteError(err error) error {
	var appErr *contextutils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextutils.NewTransportError(err)
	}
	return err
}
