package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedbackboard/internal/models"
	"feedbackboard/internal/observability"
	"feedbackboard/internal/serviceinterfaces"
	contextutils "feedbackboard/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

var _ serviceinterfaces.FeedbackServiceInterface = (*FeedbackService)(nil)

// recordColumns selects one feedback row. $1 is always the viewing user.
const recordColumns = `f.id, f.type, f.title, f.content, f.status, f.author_id, f.created_at,
       f.teacher_response, f.responded_at,
       (SELECT COUNT(*) FROM feedback_likes l WHERE l.feedback_id = f.id) AS like_count,
       EXISTS (SELECT 1 FROM feedback_likes l WHERE l.feedback_id = f.id AND l.user_id = $1) AS liked`

// FeedbackService implements FeedbackServiceInterface on PostgreSQL.
type FeedbackService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(db *sql.DB, logger *observability.Logger) *FeedbackService {
	if db == nil {
		panic("NewFeedbackService: db is nil")
	}
	if logger == nil {
		panic("NewFeedbackService: logger is nil")
	}
	return &FeedbackService{db: db, logger: logger}
}

// ListFeedback returns the records matching filter, newest first.
func (s *FeedbackService) ListFeedback(ctx context.Context, filter models.FilterCriteria, userID string) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_feedback",
		observability.AttributeTypeFilter(filter.Type),
		observability.AttributeStatusFilter(filter.Status),
		observability.AttributeSearch(filter.Search),
	)
	defer observability.FinishSpan(span, &err)

	conditions, args := filterConditions(filter, userID)
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM feedback f %s ORDER BY f.created_at DESC, f.id DESC", recordColumns, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query feedback list")
	}
	defer func() {
		_ = rows.Close()
	}()

	list := []models.FeedbackRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, contextutils.WrapError(err, "scan feedback list")
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "iterate feedback list")
	}

	span.SetAttributes(attribute.Int("feedback.count", len(list)))
	return list, nil
}

// filterConditions builds the WHERE clauses for filter. The viewing user is
// always the first argument.
func filterConditions(filter models.FilterCriteria, userID string) ([]string, []interface{}) {
	var conditions []string
	args := []interface{}{userID}
	idx := 2

	if t := strings.TrimSpace(filter.Type); t != "" {
		conditions = append(conditions, fmt.Sprintf("f.type=$%d", idx))
		args = append(args, strings.ToLower(t))
		idx++
	}
	if st := strings.TrimSpace(filter.Status); st != "" {
		status := models.FeedbackStatus(strings.ToLower(st)).Normalize()
		if status == models.StatusPending {
			// legacy rows still carry open
			conditions = append(conditions, fmt.Sprintf("f.status IN ($%d, '%s')", idx, models.StatusOpen))
		} else {
			conditions = append(conditions, fmt.Sprintf("f.status=$%d", idx))
		}
		args = append(args, string(status))
		idx++
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, fmt.Sprintf("(f.title ILIKE $%d OR f.content ILIKE $%d)", idx, idx))
		args = append(args, "%"+escapeLike(q)+"%")
	}
	return conditions, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside an ILIKE pattern
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.FeedbackRecord, error) {
	var (
		rec         models.FeedbackRecord
		response    sql.NullString
		respondedAt sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Content, &rec.Status, &rec.AuthorID, &rec.CreatedAt,
		&response, &respondedAt, &rec.LikeCount, &rec.LikedByCurrentUser); err != nil {
		return models.FeedbackRecord{}, err
	}
	rec.Status = rec.Status.Normalize()
	if response.Valid {
		rec.TeacherResponse = &response.String
	}
	if respondedAt.Valid {
		rec.RespondedAt = &respondedAt.Time
	}
	return rec, nil
}

// GetFeedbackByID fetches a single record as seen by userID.
func (s *FeedbackService) GetFeedbackByID(ctx context.Context, id int64, userID string) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_by_id", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	query := fmt.Sprintf("SELECT %s FROM feedback f WHERE f.id=$2", recordColumns)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %d not found", id)
		}
		return nil, contextutils.WrapError(err, "failed to scan feedback")
	}
	return &rec, nil
}

// CreateFeedback validates draft and inserts it as a pending record.
func (s *FeedbackService) CreateFeedback(ctx context.Context, draft models.Draft) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_feedback", observability.AttributeUserID(draft.AuthorID))
	defer observability.FinishSpan(span, &err)

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	query := `INSERT INTO feedback (type, title, content, author_id, status, created_at, updated_at)
              VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`
	now := time.Now()
	rec := models.FeedbackRecord{
		Type:     draft.Type,
		Title:    draft.Title,
		Content:  draft.Content,
		AuthorID: draft.AuthorID,
		Status:   models.StatusPending,
	}
	err = s.db.QueryRowContext(ctx, query, rec.Type, rec.Title, rec.Content, rec.AuthorID, rec.Status, now, now).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert feedback")
	}

	s.logger.Info(ctx, "Feedback created", map[string]interface{}{
		"feedback_id": rec.ID,
		"type":        string(rec.Type),
	})
	return &rec, nil
}

// ToggleLike adds userID's like to the record, or removes it when present.
// It reports whether the record is liked afterwards.
func (s *FeedbackService) ToggleLike(ctx context.Context, id int64, userID string) (result0 bool, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "toggle_like",
		observability.AttributeFeedbackID(id),
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(userID) == "" {
		return false, contextutils.WrapError(contextutils.ErrUnauthorized, "a user ID is required to like feedback")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to begin like transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM feedback WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, contextutils.WrapError(err, "failed to check feedback")
	}
	if !exists {
		err = contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %d not found", id)
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM feedback_likes WHERE feedback_id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to remove like")
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, contextutils.WrapError(err, "failed to get rows affected")
	}

	liked := removed == 0
	if liked {
		if _, err = tx.ExecContext(ctx, `INSERT INTO feedback_likes (feedback_id, user_id) VALUES ($1,$2)`, id, userID); err != nil {
			return false, contextutils.WrapError(err, "failed to add like")
		}
	}

	if err = tx.Commit(); err != nil {
		return false, contextutils.WrapError(err, "failed to commit like")
	}
	span.SetAttributes(attribute.Bool("feedback.liked", liked))
	return liked, nil
}

// RespondToFeedback stores a staff reply on the record.
func (s *FeedbackService) RespondToFeedback(ctx context.Context, id int64, response, responderID string) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "respond_to_feedback",
		observability.AttributeFeedbackID(id),
		observability.AttributeUserID(responderID),
	)
	defer observability.FinishSpan(span, &err)

	req := models.ResponseRequest{Response: response}
	if err := req.Validate(); err != nil {
		return err
	}

	now := time.Now()
	query := `UPDATE feedback SET teacher_response=$1, responded_at=$2, responded_by=$3, updated_at=$2 WHERE id=$4`
	result, err := s.db.ExecContext(ctx, query, req.Response, now, responderID, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to save response")
	}
	return requireAffected(result, id)
}

// UpdateStatus moves the record to status.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id int64, status models.FeedbackStatus) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_status",
		observability.AttributeFeedbackID(id),
		attribute.String("feedback.status", string(status)),
	)
	defer observability.FinishSpan(span, &err)

	update := models.StatusUpdate{Status: status}
	if err := update.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE feedback SET status=$1, updated_at=$2 WHERE id=$3`, update.Status, time.Now(), id)
	if err != nil {
		return contextutils.WrapError(err, "failed to update feedback status")
	}
	return requireAffected(result, id)
}

// DeleteFeedback deletes a single record and its likes.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id int64) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "delete_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id=$1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete feedback")
	}
	return requireAffected(result, id)
}

// GetStats counts all records by bucket, plus those authored by userID.
func (s *FeedbackService) GetStats(ctx context.Context, userID string) (result0 *models.FeedbackStats, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_stats", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status IN ('pending', 'open')),
       COUNT(*) FILTER (WHERE status IN ('resolved', 'closed')),
       COUNT(*) FILTER (WHERE author_id <> '' AND author_id = $1)
  FROM feedback`
	var stats models.FeedbackStats
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.Pending, &stats.Resolved, &stats.Mine); err != nil {
		return nil, contextutils.WrapError(err, "failed to count feedback")
	}
	return &stats, nil
}

func requireAffected(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %d not found", id)
	}
	return nil
}
