// Package models defines the feedback records and request shapes shared by the
// board client, the REST client and the server.
package models

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	contextutils "feedbackboard/internal/utils"
)

// FeedbackType classifies a feedback record
type FeedbackType string

// Feedback types
const (
	TypeBug        FeedbackType = "bug"
	TypeFeature    FeedbackType = "feature"
	TypePraise     FeedbackType = "praise"
	TypeSuggestion FeedbackType = "suggestion"
	TypeQuestion   FeedbackType = "question"
	TypeOther      FeedbackType = "other"
)

// FeedbackTypes lists the known types in display order
var FeedbackTypes = []FeedbackType{TypeBug, TypeFeature, TypePraise, TypeSuggestion, TypeQuestion, TypeOther}

// IsValid reports whether t is a known feedback type
func (t FeedbackType) IsValid() bool {
	for _, known := range FeedbackTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FeedbackStatus is the workflow state of a feedback record
type FeedbackStatus string

// Feedback statuses. StatusOpen is the legacy spelling of StatusPending.
const (
	StatusPending    FeedbackStatus = "pending"
	StatusProcessing FeedbackStatus = "processing"
	StatusResolved   FeedbackStatus = "resolved"
	StatusClosed     FeedbackStatus = "closed"
	StatusOpen       FeedbackStatus = "open"
)

// FeedbackStatuses lists the canonical statuses in workflow order
var FeedbackStatuses = []FeedbackStatus{StatusPending, StatusProcessing, StatusResolved, StatusClosed}

// Normalize maps the legacy open alias to pending
func (s FeedbackStatus) Normalize() FeedbackStatus {
	if s == StatusOpen {
		return StatusPending
	}
	return s
}

// IsValid reports whether s is a canonical status or the legacy alias
func (s FeedbackStatus) IsValid() bool {
	n := s.Normalize()
	for _, known := range FeedbackStatuses {
		if n == known {
			return true
		}
	}
	return false
}

// ParseStatus trims and lowercases raw and returns the canonical status
func ParseStatus(raw string) (result0 FeedbackStatus, err error) {
	s := FeedbackStatus(strings.ToLower(strings.TrimSpace(raw))).Normalize()
	if !s.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown status %q", raw)
	}
	return s, nil
}

// ParseType trims and lowercases raw and returns the feedback type
func ParseType(raw string) (result0 FeedbackType, err error) {
	t := FeedbackType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown feedback type %q", raw)
	}
	return t, nil
}

// FeedbackRecord is a single feedback item as served by the board API
type FeedbackRecord struct {
	ID                 int64          `json:"id"`
	Type               FeedbackType   `json:"type"`
	Title              string         `json:"title"`
	Content            string         `json:"content"`
	Status             FeedbackStatus `json:"status"`
	AuthorID           string         `json:"author_id"`
	CreatedAt          time.Time      `json:"created_at"`
	LikeCount          int            `json:"like_count"`
	LikedByCurrentUser bool           `json:"liked_by_current_user"`
	TeacherResponse    *string        `json:"teacher_response,omitempty"`
	RespondedAt        *time.Time     `json:"responded_at,omitempty"`
}

// IsOwnedBy reports whether userID authored the record
func (r FeedbackRecord) IsOwnedBy(userID string) bool {
	return userID != "" && r.AuthorID == userID
}

// HasResponse reports whether staff replied to the record
func (r FeedbackRecord) HasResponse() bool {
	return r.TeacherResponse != nil && strings.TrimSpace(*r.TeacherResponse) != ""
}

// FilterCriteria narrows a list request. Empty fields mean no filter.
type FilterCriteria struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// FeedbackStats are the aggregate counts shown above the list
type FeedbackStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
	Mine     int `json:"mine"`
}

// Draft is the body of a create request
type Draft struct {
	Type     FeedbackType `json:"type" validate:"required,oneof=bug feature praise suggestion question other"`
	Title    string       `json:"title" validate:"required,max=100"`
	Content  string       `json:"content" validate:"required,max=2000"`
	AuthorID string       `json:"author_id,omitempty" validate:"omitempty,max=100"`
}

// Normalize trims user input in place
func (d *Draft) Normalize() {
	d.Type = FeedbackType(strings.ToLower(strings.TrimSpace(string(d.Type))))
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.AuthorID = strings.TrimSpace(d.AuthorID)
}

// Validate normalizes the draft and checks it against the create form rules
func (d *Draft) Validate() error {
	d.Normalize()
	return validateStruct(d)
}

// StatusUpdate is the body of a status change request
type StatusUpdate struct {
	Status FeedbackStatus `json:"status" validate:"required"`
}

// Validate checks that the status is known and normalizes the legacy alias
func (s *StatusUpdate) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	parsed, err := ParseStatus(string(s.Status))
	if err != nil {
		return err
	}
	s.Status = parsed
	return nil
}

// ResponseRequest is the body of a staff reply
type ResponseRequest struct {
	Response string `json:"response" validate:"required,max=2000"`
}

// Validate trims and checks the reply text
func (r *ResponseRequest) Validate() error {
	r.Response = strings.TrimSpace(r.Response)
	return validateStruct(r)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateStruct runs the struct tags and folds field errors into one AppError
func validateStruct(v interface{}) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return contextutils.WrapError(err, "validation failed")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return contextutils.NewAppError(
		contextutils.ErrorCodeValidationFailed,
		contextutils.SeverityWarn,
		strings.Join(msgs, "; "),
		"",
	)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}
