package board

import "feedbackboard/internal/models"

// Intent is a user action routed through Controller.Dispatch
type Intent interface {
	intentName() string
}

// LoadRequested fetches the list with the current criteria
type LoadRequested struct{}

// FilterChanged replaces the type and status filters and reloads
type FilterChanged struct {
	Type   string
	Status string
}

// SearchSubmitted replaces the search text and reloads
type SearchSubmitted struct {
	Query string
}

// PageRequested moves to another page of the current snapshot
type PageRequested struct {
	Page int
}

// LikeRequested toggles the current user's like
type LikeRequested struct {
	ID int64
}

// RespondRequested posts a staff reply
type RespondRequested struct {
	ID   int64
	Text string
}

// StatusRequested changes a record's workflow status
type StatusRequested struct {
	ID     int64
	Status models.FeedbackStatus
}

// DeleteRequested removes a record
type DeleteRequested struct {
	ID int64
}

// CreateRequested submits a new record
type CreateRequested struct {
	Draft models.Draft
}

// DetailRequested opens the detail view for a record
type DetailRequested struct {
	ID int64
}

// DetailClosed closes the detail view
type DetailClosed struct{}

func (LoadRequested) intentName() string    { return "load" }
func (FilterChanged) intentName() string    { return "filter" }
func (SearchSubmitted) intentName() string  { return "search" }
func (PageRequested) intentName() string    { return "page" }
func (LikeRequested) intentName() string    { return "like" }
func (RespondRequested) intentName() string { return "respond" }
func (StatusRequested) intentName() string  { return "status" }
func (DeleteRequested) intentName() string  { return "delete" }
func (CreateRequested) intentName() string  { return "create" }
func (DetailRequested) intentName() string  { return "detail_open" }
func (DetailClosed) intentName() string     { return "detail_close" }
