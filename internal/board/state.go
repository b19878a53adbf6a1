package board

import (
	"feedbackboard/internal/models"
)

// Phase is the reload lifecycle of the list
type Phase int

// Reload phases
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Trigger records why a reload was started
type Trigger string

// Reload triggers
const (
	TriggerInitial Trigger = "initial"
	TriggerFilter  Trigger = "filter"
	TriggerSearch  Trigger = "search"
	TriggerWrite   Trigger = "write"
)

// keepsPage reports whether a successful reload preserves the current page
func (t Trigger) keepsPage() bool {
	return t == TriggerWrite
}

// Ticket identifies one issued reload. Only the ticket with the latest
// sequence number may change the state when its response arrives.
type Ticket struct {
	Seq     uint64
	Trigger Trigger
	Query   map[string]string
}

// State is the full board session state. Reducer methods return a new State
// and never modify the receiver.
type State struct {
	Phase      Phase
	Criteria   models.FilterCriteria
	Cache      Cache
	Pagination Pagination
	Stats      models.FeedbackStats
	UserID     string
	// LastError is the failure of the most recent reload, nil once one succeeds.
	LastError error
	// Detail is the record shown in the detail view, nil when closed.
	Detail *models.FeedbackRecord

	seq uint64
}

// NewState returns the idle state for a session
func NewState(userID string, pageSize int) State {
	return State{
		Phase:      PhaseIdle,
		UserID:     userID,
		Pagination: Recompute(0, pageSize, 1),
	}
}

// LatestSeq is the sequence number of the most recently issued reload
func (s State) LatestSeq() uint64 {
	return s.seq
}

// BeginReload issues a new reload with the given criteria
func (s State) BeginReload(trigger Trigger, criteria models.FilterCriteria) (State, Ticket) {
	s.seq++
	s.Phase = PhaseLoading
	s.Criteria = criteria
	return s, Ticket{Seq: s.seq, Trigger: trigger, Query: BuildQuery(criteria)}
}

// IsCurrent reports whether t is the latest issued reload
func (s State) IsCurrent(t Ticket) bool {
	return t.Seq == s.seq
}

// CompleteReload replaces the snapshot with records. Stale tickets leave the
// state unchanged and report false.
func (s State) CompleteReload(t Ticket, records []models.FeedbackRecord) (State, bool) {
	if !s.IsCurrent(t) {
		return s, false
	}

	requested := 1
	if t.Trigger.keepsPage() {
		requested = s.Pagination.CurrentPage
	}

	s.Cache = s.Cache.Replace(records)
	s.Pagination = Recompute(s.Cache.Len(), s.Pagination.PageSize, requested)
	s.Stats = Stats(s.Cache.view(), s.UserID)
	s.Phase = PhaseReady
	s.LastError = nil
	return s, true
}

// FailReload records a failed reload, keeping the previous snapshot and page.
// Stale tickets leave the state unchanged and report false.
func (s State) FailReload(t Ticket, err error) (State, bool) {
	if !s.IsCurrent(t) {
		return s, false
	}
	s.Phase = PhaseFailed
	s.LastError = err
	return s, true
}

// GoToPage moves to page within the current snapshot. Out of range pages
// leave the state unchanged and report false.
func (s State) GoToPage(page int) (State, bool) {
	if !s.Pagination.HasPage(page) {
		return s, false
	}
	s.Pagination.CurrentPage = page
	return s, true
}

// OpenDetail shows rec in the detail view
func (s State) OpenDetail(rec models.FeedbackRecord) State {
	s.Detail = &rec
	return s
}

// CloseDetail hides the detail view
func (s State) CloseDetail() State {
	s.Detail = nil
	return s
}

// DetailOpenFor reports whether the detail view currently shows id
func (s State) DetailOpenFor(id int64) bool {
	return s.Detail != nil && s.Detail.ID == id
}

// Window returns the records on the current page
func (s State) Window() []models.FeedbackRecord {
	return WindowFor(s.Cache.view(), s.Pagination.PageSize, s.Pagination.CurrentPage)
}

// Nav returns the navigation bar for the current page
func (s State) Nav(maxShown int) []NavItem {
	return NavDescriptors(s.Pagination.CurrentPage, s.Pagination.TotalPages, maxShown)
}
