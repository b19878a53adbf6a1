package board

import (
	"errors"
	"testing"

	"feedbackboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyState(t *testing.T, n, page int) State {
	t.Helper()
	s := NewState("anon-me", 10)
	s, ticket := s.BeginReload(TriggerInitial, models.FilterCriteria{})
	s, ok := s.CompleteReload(ticket, makeRecords(n))
	require.True(t, ok)
	s, _ = s.GoToPage(page)
	return s
}

func TestNewState(t *testing.T) {
	s := NewState("anon-me", 10)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, Pagination{PageSize: 10, CurrentPage: 1, TotalPages: 1}, s.Pagination)
	assert.Nil(t, s.Detail)
	assert.Equal(t, uint64(0), s.LatestSeq())
}

func TestBeginReload_IssuesIncreasingTickets(t *testing.T) {
	s := NewState("anon-me", 10)
	criteria := models.FilterCriteria{Status: "resolved", Search: " "}

	s, first := s.BeginReload(TriggerFilter, criteria)
	s, second := s.BeginReload(TriggerSearch, criteria)

	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, criteria, s.Criteria)
	assert.Less(t, first.Seq, second.Seq)
	assert.Equal(t, map[string]string{"status": "resolved"}, second.Query)
	assert.False(t, s.IsCurrent(first))
	assert.True(t, s.IsCurrent(second))
}

func TestCompleteReload_ResetsPageForFilter(t *testing.T) {
	s := readyState(t, 25, 3)

	s, ticket := s.BeginReload(TriggerFilter, models.FilterCriteria{Type: "bug"})
	s, ok := s.CompleteReload(ticket, makeRecords(30))

	require.True(t, ok)
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, 1, s.Pagination.CurrentPage)
	assert.Equal(t, 3, s.Pagination.TotalPages)
}

func TestCompleteReload_WriteKeepsAndClampsPage(t *testing.T) {
	s := readyState(t, 25, 3)

	s, ticket := s.BeginReload(TriggerWrite, s.Criteria)
	s, ok := s.CompleteReload(ticket, makeRecords(30))
	require.True(t, ok)
	assert.Equal(t, 3, s.Pagination.CurrentPage)

	s, ticket = s.BeginReload(TriggerWrite, s.Criteria)
	s, ok = s.CompleteReload(ticket, makeRecords(20))
	require.True(t, ok)
	assert.Equal(t, 2, s.Pagination.TotalPages)
	assert.Equal(t, 2, s.Pagination.CurrentPage)
}

func TestCompleteReload_StaleTicketIsDiscarded(t *testing.T) {
	s := NewState("anon-me", 10)
	s, first := s.BeginReload(TriggerInitial, models.FilterCriteria{})
	s, second := s.BeginReload(TriggerSearch, models.FilterCriteria{Search: "x"})

	s, ok := s.CompleteReload(second, makeRecords(2))
	require.True(t, ok)

	after, ok := s.CompleteReload(first, makeRecords(20))
	assert.False(t, ok)
	assert.Equal(t, 2, after.Cache.Len())

	after, ok = after.FailReload(first, errors.New("late failure"))
	assert.False(t, ok)
	assert.Equal(t, PhaseReady, after.Phase)
	assert.NoError(t, after.LastError)
}

func TestFailReload_KeepsSnapshotAndPage(t *testing.T) {
	s := readyState(t, 25, 2)
	before := s.Cache.All()

	s, ticket := s.BeginReload(TriggerFilter, models.FilterCriteria{Type: "bug"})
	boom := errors.New("network down")
	s, ok := s.FailReload(ticket, boom)

	require.True(t, ok)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, boom, s.LastError)
	assert.Equal(t, ids(before), ids(s.Cache.All()))
	assert.Equal(t, 2, s.Pagination.CurrentPage)
}

func TestCompleteReload_ClearsLastErrorAndComputesStats(t *testing.T) {
	s := readyState(t, 3, 1)
	s, ticket := s.BeginReload(TriggerInitial, s.Criteria)
	s, _ = s.FailReload(ticket, errors.New("boom"))

	records := []models.FeedbackRecord{
		{ID: 1, Status: models.StatusOpen, AuthorID: "anon-me"},
		{ID: 2, Status: models.StatusClosed},
	}
	s, ticket = s.BeginReload(TriggerInitial, s.Criteria)
	s, ok := s.CompleteReload(ticket, records)

	require.True(t, ok)
	assert.NoError(t, s.LastError)
	assert.Equal(t, models.FeedbackStats{Total: 2, Pending: 1, Resolved: 1, Mine: 1}, s.Stats)
}

func TestGoToPage(t *testing.T) {
	s := readyState(t, 25, 1)

	moved, ok := s.GoToPage(3)
	require.True(t, ok)
	assert.Equal(t, 3, moved.Pagination.CurrentPage)
	assert.Equal(t, ids(makeRecords(25)[20:]), ids(moved.Window()))
	assert.Equal(t, 1, s.Pagination.CurrentPage, "receiver must not change")

	_, ok = s.GoToPage(4)
	assert.False(t, ok)
	_, ok = s.GoToPage(0)
	assert.False(t, ok)
}

func TestDetailReducers(t *testing.T) {
	s := readyState(t, 3, 1)
	rec, _ := s.Cache.FindByID(2)

	opened := s.OpenDetail(rec)
	assert.True(t, opened.DetailOpenFor(2))
	assert.False(t, opened.DetailOpenFor(3))
	assert.False(t, s.DetailOpenFor(2))

	closed := opened.CloseDetail()
	assert.Nil(t, closed.Detail)
	assert.NotNil(t, opened.Detail)
}

func TestStats(t *testing.T) {
	records := []models.FeedbackRecord{
		{ID: 1, Status: models.StatusPending, AuthorID: "me"},
		{ID: 2, Status: models.StatusOpen},
		{ID: 3, Status: models.StatusProcessing, AuthorID: "me"},
		{ID: 4, Status: models.StatusResolved},
		{ID: 5, Status: models.StatusClosed},
	}

	assert.Equal(t, models.FeedbackStats{Total: 5, Pending: 2, Resolved: 2, Mine: 2}, Stats(records, "me"))
	assert.Equal(t, 0, Stats(records, "").Mine)
	assert.Equal(t, models.FeedbackStats{}, Stats(nil, "me"))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "failed", PhaseFailed.String())
}
