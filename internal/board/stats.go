package board

import "feedbackboard/internal/models"

// Stats counts records by workflow bucket. Pending includes the legacy open
// status, resolved includes closed, and mine counts records authored by userID.
func Stats(records []models.FeedbackRecord, userID string) models.FeedbackStats {
	stats := models.FeedbackStats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status.Normalize() {
		case models.StatusPending:
			stats.Pending++
		case models.StatusResolved, models.StatusClosed:
			stats.Resolved++
		}
		if rec.IsOwnedBy(userID) {
			stats.Mine++
		}
	}
	return stats
}
