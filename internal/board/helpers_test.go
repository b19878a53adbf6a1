package board

import (
	"fmt"
	"time"

	"feedbackboard/internal/models"
)

// makeRecords returns n pending records with IDs 1..n, newest first
func makeRecords(n int) []models.FeedbackRecord {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := make([]models.FeedbackRecord, n)
	for i := range records {
		records[i] = models.FeedbackRecord{
			ID:        int64(i + 1),
			Type:      models.TypeFeature,
			Title:     fmt.Sprintf("Feedback %d", i+1),
			Content:   fmt.Sprintf("Body of feedback %d", i+1),
			Status:    models.StatusPending,
			AuthorID:  "anon-other",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return records
}

func ids(records []models.FeedbackRecord) []int64 {
	out := make([]int64, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}
