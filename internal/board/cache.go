// Package board holds the client-side core of the feedback board: the record
// snapshot, query building, pagination and the reload state machine.
package board

import "feedbackboard/internal/models"

// Cache is the ordered snapshot of the last successful list fetch. The zero
// value is an empty snapshot. A Cache is never modified in place.
type Cache struct {
	records []models.FeedbackRecord
}

// Replace returns a cache holding a copy of records in the order given
func (c Cache) Replace(records []models.FeedbackRecord) Cache {
	if len(records) == 0 {
		return Cache{}
	}
	snapshot := make([]models.FeedbackRecord, len(records))
	copy(snapshot, records)
	return Cache{records: snapshot}
}

// All returns the snapshot in server order
func (c Cache) All() []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len is the number of records in the snapshot
func (c Cache) Len() int {
	return len(c.records)
}

// FindByID returns the first record with the given ID
func (c Cache) FindByID(id int64) (models.FeedbackRecord, bool) {
	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.FeedbackRecord{}, false
}

// view exposes the backing slice to package code that only reads it
func (c Cache) view() []models.FeedbackRecord {
	return c.records
}
