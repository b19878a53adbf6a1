package board

import (
	"strings"

	"feedbackboard/internal/models"
)

// Query parameter names understood by the list endpoint
const (
	QueryKeyType   = "type"
	QueryKeyStatus = "status"
	QueryKeySearch = "search"
)

// BuildQuery turns filter criteria into list query parameters. A key is present
// only when its criterion is non-empty after trimming.
func BuildQuery(criteria models.FilterCriteria) map[string]string {
	query := make(map[string]string, 3)
	addIfSet(query, QueryKeyType, criteria.Type)
	addIfSet(query, QueryKeyStatus, criteria.Status)
	addIfSet(query, QueryKeySearch, criteria.Search)
	return query
}

func addIfSet(query map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		query[key] = v
	}
}
