// Package browse narrows school listings the way the directory page does:
// free-text search plus an optional city filter.
package browse

import (
	"sort"
	"strings"

	"school-directory-backend/internal/model"
)

// Query holds the listing filters. Zero values disable a filter.
type Query struct {
	Search string
	City   string
}

// Filter returns the schools matching q, preserving input order.
func Filter(schools []model.School, q Query) []model.School {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	city := strings.ToLower(strings.TrimSpace(q.City))

	out := make([]model.School, 0, len(schools))
	for _, s := range schools {
		if city != "" && strings.ToLower(strings.TrimSpace(s.City)) != city {
			continue
		}
		if search != "" && !strings.Contains(haystack(s), search) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func haystack(s model.School) string {
	return strings.ToLower(strings.Join([]string{s.Name, s.City, s.State, s.Address}, " "))
}

// Cities returns the distinct lower-cased city names, sorted.
func Cities(schools []model.School) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range schools {
		c := strings.ToLower(strings.TrimSpace(s.City))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
