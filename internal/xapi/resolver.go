package xapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/recenseo/pkg/models"
)

// ResolveByName finds the single owned list whose name contains the query as
// a case-insensitive substring. Zero matches fail with ErrListNotFound;
// multiple matches fail with AmbiguousMatchError enumerating every
// candidate. Exact-id export bypasses this path entirely.
func (c *Client) ResolveByName(ctx context.Context, query string) (models.ListRecord, error) {
	lists, err := c.OwnedLists(ctx)
	if err != nil {
		return models.ListRecord{}, err
	}

	matches := matchLists(lists, query)
	switch len(matches) {
	case 0:
		return models.ListRecord{}, fmt.Errorf("%w: %q", ErrListNotFound, query)
	case 1:
		return matches[0], nil
	default:
		return models.ListRecord{}, &AmbiguousMatchError{Query: query, Matches: matches}
	}
}

// matchLists filters lists by case-insensitive substring on the name.
func matchLists(lists []models.ListRecord, query string) []models.ListRecord {
	needle := strings.ToLower(query)
	var matches []models.ListRecord
	for _, list := range lists {
		if strings.Contains(strings.ToLower(list.Name), needle) {
			matches = append(matches, list)
		}
	}
	return matches
}
