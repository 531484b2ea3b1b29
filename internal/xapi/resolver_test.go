package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/recenseo/pkg/models"
)

func gauntletLists() []models.ListRecord {
	return []models.ListRecord{
		{ID: "1876334018150678826", Name: "Gauntlet AI"},
		{ID: "42", Name: "Gauntlet"},
	}
}

func TestMatchLists_CaseInsensitiveSubstring(t *testing.T) {
	matches := matchLists(gauntletLists(), "gauntlet")
	assert.Len(t, matches, 2)

	matches = matchLists(gauntletLists(), "AUNTLET A")
	require.Len(t, matches, 1)
	assert.Equal(t, "Gauntlet AI", matches[0].Name)

	assert.Empty(t, matchLists(gauntletLists(), "nothing"))
}

func TestResolveByName_AmbiguousEnumeratesCandidates(t *testing.T) {
	client := resolverClient(t, gauntletLists())

	_, err := client.ResolveByName(context.Background(), "gauntlet")
	require.Error(t, err)

	var ambiguous *AmbiguousMatchError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Matches, 2)
	assert.Contains(t, err.Error(), "Gauntlet AI")
	assert.Contains(t, err.Error(), "1876334018150678826")
	assert.Contains(t, err.Error(), "42")
}

func TestResolveByName_UniqueMatch(t *testing.T) {
	client := resolverClient(t, gauntletLists())

	list, err := client.ResolveByName(context.Background(), "Gauntlet AI")
	require.NoError(t, err)
	assert.Equal(t, "1876334018150678826", list.ID)
}

func TestResolveByName_NotFound(t *testing.T) {
	client := resolverClient(t, gauntletLists())

	_, err := client.ResolveByName(context.Background(), "crypto")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrListNotFound))
}

// resolverClient builds a Client whose fetcher serves the given lists as a
// ListsManagementPageTimeline response.
func resolverClient(t *testing.T, lists []models.ListRecord) *Client {
	t.Helper()

	entries := make([]map[string]any, len(lists))
	for i, list := range lists {
		entries[i] = map[string]any{"content": map[string]any{
			"itemContent": map[string]any{
				"list": map[string]any{"id_str": list.ID, "name": list.Name},
			},
		}}
	}

	body, err := json.Marshal(listCollectionPayload(entries...))
	require.NoError(t, err)

	fetcher := &fakeFetcher{status: 200, body: body}
	return NewClient(fetcher, testAuthBundle(), time.Second, createTestLogger())
}
