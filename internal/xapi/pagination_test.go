package xapi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/recenseo/pkg/models"
)

// scriptedPage is one upstream page in a scripted sequence.
type scriptedPage struct {
	members []models.MemberRecord
	cursor  string
	err     error
}

// fakeSource serves scripted pages in order and records every cursor it was
// called with.
type fakeSource struct {
	pages []scriptedPage
	calls []string
}

func (f *fakeSource) ListMembers(ctx context.Context, listID string, count int, cursor string) ([]models.MemberRecord, string, error) {
	f.calls = append(f.calls, cursor)
	idx := len(f.calls) - 1
	if idx >= len(f.pages) {
		return nil, "", fmt.Errorf("unexpected page request %d with cursor %q", idx+1, cursor)
	}
	page := f.pages[idx]
	return page.members, page.cursor, page.err
}

// countingSink records every progress notification.
type countingSink struct {
	notifications []int
}

func (s *countingSink) OnPage(fetched int) {
	s.notifications = append(s.notifications, fetched)
}

func fakeMembers(prefix string, n int) []models.MemberRecord {
	members := make([]models.MemberRecord, n)
	for i := range members {
		members[i] = models.MemberRecord{ID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return members
}

func testPaginator(source memberSource) *Paginator {
	return NewPaginator(source, 20, time.Millisecond, createTestLogger())
}

func TestCollectAll_ThreePagesPreserveOrder(t *testing.T) {
	source := &fakeSource{pages: []scriptedPage{
		{members: fakeMembers("p1", 20), cursor: "A"},
		{members: fakeMembers("p2", 15), cursor: "B"},
		{members: nil, cursor: "B"},
	}}
	sink := &countingSink{}

	members, err := testPaginator(source).CollectAll(context.Background(), "123", sink)
	require.NoError(t, err)

	assert.Len(t, members, 35)
	assert.Equal(t, "p1-0", members[0].ID)
	assert.Equal(t, "p1-19", members[19].ID)
	assert.Equal(t, "p2-0", members[20].ID)
	assert.Equal(t, "p2-14", members[34].ID)

	assert.Equal(t, []string{"", "A", "B"}, source.calls)
	assert.Equal(t, []int{20, 35, 35}, sink.notifications)
}

func TestCollectAll_StopsWhenCursorMissing(t *testing.T) {
	source := &fakeSource{pages: []scriptedPage{
		{members: fakeMembers("only", 5), cursor: ""},
	}}

	members, err := testPaginator(source).CollectAll(context.Background(), "123", nil)
	require.NoError(t, err)

	assert.Len(t, members, 5)
	assert.Equal(t, []string{""}, source.calls)
}

func TestCollectAll_StallGuardNeverReusesCursor(t *testing.T) {
	// Page 2 hands back the cursor page 1 already produced: the engine must
	// stop after page 2 and never call again with that cursor.
	source := &fakeSource{pages: []scriptedPage{
		{members: fakeMembers("p1", 20), cursor: "A"},
		{members: fakeMembers("p2", 20), cursor: "A"},
	}}

	members, err := testPaginator(source).CollectAll(context.Background(), "123", nil)
	require.NoError(t, err)

	assert.Len(t, members, 40)
	assert.Equal(t, []string{"", "A"}, source.calls)
}

func TestCollectAll_EmptyPageWithCursorStopsImmediately(t *testing.T) {
	source := &fakeSource{pages: []scriptedPage{
		{members: nil, cursor: "LOOPING"},
	}}

	members, err := testPaginator(source).CollectAll(context.Background(), "123", nil)
	require.NoError(t, err)

	assert.Empty(t, members)
	assert.Equal(t, []string{""}, source.calls)
}

func TestCollectAll_PageFailureAbortsRun(t *testing.T) {
	source := &fakeSource{pages: []scriptedPage{
		{members: fakeMembers("p1", 20), cursor: "A"},
		{err: fmt.Errorf("upstream rejected ListMembers with status 429")},
	}}

	_, err := testPaginator(source).CollectAll(context.Background(), "123", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCollectAll_DuplicateIdsAcrossPagesAreKept(t *testing.T) {
	// The platform's pagination is not strictly exclusive: under concurrent
	// list mutation the same member can appear on two pages. The engine
	// appends what it is given.
	dup := models.MemberRecord{ID: "same"}
	source := &fakeSource{pages: []scriptedPage{
		{members: []models.MemberRecord{dup, {ID: "a"}}, cursor: "A"},
		{members: []models.MemberRecord{dup, {ID: "b"}}, cursor: ""},
	}}

	members, err := testPaginator(source).CollectAll(context.Background(), "123", nil)
	require.NoError(t, err)

	require.Len(t, members, 4)
	assert.Equal(t, "same", members[0].ID)
	assert.Equal(t, "same", members[2].ID)
}

func TestCollectAll_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{pages: []scriptedPage{
		{members: fakeMembers("p1", 20), cursor: "A"},
	}}

	// Cancellation is checked before the first suspension point.
	_, err := testPaginator(source).CollectAll(ctx, "123", nil)
	require.Error(t, err)
	assert.Empty(t, source.calls)
}

func TestNextPageState_GuardOrder(t *testing.T) {
	// Missing cursor wins over everything.
	assert.Equal(t, stateExhausted, nextPageState(20, "A", ""))
	// Empty page wins over a fresh cursor.
	assert.Equal(t, stateExhausted, nextPageState(0, "A", "B"))
	// Repeated cursor stalls.
	assert.Equal(t, stateStalled, nextPageState(20, "A", "A"))
	// Otherwise keep fetching.
	assert.Equal(t, stateFetching, nextPageState(20, "A", "B"))
}
