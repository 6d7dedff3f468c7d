package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weave-backend/internal/scoring"
)

// stubSource serves fixed windows and counts refreshes
type stubSource struct {
	items       []scoring.FeedItem
	latestCalls int
	agentCalls  int
	topicCalls  int
}

func window(n int) []scoring.FeedItem {
	items := make([]scoring.FeedItem, n)
	for i := range items {
		items[i] = scoring.FeedItem{
			ScoredItem: scoring.ScoredItem{ID: fmt.Sprintf("item-%02d", i)},
			Source:     "trending",
		}
	}
	return items
}

func (s *stubSource) Latest(limit int) []scoring.FeedItem {
	s.latestCalls++
	if limit > len(s.items) {
		limit = len(s.items)
	}
	return s.items[:limit]
}

func (s *stubSource) ByAgent(agentID string, limit int) []scoring.FeedItem {
	s.agentCalls++
	return s.items[:1]
}

func (s *stubSource) ByTopic(topic string, limit int) []scoring.FeedItem {
	s.topicCalls++
	return nil
}

func TestCursor_WalkToEndTriggersExactlyOneRefresh(t *testing.T) {
	source := &stubSource{items: window(10)}
	cursor := NewCursor(source, 10)
	require.Equal(t, 1, source.latestCalls, "construction loads the first window")

	// Nine advances walk from item 0 to item 9 without refreshing.
	for i := 0; i < 9; i++ {
		item, ok := cursor.Next()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("item-%02d", i+1), item.ID)
	}
	assert.Equal(t, 1, source.latestCalls)

	// The advance past the last item refreshes exactly once and lands back
	// at the window start.
	item, ok := cursor.Next()
	require.True(t, ok)
	assert.Equal(t, "item-00", item.ID)
	assert.Equal(t, 2, source.latestCalls)
}

func TestCursor_NextOnEmptyWindowRefreshesOncePerCall(t *testing.T) {
	source := &stubSource{}
	cursor := NewCursor(source, 10)
	require.Equal(t, 1, source.latestCalls)

	_, ok := cursor.Next()
	assert.False(t, ok, "still empty after refresh means no item")
	assert.Equal(t, 2, source.latestCalls, "exactly one refresh per end-of-window advance")
}

func TestCursor_CurrentAndPrevious(t *testing.T) {
	source := &stubSource{items: window(3)}
	cursor := NewCursor(source, 10)

	item, ok := cursor.Current()
	require.True(t, ok)
	assert.Equal(t, "item-00", item.ID)

	_, ok = cursor.Previous()
	assert.False(t, ok, "previous at position 0 reports nothing")

	cursor.Next()
	item, ok = cursor.Previous()
	require.True(t, ok)
	assert.Equal(t, "item-00", item.ID)
}

func TestCursor_Preview(t *testing.T) {
	source := &stubSource{items: window(5)}
	cursor := NewCursor(source, 10)

	preview := cursor.Preview(3)
	require.Len(t, preview, 3)
	assert.Equal(t, "item-01", preview[0].ID)

	// Preview never moves the cursor.
	item, ok := cursor.Current()
	require.True(t, ok)
	assert.Equal(t, "item-00", item.ID)

	cursor.Next()
	cursor.Next()
	cursor.Next()
	cursor.Next()
	assert.Empty(t, cursor.Preview(3), "nothing ahead at the last item")
}

func TestCursor_FiltersResetPosition(t *testing.T) {
	source := &stubSource{items: window(10)}
	cursor := NewCursor(source, 10)
	cursor.Next()
	cursor.Next()

	cursor.FilterByAgent("agent-1")
	assert.Equal(t, 1, source.agentCalls)
	item, ok := cursor.Current()
	require.True(t, ok)
	assert.Equal(t, "item-00", item.ID, "filtering resets to the window start")

	cursor.FilterByTopic("AI")
	assert.Equal(t, 1, source.topicCalls)
	_, ok = cursor.Current()
	assert.False(t, ok, "empty filtered window has no current item")

	cursor.ClearFilters()
	assert.Equal(t, 2, source.latestCalls, "clearing filters refreshes")
	_, ok = cursor.Current()
	assert.True(t, ok)
}
