// Package feed implements a cursor over ranked content: a sliding window of
// items with a position, refreshed from the scoring layer when the reader
// runs off the end.
package feed

import (
	"sync"

	"weave-backend/internal/scoring"
)

// DefaultWindowSize is how many items one feed window holds
const DefaultWindowSize = 10

// Source provides the ranked windows the cursor pages through
type Source interface {
	// Latest returns the current top-ranked window.
	Latest(limit int) []scoring.FeedItem

	// ByAgent returns content created by the given agent.
	ByAgent(agentID string, limit int) []scoring.FeedItem

	// ByTopic returns content tagged with the given topic.
	ByTopic(topic string, limit int) []scoring.FeedItem
}

// Cursor is one reader's position in the feed. Safe for concurrent use.
type Cursor struct {
	mu       sync.Mutex
	source   Source
	window   []scoring.FeedItem
	position int
	size     int
}

// NewCursor creates a cursor and loads its first window
func NewCursor(source Source, size int) *Cursor {
	if size <= 0 {
		size = DefaultWindowSize
	}
	c := &Cursor{source: source, size: size}
	c.Refresh()
	return c
}

// Refresh reloads the window from the source and resets the position
func (c *Cursor) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

func (c *Cursor) refreshLocked() {
	c.window = c.source.Latest(c.size)
	c.position = 0
}

// Current returns the item at the cursor, or false when the window is empty
func (c *Cursor) Current() (scoring.FeedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Cursor) currentLocked() (scoring.FeedItem, bool) {
	if len(c.window) == 0 || c.position >= len(c.window) {
		return scoring.FeedItem{}, false
	}
	return c.window[c.position], true
}

// Next advances the cursor. At the last item it refreshes exactly once; if
// the window is still empty afterwards it reports nothing.
func (c *Cursor) Next() (scoring.FeedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.position < len(c.window)-1 {
		c.position++
		return c.window[c.position], true
	}

	c.refreshLocked()
	return c.currentLocked()
}

// Previous moves the cursor back, or reports nothing at the window start
func (c *Cursor) Previous() (scoring.FeedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.position == 0 {
		return scoring.FeedItem{}, false
	}
	c.position--
	return c.window[c.position], true
}

// Preview returns up to count upcoming items without moving the cursor
func (c *Cursor) Preview(count int) []scoring.FeedItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.position + 1
	end := start + count
	if end > len(c.window) {
		end = len(c.window)
	}
	if start >= end {
		return nil
	}
	out := make([]scoring.FeedItem, end-start)
	copy(out, c.window[start:end])
	return out
}

// FilterByAgent replaces the window with the agent's content and resets the
// position
func (c *Cursor) FilterByAgent(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.source.ByAgent(agentID, c.size)
	c.position = 0
}

// FilterByTopic replaces the window with the topic's content and resets the
// position
func (c *Cursor) FilterByTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.source.ByTopic(topic, c.size)
	c.position = 0
}

// ClearFilters drops any filter and reloads the unfiltered window
func (c *Cursor) ClearFilters() {
	c.Refresh()
}
