package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
)

type fixture struct {
	store  *graph.Store
	engine *Engine
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := graph.NewStore("", zap.NewNop())
	require.NoError(t, err)

	f := &fixture{
		store:  store,
		engine: NewEngine(store, zap.NewNop()),
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	store.SetClock(func() time.Time { return f.now })
	f.engine.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	id, err := f.store.UpsertNode(graph.KindUser, name, nil)
	require.NoError(t, err)
	return id
}

func (f *fixture) content(t *testing.T, id, creatorID string, tags ...string) string {
	t.Helper()
	_, err := f.store.UpsertNode(graph.KindContent, id, map[string]any{"title": id})
	require.NoError(t, err)
	if creatorID != "" {
		_, err = f.store.AddEdge(graph.EdgeCreatedBy, id, creatorID, 0, graph.EdgeProps{})
		require.NoError(t, err)
	}
	for _, tag := range tags {
		tagNode, err := f.store.GetOrCreateHashtag(tag)
		require.NoError(t, err)
		_, err = f.store.AddEdge(graph.EdgeHasTag, id, tagNode.ID(), 0, graph.EdgeProps{})
		require.NoError(t, err)
	}
	return id
}

func TestTrendingContent_RecencyMonotonic(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	// Same event mix, different ages: fresher engagement must never rank lower.
	f.content(t, "fresh", "")
	f.content(t, "stale", "")

	f.now = f.now.Add(-20 * time.Hour)
	require.NoError(t, f.store.RecordLike("stale", alice))
	require.NoError(t, f.store.RecordLike("stale", bob))

	f.now = f.now.Add(19 * time.Hour) // one hour ago
	require.NoError(t, f.store.RecordLike("fresh", alice))
	require.NoError(t, f.store.RecordLike("fresh", bob))
	f.now = f.now.Add(1 * time.Hour)

	items := f.engine.TrendingContent(10, DefaultTrendingWindow)
	require.Len(t, items, 2)
	assert.Equal(t, "fresh", items[0].ID)
	assert.Greater(t, items[0].Score, items[1].Score)
}

func TestTrendingContent_ZeroEventsOmitted(t *testing.T) {
	f := newFixture(t)
	f.content(t, "silent", "")

	assert.Empty(t, f.engine.TrendingContent(10, DefaultTrendingWindow))
}

func TestTrendingContent_EventsOutsideWindowIgnored(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.content(t, "old-news", "")

	f.now = f.now.Add(-48 * time.Hour)
	require.NoError(t, f.store.RecordLike("old-news", alice))
	f.now = f.now.Add(48 * time.Hour)

	assert.Empty(t, f.engine.TrendingContent(10, DefaultTrendingWindow))
}

func TestTrendingContent_TypeWeights(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.content(t, "shared", "")
	f.content(t, "viewed", "")

	require.NoError(t, f.store.RecordShare("shared", alice, "bluesky"))
	require.NoError(t, f.store.RecordView("viewed", alice, 30))

	items := f.engine.TrendingContent(10, DefaultTrendingWindow)
	require.Len(t, items, 2)
	assert.Equal(t, "shared", items[0].ID, "shares weigh 4.0 against 0.5 for views")
}

func TestRecommendedContent_FollowedCreatorOutranks(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	friend := f.user(t, "friend")
	stranger := f.user(t, "stranger")

	_, err := f.store.AddEdge(graph.EdgeFollows, alice, friend, 0, graph.EdgeProps{})
	require.NoError(t, err)

	f.content(t, "from-friend", friend)
	f.content(t, "from-stranger", stranger)

	items := f.engine.RecommendedContent(alice, 10, true)
	require.Len(t, items, 2)
	assert.Equal(t, "from-friend", items[0].ID)
	assert.GreaterOrEqual(t, items[0].Score-items[1].Score, 3.0-1e-9)
	assert.Contains(t, items[0].Reasons[0], "friend")
}

func TestRecommendedContent_InterestOverlap(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	f.content(t, "go-post", "", "golang", "programming")
	f.content(t, "cat-post", "", "cats")

	tag, ok := f.store.NodeByKey(graph.KindHashtag, "golang")
	require.True(t, ok)
	_, err := f.store.AddEdge(graph.EdgeInterestIn, alice, tag.ID(), 0.8, graph.EdgeProps{})
	require.NoError(t, err)

	items := f.engine.RecommendedContent(alice, 10, true)
	require.Len(t, items, 2)
	assert.Equal(t, "go-post", items[0].ID)
	assert.Contains(t, items[0].Reasons, "Related to your interests: golang")
}

func TestRecommendedContent_ExcludesSeen(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.content(t, "seen-post", "")
	f.content(t, "new-post", "")

	require.NoError(t, f.store.RecordView("seen-post", alice, 10))

	items := f.engine.RecommendedContent(alice, 10, true)
	require.Len(t, items, 1)
	assert.Equal(t, "new-post", items[0].ID)

	all := f.engine.RecommendedContent(alice, 10, false)
	assert.Len(t, all, 2)
}

func TestRecommendedContent_UnknownUserEmpty(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.engine.RecommendedContent("ghost", 10, true))
}

func TestSimilarUsers_Weights(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	coLiker := f.user(t, "co-liker")
	interestTwin := f.user(t, "interest-twin")

	f.content(t, "post-1", "")
	require.NoError(t, f.store.RecordLike("post-1", alice))
	require.NoError(t, f.store.RecordLike("post-1", coLiker))

	tag, err := f.store.GetOrCreateHashtag("golang")
	require.NoError(t, err)
	_, err = f.store.AddEdge(graph.EdgeInterestIn, alice, tag.ID(), 0.5, graph.EdgeProps{})
	require.NoError(t, err)
	_, err = f.store.AddEdge(graph.EdgeInterestIn, interestTwin, tag.ID(), 0.5, graph.EdgeProps{})
	require.NoError(t, err)

	items := f.engine.SimilarUsers(alice, 10)
	require.Len(t, items, 2)
	assert.Equal(t, interestTwin, items[0].ID, "shared interest (+2) beats co-like (+1)")
	assert.Equal(t, 2.0, items[0].Score)
	assert.Equal(t, 1.0, items[1].Score)
}

func TestSimilarUsers_FriendOfFollow(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	_, err := f.store.AddEdge(graph.EdgeFollows, alice, bob, 0, graph.EdgeProps{})
	require.NoError(t, err)
	_, err = f.store.AddEdge(graph.EdgeFollows, bob, carol, 0, graph.EdgeProps{})
	require.NoError(t, err)

	items := f.engine.SimilarUsers(alice, 10)
	require.Len(t, items, 1)
	assert.Equal(t, carol, items[0].ID)
	assert.Equal(t, 0.5, items[0].Score)
}

func TestSimilarContent_ExcludesSelfAndZeroOverlap(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator")

	f.content(t, "base", creator, "golang", "graphs")
	f.content(t, "overlap", "", "golang")
	f.content(t, "same-creator", creator)
	f.content(t, "unrelated", "", "cats")

	items := f.engine.SimilarContent("base", 10)
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	assert.NotContains(t, ids, "base")
	assert.NotContains(t, ids, "unrelated")
	require.Len(t, items, 2)
	assert.Equal(t, "same-creator", items[0].ID)
	assert.Equal(t, 3.0, items[0].Score)
	assert.Equal(t, 2.0, items[1].Score)
}

func TestUserFeed_BlendsAndDeduplicates(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	friend := f.user(t, "friend")
	liker := f.user(t, "liker")
	_, err := f.store.AddEdge(graph.EdgeFollows, alice, friend, 0, graph.EdgeProps{})
	require.NoError(t, err)

	f.content(t, "from-friend", friend)
	f.content(t, "hot-post", "")
	require.NoError(t, f.store.RecordLike("hot-post", liker))
	require.NoError(t, f.store.RecordLike("from-friend", liker))

	feed := f.engine.UserFeed(alice, 10)
	require.NotEmpty(t, feed)

	seen := make(map[string]int)
	for _, item := range feed {
		seen[item.ID]++
	}
	assert.Equal(t, 1, seen["from-friend"], "duplicates keep the recommended entry")

	for _, item := range feed {
		if item.ID == "from-friend" {
			assert.Equal(t, "recommended", item.Source)
		}
		if item.ID == "hot-post" && item.Source == "trending" {
			raw := f.engine.TrendingContent(10, DefaultTrendingWindow)
			for _, trend := range raw {
				if trend.ID == "hot-post" {
					assert.InDelta(t, trend.Score*0.8, item.Score, 1e-9)
				}
			}
		}
	}
}

func TestScoring_EmptyGraphSafe(t *testing.T) {
	f := newFixture(t)

	assert.Empty(t, f.engine.TrendingContent(10, 0))
	assert.Empty(t, f.engine.SimilarContent("nothing", 10))
	assert.Empty(t, f.engine.SimilarUsers("nobody", 10))
	assert.Empty(t, f.engine.UserFeed("nobody", 10))
}
