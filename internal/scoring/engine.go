// Package scoring implements the read-only ranking computations over the
// graph: trending content, personalized recommendations, user/content
// similarity and centrality-based topic structure discovery. All functions
// tolerate an empty or partially populated graph; missing data scores zero.
package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
)

// DefaultTrendingWindow is the interval over which engagement events count
// toward the trending score
const DefaultTrendingWindow = 24 * time.Hour

// engagement type weights for the trending score
var trendingTypeWeights = map[graph.EdgeType]float64{
	graph.EdgeLikes:    2.0,
	graph.EdgeComments: 3.0,
	graph.EdgeShares:   4.0,
	graph.EdgeViews:    0.5,
}

// ScoredItem is one ranked result with the evidence behind it
type ScoredItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Engine computes rankings against the latest committed graph state
type Engine struct {
	store  *graph.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a scoring engine over the given store
func NewEngine(store *graph.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// SetClock overrides the engine's time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// TrendingContent ranks content by recency-weighted engagement within the
// window. Content with no eligible events scores zero and is omitted.
func (e *Engine) TrendingContent(limit int, window time.Duration) []ScoredItem {
	if window <= 0 {
		window = DefaultTrendingWindow
	}
	now := e.now()
	windowHours := window.Hours()

	var items []ScoredItem
	for _, content := range e.store.NodesByKind(graph.KindContent) {
		score := e.trendingScore(content, now, windowHours)
		if score > 0 {
			items = append(items, ScoredItem{ID: content.ID(), Name: content.Name(), Score: score})
		}
	}
	return topN(items, limit)
}

func (e *Engine) trendingScore(content *graph.Node, now time.Time, windowHours float64) float64 {
	eventCount := 0
	recencySum := 0.0
	for _, edge := range e.store.EdgesTo(content.ID(), "") {
		weight, eligible := trendingTypeWeights[edge.Type()]
		if !eligible {
			continue
		}
		hoursAgo := now.Sub(edge.CreatedAt()).Hours()
		if hoursAgo > windowHours {
			continue
		}
		recencyWeight := 1.0 - hoursAgo/windowHours
		if recencyWeight < 0 {
			recencyWeight = 0
		}
		eventCount++
		recencySum += weight * recencyWeight
	}
	if eventCount == 0 {
		return 0
	}

	daysOld := now.Sub(content.CreatedAt()).Hours() / 24
	agePenalty := daysOld / 30
	if agePenalty > 0.5 {
		agePenalty = 0.5
	}
	if agePenalty < 0 {
		agePenalty = 0
	}
	return (recencySum / (1 + agePenalty)) * (1 + float64(eventCount)/10)
}

// RecommendedContent ranks unseen content for a user by social signals:
// followed creators, interest overlap, similar users' likes and a small
// popularity baseline. Unknown users get an empty result, not an error.
func (e *Engine) RecommendedContent(userID string, limit int, excludeSeen bool) []ScoredItem {
	if _, err := e.store.GetNode(userID); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	interests := make(map[string]bool)
	followed := make(map[string]bool)
	for _, edge := range e.store.EdgesFrom(userID, "") {
		switch edge.Type() {
		case graph.EdgeViews, graph.EdgeLikes:
			if excludeSeen {
				seen[edge.TargetID()] = true
			}
		case graph.EdgeInterestIn:
			interests[edge.TargetID()] = true
		case graph.EdgeFollows:
			followed[edge.TargetID()] = true
		}
	}

	scores := make(map[string]float64)

	// Content created by followed users.
	for creatorID := range followed {
		for _, edge := range e.store.EdgesTo(creatorID, graph.EdgeCreatedBy) {
			contentID := edge.SourceID()
			if !seen[contentID] {
				scores[contentID] += 3
			}
		}
	}

	// Content tagged with the user's interests.
	for interestID := range interests {
		for _, edge := range e.store.EdgesTo(interestID, graph.EdgeHasTag) {
			if !seen[edge.SourceID()] {
				scores[edge.SourceID()] += 2
			}
		}
	}

	// Content liked by similar users, weighted by similarity.
	for _, similar := range e.SimilarUsers(userID, 20) {
		for _, edge := range e.store.EdgesFrom(similar.ID, graph.EdgeLikes) {
			if !seen[edge.TargetID()] {
				scores[edge.TargetID()] += similar.Score * 0.5
			}
		}
	}

	// Popularity baseline over every unseen content node.
	for _, content := range e.store.NodesByKind(graph.KindContent) {
		if seen[content.ID()] {
			continue
		}
		props := content.Content()
		scores[content.ID()] += 0.1 * (1 + float64(props.LikeCount)/float64(props.ViewCount+1))
	}

	items := make([]ScoredItem, 0, len(scores))
	for contentID, score := range scores {
		node, err := e.store.GetNode(contentID)
		if err != nil {
			continue
		}
		items = append(items, ScoredItem{
			ID:      contentID,
			Name:    node.Name(),
			Score:   score,
			Reasons: e.recommendationReasons(userID, contentID, interests, followed),
		})
	}
	return topN(items, limit)
}

// recommendationReasons explains a recommendation in user-facing terms
func (e *Engine) recommendationReasons(userID, contentID string, interests, followed map[string]bool) []string {
	var reasons []string

	for _, edge := range e.store.GetEdges(contentID, "", graph.EdgeCreatedBy) {
		if !followed[edge.TargetID()] {
			continue
		}
		creator, err := e.store.GetNode(edge.TargetID())
		if err != nil {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("Created by %s who you follow", creator.Name()))
	}

	var interestNames []string
	for _, edge := range e.store.GetEdges(contentID, "", graph.EdgeHasTag) {
		if !interests[edge.TargetID()] {
			continue
		}
		if tag, err := e.store.GetNode(edge.TargetID()); err == nil {
			interestNames = append(interestNames, tag.Name())
		}
	}
	if len(interestNames) > 0 {
		sort.Strings(interestNames)
		if len(interestNames) > 3 {
			interestNames = interestNames[:3]
		}
		reasons = append(reasons, "Related to your interests: "+strings.Join(interestNames, ", "))
	}

	if node, err := e.store.GetNode(contentID); err == nil {
		if likes := node.Content().LikeCount; likes > 100 {
			reasons = append(reasons, fmt.Sprintf("Popular with %d likes", likes))
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Based on your activity")
	}
	return reasons
}

// SimilarUsers ranks users by structural overlap with the given user:
// co-liked content, shared interests and friend-of-follow relations
func (e *Engine) SimilarUsers(userID string, limit int) []ScoredItem {
	if _, err := e.store.GetNode(userID); err != nil {
		return nil
	}

	var liked, interests, follows []string
	for _, edge := range e.store.EdgesFrom(userID, "") {
		switch edge.Type() {
		case graph.EdgeLikes:
			liked = append(liked, edge.TargetID())
		case graph.EdgeInterestIn:
			interests = append(interests, edge.TargetID())
		case graph.EdgeFollows:
			follows = append(follows, edge.TargetID())
		}
	}

	scores := make(map[string]float64)
	for _, contentID := range liked {
		for _, edge := range e.store.EdgesTo(contentID, graph.EdgeLikes) {
			if edge.SourceID() != userID {
				scores[edge.SourceID()] += 1
			}
		}
	}
	for _, interestID := range interests {
		for _, edge := range e.store.EdgesTo(interestID, graph.EdgeInterestIn) {
			if edge.SourceID() != userID {
				scores[edge.SourceID()] += 2
			}
		}
	}
	for _, followedID := range follows {
		for _, edge := range e.store.EdgesFrom(followedID, graph.EdgeFollows) {
			if edge.TargetID() != userID {
				scores[edge.TargetID()] += 0.5
			}
		}
	}

	items := make([]ScoredItem, 0, len(scores))
	for id, score := range scores {
		name := ""
		if node, err := e.store.GetNode(id); err == nil {
			name = node.Name()
		}
		items = append(items, ScoredItem{ID: id, Name: name, Score: score})
	}
	return topN(items, limit)
}

// SimilarContent ranks content by hashtag overlap (x2 per shared tag) with a
// +3 bonus for sharing a creator. The content itself is excluded; zero
// overlap means omitted.
func (e *Engine) SimilarContent(contentID string, limit int) []ScoredItem {
	if _, err := e.store.GetNode(contentID); err != nil {
		return nil
	}

	tags := make(map[string]bool)
	creator := ""
	for _, edge := range e.store.EdgesFrom(contentID, "") {
		switch edge.Type() {
		case graph.EdgeHasTag:
			tags[edge.TargetID()] = true
		case graph.EdgeCreatedBy:
			creator = edge.TargetID()
		}
	}

	var items []ScoredItem
	for _, other := range e.store.NodesByKind(graph.KindContent) {
		if other.ID() == contentID {
			continue
		}
		shared := 0
		sameCreator := false
		for _, edge := range e.store.EdgesFrom(other.ID(), "") {
			switch edge.Type() {
			case graph.EdgeHasTag:
				if tags[edge.TargetID()] {
					shared++
				}
			case graph.EdgeCreatedBy:
				sameCreator = creator != "" && edge.TargetID() == creator
			}
		}
		score := float64(shared) * 2
		if sameCreator {
			score += 3
		}
		if score > 0 {
			items = append(items, ScoredItem{ID: other.ID(), Name: other.Name(), Score: score})
		}
	}
	return topN(items, limit)
}

// FeedItem is one entry of a blended user feed
type FeedItem struct {
	ScoredItem
	Source string `json:"source"` // "recommended" or "trending"
}

// UserFeed blends personalized recommendations (70%) with trending content
// (30%). Trending-only entries carry a 0.8 score penalty; duplicates keep
// the recommended entry.
func (e *Engine) UserFeed(userID string, limit int) []FeedItem {
	if limit <= 0 {
		limit = 20
	}
	recommended := e.RecommendedContent(userID, limit*7/10, true)
	trending := e.TrendingContent(limit, DefaultTrendingWindow)

	feed := make([]FeedItem, 0, limit)
	inFeed := make(map[string]bool, len(recommended))
	for _, item := range recommended {
		feed = append(feed, FeedItem{ScoredItem: item, Source: "recommended"})
		inFeed[item.ID] = true
	}
	for _, item := range trending {
		if len(feed) >= limit {
			break
		}
		if inFeed[item.ID] {
			continue
		}
		item.Score *= 0.8
		feed = append(feed, FeedItem{ScoredItem: item, Source: "trending"})
		inFeed[item.ID] = true
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if feed[i].Score != feed[j].Score {
			return feed[i].Score > feed[j].Score
		}
		return feed[i].ID < feed[j].ID
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// topN sorts descending by score with ties broken by id ascending, keeping
// results deterministic for a fixed graph
func topN(items []ScoredItem, limit int) []ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
