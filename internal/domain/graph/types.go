// Package graph implements the property graph at the core of the engine:
// typed nodes and edges, an idempotent upsert index, bounded traversal and
// flat-file snapshot persistence.
package graph

// NodeKind identifies the domain entity a node represents
type NodeKind string

const (
	KindUser    NodeKind = "USER"
	KindContent NodeKind = "CONTENT"
	KindTopic   NodeKind = "TOPIC"
	KindHashtag NodeKind = "HASHTAG"
	KindAgent   NodeKind = "AGENT"
)

// ValidKind reports whether k is one of the known node kinds
func ValidKind(k NodeKind) bool {
	switch k {
	case KindUser, KindContent, KindTopic, KindHashtag, KindAgent:
		return true
	}
	return false
}

// EdgeType identifies the relationship an edge represents
type EdgeType string

const (
	EdgeFollows         EdgeType = "FOLLOWS"
	EdgeLikes           EdgeType = "LIKES"
	EdgeViews           EdgeType = "VIEWS"
	EdgeShares          EdgeType = "SHARES"
	EdgeComments        EdgeType = "COMMENTS"
	EdgeHasTag          EdgeType = "HAS_TAG"
	EdgeCreatedBy       EdgeType = "CREATED_BY"
	EdgeInterestIn      EdgeType = "INTEREST_IN"
	EdgeSimilarTo       EdgeType = "SIMILAR_TO"
	EdgeSpecializesIn   EdgeType = "SPECIALIZES_IN"
	EdgeExplains        EdgeType = "EXPLAINS"
	EdgeEntertainsAbout EdgeType = "ENTERTAINS_ABOUT"
)

// ValidEdgeType reports whether t is one of the known edge types
func ValidEdgeType(t EdgeType) bool {
	switch t {
	case EdgeFollows, EdgeLikes, EdgeViews, EdgeShares, EdgeComments,
		EdgeHasTag, EdgeCreatedBy, EdgeInterestIn, EdgeSimilarTo,
		EdgeSpecializesIn, EdgeExplains, EdgeEntertainsAbout:
		return true
	}
	return false
}

// EMA learning rates. General engagement signals move slowly; the trending
// signal decays faster by design of the ranking model.
const (
	alphaEngagement = 0.3
	alphaTrending   = 0.5
)

// ema applies one exponential-moving-average step
func ema(current, sample, alpha float64) float64 {
	return (1-alpha)*current + alpha*sample
}

// UserProps holds the property set of a USER node
type UserProps struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// ContentProps holds the property set of a CONTENT node
type ContentProps struct {
	Title         string         `json:"title"`
	ContentType   string         `json:"content_type"`
	AgentID       string         `json:"agent_id,omitempty"`
	AgentName     string         `json:"agent_name,omitempty"`
	ViewCount     int            `json:"view_count"`
	LikeCount     int            `json:"like_count"`
	CommentCount  int            `json:"comment_count"`
	ShareCount    int            `json:"share_count"`
	TotalViewTime float64        `json:"total_view_time"`
	Tags          []string       `json:"tags,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// EngagementMetrics summarizes per-content engagement for feedback loops
type EngagementMetrics struct {
	Views       int     `json:"views"`
	Likes       int     `json:"likes"`
	AvgViewTime float64 `json:"avg_view_time"`
	LikesPerView float64 `json:"likes_per_view"`
}

// TopicProps holds the property set of a TOPIC node
type TopicProps struct {
	Categories         []string           `json:"categories,omitempty"`
	EngagementScore    float64            `json:"engagement_score"`
	TrendingScore      float64            `json:"trending_score"`
	Complexity         int                `json:"complexity"`
	EntertainmentValue float64            `json:"entertainment_value"`
	AgentScores        map[string]float64 `json:"agent_scores,omitempty"`
	Extra              map[string]any     `json:"extra,omitempty"`
}

// HashtagProps holds the property set of a HASHTAG node
type HashtagProps struct {
	UsageCount int            `json:"usage_count"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// AgentProps holds the property set of an AGENT node
type AgentProps struct {
	Personality        string             `json:"personality,omitempty"`
	Specializations    []string           `json:"specializations,omitempty"`
	ContentCount       int                `json:"content_count"`
	TotalEngagement    float64            `json:"total_engagement"`
	PerformanceByTopic map[string]float64 `json:"performance_by_topic,omitempty"`
	Extra              map[string]any     `json:"extra,omitempty"`
}

// EdgeProps holds the typed properties an edge can carry. Only the fields
// relevant to the edge's type are populated; Extra carries anything else.
type EdgeProps struct {
	Duration   float64        `json:"duration,omitempty"`
	Platform   string         `json:"platform,omitempty"`
	CommentID  string         `json:"comment_id,omitempty"`
	Score      float64        `json:"score,omitempty"`
	Complexity int            `json:"complexity,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyFloats(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyExtra(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
