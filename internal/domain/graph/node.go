package graph

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "weave-backend/pkg/errors"
)

// Node is an entity in the property graph. Fields are encapsulated; mutation
// happens through Store operations so that writes stay serialized.
type Node struct {
	id        string
	kind      NodeKind
	name      string
	createdAt time.Time
	updatedAt time.Time

	// Exactly one of these is non-nil, matching the node's kind.
	user    *UserProps
	content *ContentProps
	topic   *TopicProps
	hashtag *HashtagProps
	agent   *AgentProps
}

func newNode(kind NodeKind, name string, now time.Time) *Node {
	return &Node{
		id:        uuid.NewString(),
		kind:      kind,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}
}

// NewUserNode creates a USER node for the given username
func NewUserNode(username string, now time.Time) (*Node, error) {
	if username == "" {
		return nil, pkgerrors.NewValidation("username cannot be empty")
	}
	n := newNode(KindUser, username, now)
	n.user = &UserProps{Username: username}
	return n, nil
}

// NewContentNode creates a CONTENT node. The caller-supplied id (the platform's
// content id) becomes the node id so engagement events can address it directly.
func NewContentNode(id, title, contentType, agentID, agentName string, now time.Time) (*Node, error) {
	if id == "" {
		return nil, pkgerrors.NewValidation("content id cannot be empty")
	}
	if contentType == "" {
		contentType = "text"
	}
	n := newNode(KindContent, title, now)
	n.id = id
	n.content = &ContentProps{
		Title:       title,
		ContentType: contentType,
		AgentID:     agentID,
		AgentName:   agentName,
	}
	return n, nil
}

// NewTopicNode creates a TOPIC node. Complexity starts mid-scale.
func NewTopicNode(name string, categories []string, now time.Time) (*Node, error) {
	if name == "" {
		return nil, pkgerrors.NewValidation("topic name cannot be empty")
	}
	n := newNode(KindTopic, name, now)
	n.topic = &TopicProps{
		Categories: copyStrings(categories),
		Complexity: 3,
	}
	return n, nil
}

// NewHashtagNode creates a HASHTAG node
func NewHashtagNode(tag string, now time.Time) (*Node, error) {
	if tag == "" {
		return nil, pkgerrors.NewValidation("hashtag cannot be empty")
	}
	n := newNode(KindHashtag, tag, now)
	n.hashtag = &HashtagProps{}
	return n, nil
}

// NewAgentNode creates an AGENT node. The agent's own id becomes the node id.
func NewAgentNode(agentID, name, personality string, specializations []string, now time.Time) (*Node, error) {
	if agentID == "" {
		return nil, pkgerrors.NewValidation("agent id cannot be empty")
	}
	n := newNode(KindAgent, name, now)
	n.id = agentID
	n.agent = &AgentProps{
		Personality:        personality,
		Specializations:    copyStrings(specializations),
		PerformanceByTopic: make(map[string]float64),
	}
	return n, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() string { return n.id }

// Kind returns the node's kind
func (n *Node) Kind() NodeKind { return n.kind }

// Name returns the node's display name (username, title, topic name, ...)
func (n *Node) Name() string { return n.name }

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// User returns a copy of the USER property set, or a zero value for other kinds
func (n *Node) User() UserProps {
	if n.user == nil {
		return UserProps{}
	}
	p := *n.user
	p.Extra = copyExtra(n.user.Extra)
	return p
}

// Content returns a copy of the CONTENT property set
func (n *Node) Content() ContentProps {
	if n.content == nil {
		return ContentProps{}
	}
	p := *n.content
	p.Tags = copyStrings(n.content.Tags)
	p.Extra = copyExtra(n.content.Extra)
	return p
}

// Topic returns a copy of the TOPIC property set
func (n *Node) Topic() TopicProps {
	if n.topic == nil {
		return TopicProps{}
	}
	p := *n.topic
	p.Categories = copyStrings(n.topic.Categories)
	p.AgentScores = copyFloats(n.topic.AgentScores)
	p.Extra = copyExtra(n.topic.Extra)
	return p
}

// Hashtag returns a copy of the HASHTAG property set
func (n *Node) Hashtag() HashtagProps {
	if n.hashtag == nil {
		return HashtagProps{}
	}
	p := *n.hashtag
	p.Extra = copyExtra(n.hashtag.Extra)
	return p
}

// Agent returns a copy of the AGENT property set
func (n *Node) Agent() AgentProps {
	if n.agent == nil {
		return AgentProps{}
	}
	p := *n.agent
	p.Specializations = copyStrings(n.agent.Specializations)
	p.PerformanceByTopic = copyFloats(n.agent.PerformanceByTopic)
	p.Extra = copyExtra(n.agent.Extra)
	return p
}

// clone returns a detached copy of the node. Property maps and slices are
// deep-copied so the result stays valid after the store lock is released,
// while writers keep mutating the live node. Must be called under the store
// lock.
func (n *Node) clone() *Node {
	c := *n
	switch {
	case n.user != nil:
		p := n.User()
		c.user = &p
	case n.content != nil:
		p := n.Content()
		c.content = &p
	case n.topic != nil:
		p := n.Topic()
		c.topic = &p
	case n.hashtag != nil:
		p := n.Hashtag()
		c.hashtag = &p
	case n.agent != nil:
		p := n.Agent()
		c.agent = &p
	}
	return &c
}

// touch updates the node's modification timestamp
func (n *Node) touch(now time.Time) {
	n.updatedAt = now
}

// recordView bumps the view counter and accumulated view time
func (n *Node) recordView(duration float64, now time.Time) {
	n.content.ViewCount++
	if duration > 0 {
		n.content.TotalViewTime += duration
	}
	n.touch(now)
}

// addLike bumps the like counter
func (n *Node) addLike(now time.Time) {
	n.content.LikeCount++
	n.touch(now)
}

// addComment bumps the comment counter
func (n *Node) addComment(now time.Time) {
	n.content.CommentCount++
	n.touch(now)
}

// addShare bumps the share counter
func (n *Node) addShare(now time.Time) {
	n.content.ShareCount++
	n.touch(now)
}

// addTag appends a tag if not already present
func (n *Node) addTag(tag string, now time.Time) {
	for _, t := range n.content.Tags {
		if t == tag {
			return
		}
	}
	n.content.Tags = append(n.content.Tags, tag)
	n.touch(now)
}

// engagementMetrics derives the per-content feedback metrics
func (n *Node) engagementMetrics() EngagementMetrics {
	m := EngagementMetrics{
		Views: n.content.ViewCount,
		Likes: n.content.LikeCount,
	}
	if m.Views > 0 {
		m.AvgViewTime = n.content.TotalViewTime / float64(m.Views)
		m.LikesPerView = float64(m.Likes) / float64(m.Views)
	}
	return m
}

// updateEngagement applies one EMA step to the topic's engagement score.
// When an agent id is given, the raw sample is also remembered per agent.
func (n *Node) updateEngagement(sample float64, agentID string, now time.Time) {
	n.topic.EngagementScore = ema(n.topic.EngagementScore, sample, alphaEngagement)
	if agentID != "" {
		if n.topic.AgentScores == nil {
			n.topic.AgentScores = make(map[string]float64)
		}
		n.topic.AgentScores[agentID] = sample
	}
	n.touch(now)
}

// updateTrending applies one EMA step to the topic's trending score, which
// uses the faster learning rate
func (n *Node) updateTrending(sample float64, now time.Time) {
	n.topic.TrendingScore = ema(n.topic.TrendingScore, sample, alphaTrending)
	n.touch(now)
}

// updateComplexity raises the topic's complexity level when the new engagement
// beats the current aggregate. The level is never lowered.
func (n *Node) updateComplexity(level int, engagement float64, now time.Time) {
	if engagement > n.topic.EngagementScore {
		n.topic.Complexity = level
	}
	n.touch(now)
}

// updateEntertainment applies one EMA step to the topic's entertainment value
func (n *Node) updateEntertainment(sample float64, now time.Time) {
	n.topic.EntertainmentValue = ema(n.topic.EntertainmentValue, sample, alphaEngagement)
	n.touch(now)
}

// recordAgentContent tracks a published piece and folds its engagement into
// the agent's per-topic performance EMA
func (n *Node) recordAgentContent(topic string, engagement float64, now time.Time) {
	n.agent.ContentCount++
	n.agent.TotalEngagement += engagement
	if n.agent.PerformanceByTopic == nil {
		n.agent.PerformanceByTopic = make(map[string]float64)
	}
	if current, ok := n.agent.PerformanceByTopic[topic]; ok {
		n.agent.PerformanceByTopic[topic] = ema(current, engagement, alphaEngagement)
	} else {
		n.agent.PerformanceByTopic[topic] = engagement
	}
	n.touch(now)
}

// ReconstructNode rebuilds a node from snapshot data with preserved timestamps.
// Exactly one property set should be non-nil for the given kind.
func ReconstructNode(
	id string,
	kind NodeKind,
	name string,
	createdAt, updatedAt time.Time,
	user *UserProps,
	content *ContentProps,
	topic *TopicProps,
	hashtag *HashtagProps,
	agent *AgentProps,
) (*Node, error) {
	if id == "" {
		return nil, pkgerrors.NewValidation("node id cannot be empty")
	}
	if !ValidKind(kind) {
		return nil, pkgerrors.NewValidation("unknown node kind: " + string(kind))
	}
	n := &Node{
		id:        id,
		kind:      kind,
		name:      name,
		createdAt: createdAt,
		updatedAt: updatedAt,
		user:      user,
		content:   content,
		topic:     topic,
		hashtag:   hashtag,
		agent:     agent,
	}
	// Guarantee the kind's property set exists even if the snapshot omitted it.
	switch kind {
	case KindUser:
		if n.user == nil {
			n.user = &UserProps{Username: name}
		}
	case KindContent:
		if n.content == nil {
			n.content = &ContentProps{Title: name, ContentType: "text"}
		}
	case KindTopic:
		if n.topic == nil {
			n.topic = &TopicProps{Complexity: 3}
		}
	case KindHashtag:
		if n.hashtag == nil {
			n.hashtag = &HashtagProps{}
		}
	case KindAgent:
		if n.agent == nil {
			n.agent = &AgentProps{}
		}
	}
	return n, nil
}
