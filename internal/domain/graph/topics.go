package graph

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// defaultTopics seeds a fresh graph so agents have candidates to draw from
// before any organic topic activity exists
var defaultTopics = []struct {
	name       string
	categories []string
}{
	{"Technology", []string{"science", "technology"}},
	{"Science", []string{"science"}},
	{"Entertainment", []string{"entertainment", "pop culture"}},
	{"Sports", []string{"entertainment"}},
	{"Politics", []string{"current events"}},
	{"Health", []string{"science", "health"}},
	{"Environment", []string{"science", "current events"}},
	{"Business", []string{"business", "current events"}},
	{"Education", []string{"education"}},
	{"Art", []string{"entertainment", "art"}},
}

func (s *Store) seedDefaultTopics() {
	now := s.now()
	for _, t := range defaultTopics {
		n, err := NewTopicNode(t.name, t.categories, now)
		if err != nil {
			continue
		}
		s.insertNodeLocked(n, t.name)
		n.updateTrending(0.5, now)
	}
	s.logger.Info("seeded default topics", zap.Int("count", len(defaultTopics)))
}

// GetOrCreateTopic returns a detached copy of the topic node with the given
// name, creating the topic lazily on first reference
func (s *Store) GetOrCreateTopic(name string, categories []string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.getOrCreateTopicLocked(name, categories, s.now())
	if err != nil {
		return nil, err
	}
	return n.clone(), nil
}

func (s *Store) getOrCreateTopicLocked(name string, categories []string, now time.Time) (*Node, error) {
	if id, ok := s.keys[externalKey{KindTopic, name}]; ok {
		n := s.nodes[id]
		if len(categories) > 0 {
			n.topic.Categories = mergeStrings(n.topic.Categories, categories)
		}
		return n, nil
	}
	n, err := NewTopicNode(name, categories, now)
	if err != nil {
		return nil, err
	}
	s.insertNodeLocked(n, name)
	return n, nil
}

// GetOrCreateHashtag returns a detached copy of the hashtag node for tag,
// creating the hashtag lazily
func (s *Store) GetOrCreateHashtag(tag string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.getOrCreateHashtagLocked(tag, s.now())
	if err != nil {
		return nil, err
	}
	return n.clone(), nil
}

func (s *Store) getOrCreateHashtagLocked(tag string, now time.Time) (*Node, error) {
	if id, ok := s.keys[externalKey{KindHashtag, tag}]; ok {
		return s.nodes[id], nil
	}
	n, err := NewHashtagNode(tag, now)
	if err != nil {
		return nil, err
	}
	s.insertNodeLocked(n, tag)
	return n, nil
}

// TrendingTopics returns topic names ordered by trending score descending,
// ties broken by name so results are stable
func (s *Store) TrendingTopics(limit int) []string {
	return s.rankedTopics(limit, func(t *TopicProps) float64 { return t.TrendingScore })
}

// PopularTopics returns topic names ordered by engagement score descending
func (s *Store) PopularTopics(limit int) []string {
	return s.rankedTopics(limit, func(t *TopicProps) float64 { return t.EngagementScore })
}

func (s *Store) rankedTopics(limit int, score func(*TopicProps) float64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := s.nodesByKindLocked(KindTopic)
	sort.SliceStable(topics, func(i, j int) bool {
		si, sj := score(topics[i].topic), score(topics[j].topic)
		if si != sj {
			return si > sj
		}
		return topics[i].name < topics[j].name
	})

	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.name
	}
	return names
}

// TopicsByCategory returns the names of topics belonging to any of the given
// categories, ordered by name
func (s *Store) TopicsByCategory(categories []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	var names []string
	for _, t := range s.nodesByKindLocked(KindTopic) {
		for _, c := range t.topic.Categories {
			if wanted[c] {
				names = append(names, t.name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// UpdateTopicWeight folds an engagement sample into a topic's scores. The
// trending contribution decays with time since the topic's last update, so a
// freshly touched topic trends at nearly full strength. When agentID is set
// the agent's SPECIALIZES_IN edge is upserted with the same sample.
func (s *Store) UpdateTopicWeight(topicName string, weight float64, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	topic, err := s.getOrCreateTopicLocked(topicName, nil, now)
	if err != nil {
		return err
	}

	// The engagement step refreshes updatedAt before the decay is measured,
	// so a topic that just received engagement trends at near full strength.
	topic.updateEngagement(weight, agentID, now)

	hours := now.Sub(topic.updatedAt).Hours()
	decay := 1.0 / (1.0 + 0.1*hours)
	if decay < 0.1 {
		decay = 0.1
	}
	topic.updateTrending(weight*decay, now)

	if agentID != "" {
		if _, ok := s.nodes[agentID]; ok {
			s.upsertAgentTopicEdge(agentID, topic.id, EdgeSpecializesIn, weight, 0, now)
		}
	}
	return nil
}

// UpdateTopicComplexity records the complexity level an agent found effective
// for a topic. The level only ratchets upward when the new engagement beats
// the topic's running aggregate.
func (s *Store) UpdateTopicComplexity(topicName string, complexity int, engagement float64, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	topic, err := s.getOrCreateTopicLocked(topicName, nil, now)
	if err != nil {
		return err
	}

	topic.updateComplexity(complexity, engagement, now)
	topic.updateEngagement(engagement, agentID, now)

	if agentID != "" {
		if _, ok := s.nodes[agentID]; ok {
			s.upsertAgentTopicEdge(agentID, topic.id, EdgeExplains, engagement, complexity, now)
		}
	}
	return nil
}

// UpdateTopicEntertainmentValue folds an entertainment sample into a topic.
// Entertainment partially counts toward engagement (at 0.7 strength).
func (s *Store) UpdateTopicEntertainmentValue(topicName string, value float64, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	topic, err := s.getOrCreateTopicLocked(topicName, nil, now)
	if err != nil {
		return err
	}

	topic.updateEntertainment(value, now)
	topic.updateEngagement(value*0.7, agentID, now)

	if agentID != "" {
		if _, ok := s.nodes[agentID]; ok {
			s.upsertAgentTopicEdge(agentID, topic.id, EdgeEntertainsAbout, value, 0, now)
		}
	}
	return nil
}

// RecordContentEngagement ingests aggregated feedback for a published piece:
// counters on the content node, the topic's engagement EMA, the creating
// agent's per-topic performance, and the linking edges. Unknown content is
// created on the fly so late-arriving feedback is never dropped.
func (s *Store) RecordContentEngagement(contentID, agentID, topic string, viewTime float64, likes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	agent, haveAgent := s.nodes[agentID]

	content, ok := s.nodes[contentID]
	if !ok {
		if !haveAgent {
			return nil
		}
		var err error
		content, err = NewContentNode(contentID, "Content "+contentID, "text", agentID, agent.name, now)
		if err != nil {
			return err
		}
		s.insertNodeLocked(content, contentID)
	}

	content.recordView(viewTime, now)
	for i := 0; i < likes; i++ {
		content.addLike(now)
	}
	content.addTag(topic, now)

	topicNode, err := s.getOrCreateTopicLocked(topic, nil, now)
	if err != nil {
		return err
	}

	engagement := viewTime*0.7 + float64(likes)*0.3
	topicNode.updateEngagement(engagement, agentID, now)
	if haveAgent {
		agent.recordAgentContent(topic, engagement, now)
	}

	s.upsertContentEdge(contentID, topicNode.id, EdgeHasTag, engagement, now)
	if haveAgent && len(s.edgesBetweenLocked(contentID, agentID, EdgeCreatedBy)) == 0 {
		s.insertEdgeLocked(newEdge(EdgeCreatedBy, contentID, agentID, 0, EdgeProps{}, now))
	}
	return nil
}

// upsertContentEdge finds or creates a content edge of the given type and
// folds the sample into its weight
func (s *Store) upsertContentEdge(sourceID, targetID string, typ EdgeType, sample float64, now time.Time) {
	for _, e := range s.out[sourceID] {
		if e.targetID == targetID && e.typ == typ {
			e.updateWeight(sample, now)
			return
		}
	}
	s.insertEdgeLocked(newEdge(typ, sourceID, targetID, sample, EdgeProps{}, now))
}

func (s *Store) edgesBetweenLocked(sourceID, targetID string, typ EdgeType) []*Edge {
	var out []*Edge
	for _, e := range s.out[sourceID] {
		if e.targetID == targetID && (typ == "" || e.typ == typ) {
			out = append(out, e)
		}
	}
	return out
}
