package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "weave-backend/pkg/errors"
)

// externalKey is the secondary index key for idempotent upserts
type externalKey struct {
	kind NodeKind
	key  string
}

// Store is the in-memory property graph with snapshot persistence.
//
// All mutation is serialized behind a single write lock so that EMA updates
// apply in event-arrival order; readers share the read lock and never block
// each other. Reader methods hand out detached node copies made while the
// lock is held, so callers can inspect properties without racing writers.
// Persistence is a whole-snapshot overwrite guarded by the same lock (see
// snapshot.go).
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	edges  map[string]*Edge
	out    map[string][]*Edge // source id -> edges in discovery order
	in     map[string][]*Edge // target id -> edges in discovery order
	keys   map[externalKey]string
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store backed by the snapshot file at path. An existing
// snapshot is loaded; a fresh graph is seeded with the default topic set.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		out:    make(map[string][]*Edge),
		in:     make(map[string][]*Edge),
		keys:   make(map[externalKey]string),
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	if path != "" {
		loaded, err := s.Load()
		if err != nil {
			return nil, err
		}
		if loaded {
			return s, nil
		}
	}
	s.seedDefaultTopics()
	return s, nil
}

// SetClock overrides the store's time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// NodeCount returns the number of nodes in the graph
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the graph
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// UpsertNode creates or updates a node addressed by (kind, externalKey).
// A second call with the same key returns the same id and merges properties.
// Content titles follow a merged "title" (or "name") and agent display names
// a merged "name"; for USER, TOPIC and HASHTAG the name is the external key
// itself and never changes after creation.
func (s *Store) UpsertNode(kind NodeKind, key string, props map[string]any) (string, error) {
	if !ValidKind(kind) {
		return "", pkgerrors.NewValidation(fmt.Sprintf("unknown node kind: %q", kind))
	}
	if key == "" {
		return "", pkgerrors.NewValidation("external key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.keys[externalKey{kind, key}]; ok {
		node := s.nodes[id]
		s.mergeProps(node, props, now)
		return id, nil
	}

	node, err := s.newNodeForKey(kind, key, props, now)
	if err != nil {
		return "", err
	}
	s.insertNodeLocked(node, key)
	s.mergeProps(node, props, now)
	return node.id, nil
}

// newNodeForKey builds a fresh node of the given kind addressed by key
func (s *Store) newNodeForKey(kind NodeKind, key string, props map[string]any, now time.Time) (*Node, error) {
	switch kind {
	case KindUser:
		return NewUserNode(key, now)
	case KindContent:
		title, _ := props["title"].(string)
		if title == "" {
			title = key
		}
		contentType, _ := props["content_type"].(string)
		agentID, _ := props["agent_id"].(string)
		agentName, _ := props["agent_name"].(string)
		return NewContentNode(key, title, contentType, agentID, agentName, now)
	case KindTopic:
		return NewTopicNode(key, stringSlice(props["categories"]), now)
	case KindHashtag:
		return NewHashtagNode(key, now)
	case KindAgent:
		name, _ := props["name"].(string)
		if name == "" {
			name = key
		}
		personality, _ := props["personality"].(string)
		return NewAgentNode(key, name, personality, stringSlice(props["specializations"]), now)
	}
	return nil, pkgerrors.NewValidation(fmt.Sprintf("unknown node kind: %q", kind))
}

// mergeProps folds loose properties into the node's typed property set.
// Unrecognized keys land in the kind's Extra map.
func (s *Store) mergeProps(n *Node, props map[string]any, now time.Time) {
	if len(props) == 0 {
		return
	}
	for k, v := range props {
		switch {
		case n.kind == KindUser && k == "display_name":
			if dn, ok := v.(string); ok {
				n.user.DisplayName = dn
			}
		case n.kind == KindContent && (k == "title" || k == "name"):
			if t, ok := v.(string); ok && t != "" {
				n.content.Title = t
				n.name = t
			}
		case n.kind == KindContent && k == "content_type":
			if ct, ok := v.(string); ok && ct != "" {
				n.content.ContentType = ct
			}
		case n.kind == KindContent && k == "agent_id":
			if v, ok := v.(string); ok && v != "" {
				n.content.AgentID = v
			}
		case n.kind == KindContent && k == "agent_name":
			if v, ok := v.(string); ok && v != "" {
				n.content.AgentName = v
			}
		case n.kind == KindContent && k == "tags":
			for _, tag := range stringSlice(v) {
				n.addTag(tag, now)
			}
		case n.kind == KindTopic && k == "categories":
			n.topic.Categories = mergeStrings(n.topic.Categories, stringSlice(v))
		case n.kind == KindAgent && k == "personality":
			if p, ok := v.(string); ok && p != "" {
				n.agent.Personality = p
			}
		case n.kind == KindAgent && k == "specializations":
			n.agent.Specializations = mergeStrings(n.agent.Specializations, stringSlice(v))
		case n.kind == KindAgent && k == "name":
			if name, ok := v.(string); ok && name != "" {
				n.name = name
			}
		case k == "name":
			// The name doubles as the external key for the remaining kinds;
			// fixed at creation.
		default:
			s.setExtraLocked(n, k, v)
		}
	}
	n.touch(now)
}

func (s *Store) setExtraLocked(n *Node, key string, value any) {
	switch n.kind {
	case KindUser:
		if n.user.Extra == nil {
			n.user.Extra = make(map[string]any)
		}
		n.user.Extra[key] = value
	case KindContent:
		if n.content.Extra == nil {
			n.content.Extra = make(map[string]any)
		}
		n.content.Extra[key] = value
	case KindTopic:
		if n.topic.Extra == nil {
			n.topic.Extra = make(map[string]any)
		}
		n.topic.Extra[key] = value
	case KindHashtag:
		if n.hashtag.Extra == nil {
			n.hashtag.Extra = make(map[string]any)
		}
		n.hashtag.Extra[key] = value
	case KindAgent:
		if n.agent.Extra == nil {
			n.agent.Extra = make(map[string]any)
		}
		n.agent.Extra[key] = value
	}
}

func (s *Store) insertNodeLocked(n *Node, key string) {
	s.nodes[n.id] = n
	if key != "" {
		s.keys[externalKey{n.kind, key}] = n.id
	}
}

// GetNode returns a detached copy of the node with the given id
func (s *Store) GetNode(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFound("node " + id)
	}
	return n.clone(), nil
}

// NodeByKey resolves an external (kind, key) pair to a detached copy of its
// node
func (s *Store) NodeByKey(kind NodeKind, key string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.keys[externalKey{kind, key}]
	if !ok {
		return nil, false
	}
	return s.nodes[id].clone(), true
}

// NodesByKind returns detached copies of all nodes of the given kind,
// ordered by id for deterministic iteration
func (s *Store) NodesByKind(kind NodeKind) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := s.nodesByKindLocked(kind)
	out := make([]*Node, len(live))
	for i, n := range live {
		out[i] = n.clone()
	}
	return out
}

func (s *Store) nodesByKindLocked(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range s.nodes {
		if n.kind == kind {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AddEdge creates a directed edge between two existing nodes. A weight of 0
// means "use the default" (1.0). The mutation is rejected before any write
// when an endpoint is missing.
func (s *Store) AddEdge(typ EdgeType, sourceID, targetID string, weight float64, props EdgeProps) (string, error) {
	if !ValidEdgeType(typ) {
		return "", pkgerrors.NewValidation(fmt.Sprintf("unknown edge type: %q", typ))
	}
	if weight < 0 {
		return "", pkgerrors.NewValidation("edge weight cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[sourceID]; !ok {
		return "", pkgerrors.NewNotFound("source node " + sourceID)
	}
	if _, ok := s.nodes[targetID]; !ok {
		return "", pkgerrors.NewNotFound("target node " + targetID)
	}

	e := newEdge(typ, sourceID, targetID, weight, props, s.now())
	s.insertEdgeLocked(e)
	return e.id, nil
}

func (s *Store) insertEdgeLocked(e *Edge) {
	s.edges[e.id] = e
	s.out[e.sourceID] = append(s.out[e.sourceID], e)
	s.in[e.targetID] = append(s.in[e.targetID], e)
}

// GetEdges returns outgoing edges from sourceID, optionally filtered by
// target and type. Empty targetID or typ match everything.
func (s *Store) GetEdges(sourceID, targetID string, typ EdgeType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Edge
	for _, e := range s.out[sourceID] {
		if targetID != "" && e.targetID != targetID {
			continue
		}
		if typ != "" && e.typ != typ {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// EdgesFrom returns outgoing edges of the given type ("" matches all)
func (s *Store) EdgesFrom(sourceID string, typ EdgeType) []Edge {
	return s.GetEdges(sourceID, "", typ)
}

// EdgesTo returns incoming edges of the given type ("" matches all)
func (s *Store) EdgesTo(targetID string, typ EdgeType) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Edge
	for _, e := range s.in[targetID] {
		if typ != "" && e.typ != typ {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// RemoveNode deletes a node and cascades to all incident edges
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return pkgerrors.NewNotFound("node " + id)
	}

	for _, e := range s.out[id] {
		delete(s.edges, e.id)
		s.in[e.targetID] = removeEdge(s.in[e.targetID], e.id)
	}
	delete(s.out, id)

	for _, e := range s.in[id] {
		delete(s.edges, e.id)
		s.out[e.sourceID] = removeEdge(s.out[e.sourceID], e.id)
	}
	delete(s.in, id)

	delete(s.nodes, id)
	for k, v := range s.keys {
		if v == id {
			delete(s.keys, k)
		}
	}
	s.logger.Debug("removed node with cascading edges",
		zap.String("node_id", id),
		zap.String("kind", string(n.kind)))
	return nil
}

// RemoveEdges deletes all outgoing edges of the given type from sourceID and
// returns how many were removed
func (s *Store) RemoveEdges(sourceID string, typ EdgeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.out[sourceID][:0]
	for _, e := range s.out[sourceID] {
		if e.typ != typ {
			kept = append(kept, e)
			continue
		}
		delete(s.edges, e.id)
		s.in[e.targetID] = removeEdge(s.in[e.targetID], e.id)
		removed++
	}
	s.out[sourceID] = kept
	return removed
}

func removeEdge(edges []*Edge, id string) []*Edge {
	for i, e := range edges {
		if e.id == id {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// TraversalResult is the subgraph discovered by Traverse
type TraversalResult struct {
	Nodes []*Node
	Edges []Edge
}

// Traverse walks the graph breadth-first from startID. The frontier follows
// edge discovery order, so results are stable for a fixed graph. At most
// limit nodes are visited and expansion stops maxDepth hops out.
func (s *Store) Traverse(startID string, maxDepth, limit int) (*TraversalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[startID]; !ok {
		return nil, pkgerrors.NewNotFound("node " + startID)
	}
	if limit <= 0 {
		limit = 100
	}

	result := &TraversalResult{}
	visited := map[string]bool{startID: true}
	type frontierEntry struct {
		id    string
		depth int
	}
	queue := []frontierEntry{{startID, 0}}

	for len(queue) > 0 && len(result.Nodes) < limit {
		current := queue[0]
		queue = queue[1:]

		result.Nodes = append(result.Nodes, s.nodes[current.id].clone())
		if current.depth >= maxDepth {
			continue
		}

		for _, e := range s.out[current.id] {
			result.Edges = append(result.Edges, *e)
			if !visited[e.targetID] {
				visited[e.targetID] = true
				queue = append(queue, frontierEntry{e.targetID, current.depth + 1})
			}
		}
	}

	return result, nil
}

// upsertAgentTopicEdge finds or creates the agent->topic edge of the given
// relation and folds the sample into its weight
func (s *Store) upsertAgentTopicEdge(agentID, topicID string, typ EdgeType, sample float64, complexity int, now time.Time) {
	for _, e := range s.out[agentID] {
		if e.targetID == topicID && e.typ == typ {
			e.updateWeight(sample, now)
			if complexity > 0 {
				e.setComplexity(complexity, now)
			}
			return
		}
	}
	props := EdgeProps{}
	if complexity > 0 {
		props.Complexity = complexity
	}
	e := newEdge(typ, agentID, topicID, sample, props, now)
	s.insertEdgeLocked(e)
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func mergeStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range incoming {
		if !seen[v] {
			existing = append(existing, v)
			seen[v] = true
		}
	}
	return existing
}
