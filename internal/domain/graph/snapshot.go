package graph

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	pkgerrors "weave-backend/pkg/errors"
)

// snapshotNode is the wire form of a node in the snapshot file
type snapshotNode struct {
	ID         string        `json:"id"`
	Kind       NodeKind      `json:"kind"`
	Name       string        `json:"name"`
	Properties snapshotProps `json:"properties"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// snapshotProps carries exactly one kind-specific property set
type snapshotProps struct {
	User    *UserProps    `json:"user,omitempty"`
	Content *ContentProps `json:"content,omitempty"`
	Topic   *TopicProps   `json:"topic,omitempty"`
	Hashtag *HashtagProps `json:"hashtag,omitempty"`
	Agent   *AgentProps   `json:"agent,omitempty"`
}

// snapshotEdge is the wire form of an edge in the snapshot file
type snapshotEdge struct {
	ID         string    `json:"id"`
	SourceID   string    `json:"sourceId"`
	TargetID   string    `json:"targetId"`
	Type       EdgeType  `json:"type"`
	Weight     float64   `json:"weight"`
	Properties EdgeProps `json:"properties"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type snapshot struct {
	Nodes []snapshotNode `json:"nodes"`
	Edges []snapshotEdge `json:"edges"`
}

// Save writes the whole graph to the snapshot file. The write goes through a
// temp file plus rename so a crash mid-write never corrupts the previous
// snapshot.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	snap := snapshot{
		Nodes: make([]snapshotNode, 0, len(s.nodes)),
		Edges: make([]snapshotEdge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		// Marshaling happens after the lock is released, so the snapshot must
		// not alias live property sets that writers keep mutating.
		c := n.clone()
		snap.Nodes = append(snap.Nodes, snapshotNode{
			ID:   c.id,
			Kind: c.kind,
			Name: c.name,
			Properties: snapshotProps{
				User:    c.user,
				Content: c.content,
				Topic:   c.topic,
				Hashtag: c.hashtag,
				Agent:   c.agent,
			},
			CreatedAt: c.createdAt,
			UpdatedAt: c.updatedAt,
		})
	}
	for _, e := range s.edges {
		snap.Edges = append(snap.Edges, snapshotEdge{
			ID:         e.id,
			SourceID:   e.sourceID,
			TargetID:   e.targetID,
			Type:       e.typ,
			Weight:     e.weight,
			Properties: e.props,
			CreatedAt:  e.createdAt,
			UpdatedAt:  e.updatedAt,
		})
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return pkgerrors.NewPersistence("marshaling graph snapshot", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.NewPersistence("creating snapshot directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".graph-*.json")
	if err != nil {
		return pkgerrors.NewPersistence("creating temp snapshot file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.NewPersistence("writing snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewPersistence("closing snapshot file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewPersistence("replacing snapshot file", err)
	}

	s.logger.Debug("saved graph snapshot",
		zap.String("path", s.path),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)))
	return nil
}

// Load replaces the in-memory graph with the snapshot file's contents.
// Returns false when no snapshot exists yet.
func (s *Store) Load() (bool, error) {
	if s.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, pkgerrors.NewPersistence("reading snapshot file", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, pkgerrors.NewPersistence("parsing snapshot file", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*Node, len(snap.Nodes))
	s.edges = make(map[string]*Edge, len(snap.Edges))
	s.out = make(map[string][]*Edge)
	s.in = make(map[string][]*Edge)
	s.keys = make(map[externalKey]string)

	for _, sn := range snap.Nodes {
		n, err := ReconstructNode(sn.ID, sn.Kind, sn.Name, sn.CreatedAt, sn.UpdatedAt,
			sn.Properties.User, sn.Properties.Content, sn.Properties.Topic,
			sn.Properties.Hashtag, sn.Properties.Agent)
		if err != nil {
			s.logger.Warn("skipping invalid snapshot node",
				zap.String("node_id", sn.ID), zap.Error(err))
			continue
		}
		s.insertNodeLocked(n, nodeKey(n))
	}

	for _, se := range snap.Edges {
		e, err := ReconstructEdge(se.ID, se.Type, se.SourceID, se.TargetID,
			se.Weight, se.Properties, se.CreatedAt, se.UpdatedAt)
		if err != nil {
			s.logger.Warn("skipping invalid snapshot edge",
				zap.String("edge_id", se.ID), zap.Error(err))
			continue
		}
		if _, ok := s.nodes[e.sourceID]; !ok {
			continue
		}
		if _, ok := s.nodes[e.targetID]; !ok {
			continue
		}
		s.insertEdgeLocked(e)
	}

	s.logger.Info("loaded graph snapshot",
		zap.String("path", s.path),
		zap.Int("nodes", len(s.nodes)),
		zap.Int("edges", len(s.edges)))
	return true, nil
}

// nodeKey derives the external-index key a node is addressable by
func nodeKey(n *Node) string {
	switch n.kind {
	case KindUser:
		return n.user.Username
	case KindTopic, KindHashtag:
		return n.name
	case KindContent, KindAgent:
		// These kinds use the caller-supplied id as both node id and key.
		return n.id
	}
	return ""
}
