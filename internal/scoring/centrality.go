package scoring

import (
	"sort"

	"weave-backend/internal/domain/graph"
)

// TopicCluster is a hub topic or hashtag with its direct neighborhood in the
// topic/hashtag subgraph
type TopicCluster struct {
	HubID   string   `json:"hub_id"`
	HubName string   `json:"hub_name"`
	Degree  int      `json:"degree"`
	Members []string `json:"members"`
}

// TopicClusters discovers hub topics by degree centrality within the
// topic/hashtag-only subgraph. Edges to or from other node kinds are
// ignored; ties are broken by node id.
func (e *Engine) TopicClusters(limit int) []TopicCluster {
	inSubgraph := make(map[string]*graph.Node)
	for _, n := range e.store.NodesByKind(graph.KindTopic) {
		inSubgraph[n.ID()] = n
	}
	for _, n := range e.store.NodesByKind(graph.KindHashtag) {
		inSubgraph[n.ID()] = n
	}

	clusters := make([]TopicCluster, 0, len(inSubgraph))
	for id, node := range inSubgraph {
		degree := 0
		memberSet := make(map[string]bool)
		for _, edge := range e.store.EdgesFrom(id, "") {
			if _, ok := inSubgraph[edge.TargetID()]; ok {
				degree++
				memberSet[edge.TargetID()] = true
			}
		}
		for _, edge := range e.store.EdgesTo(id, "") {
			if _, ok := inSubgraph[edge.SourceID()]; ok {
				degree++
				memberSet[edge.SourceID()] = true
			}
		}
		if degree == 0 {
			continue
		}
		members := make([]string, 0, len(memberSet))
		for m := range memberSet {
			members = append(members, m)
		}
		sort.Strings(members)
		clusters = append(clusters, TopicCluster{
			HubID:   id,
			HubName: node.Name(),
			Degree:  degree,
			Members: members,
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Degree != clusters[j].Degree {
			return clusters[i].Degree > clusters[j].Degree
		}
		return clusters[i].HubID < clusters[j].HubID
	})
	if limit > 0 && len(clusters) > limit {
		clusters = clusters[:limit]
	}
	return clusters
}

// BridgeNodes ranks nodes by betweenness centrality over the full directed
// graph: the nodes most shortest paths route through, i.e. the connectors
// between otherwise separate regions. Deterministic for a fixed graph.
func (e *Engine) BridgeNodes(limit int) []ScoredItem {
	ids, adjacency := e.adjacency()
	centrality := brandes(ids, adjacency)

	var items []ScoredItem
	for _, id := range ids {
		score := centrality[id]
		if score <= 0 {
			continue
		}
		name := ""
		if node, err := e.store.GetNode(id); err == nil {
			name = node.Name()
		}
		items = append(items, ScoredItem{ID: id, Name: name, Score: score})
	}
	return topN(items, limit)
}

// adjacency builds a stable-ordered view of the whole graph
func (e *Engine) adjacency() ([]string, map[string][]string) {
	var ids []string
	for _, kind := range []graph.NodeKind{
		graph.KindUser, graph.KindContent, graph.KindTopic, graph.KindHashtag, graph.KindAgent,
	} {
		for _, n := range e.store.NodesByKind(kind) {
			ids = append(ids, n.ID())
		}
	}
	sort.Strings(ids)

	adjacency := make(map[string][]string, len(ids))
	for _, id := range ids {
		seen := make(map[string]bool)
		for _, edge := range e.store.EdgesFrom(id, "") {
			if !seen[edge.TargetID()] {
				seen[edge.TargetID()] = true
				adjacency[id] = append(adjacency[id], edge.TargetID())
			}
		}
	}
	return ids, adjacency
}

// brandes computes betweenness centrality for an unweighted directed graph
// (Brandes' accumulation over BFS shortest paths)
func brandes(ids []string, adjacency map[string][]string) map[string]float64 {
	centrality := make(map[string]float64, len(ids))

	for _, source := range ids {
		var stack []string
		predecessors := make(map[string][]string)
		pathCount := map[string]float64{source: 1}
		distance := map[string]int{source: 0}
		queue := []string{source}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adjacency[v] {
				if _, found := distance[w]; !found {
					distance[w] = distance[v] + 1
					queue = append(queue, w)
				}
				if distance[w] == distance[v]+1 {
					pathCount[w] += pathCount[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		dependency := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				dependency[v] += pathCount[v] / pathCount[w] * (1 + dependency[w])
			}
			if w != source {
				centrality[w] += dependency[w]
			}
		}
	}
	return centrality
}
