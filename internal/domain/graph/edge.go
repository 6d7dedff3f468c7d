package graph

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "weave-backend/pkg/errors"
)

// Edge is a directed, typed relationship between two nodes
type Edge struct {
	id        string
	typ       EdgeType
	sourceID  string
	targetID  string
	weight    float64
	props     EdgeProps
	createdAt time.Time
	updatedAt time.Time
}

func newEdge(typ EdgeType, sourceID, targetID string, weight float64, props EdgeProps, now time.Time) *Edge {
	if weight == 0 {
		weight = 1.0
	}
	return &Edge{
		id:        uuid.NewString(),
		typ:       typ,
		sourceID:  sourceID,
		targetID:  targetID,
		weight:    weight,
		props:     props,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the edge's unique identifier
func (e *Edge) ID() string { return e.id }

// Type returns the edge's relationship type
func (e *Edge) Type() EdgeType { return e.typ }

// SourceID returns the id of the edge's source node
func (e *Edge) SourceID() string { return e.sourceID }

// TargetID returns the id of the edge's target node
func (e *Edge) TargetID() string { return e.targetID }

// Weight returns the edge's weight
func (e *Edge) Weight() float64 { return e.weight }

// Props returns a copy of the edge's properties
func (e *Edge) Props() EdgeProps {
	p := e.props
	p.Extra = copyExtra(e.props.Extra)
	return p
}

// CreatedAt returns when the edge was created
func (e *Edge) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns when the edge was last updated
func (e *Edge) UpdatedAt() time.Time { return e.updatedAt }

// updateWeight folds a new sample into the edge weight via EMA
func (e *Edge) updateWeight(sample float64, now time.Time) {
	e.weight = ema(e.weight, sample, alphaEngagement)
	e.updatedAt = now
}

// setWeight overwrites the edge weight
func (e *Edge) setWeight(weight float64, now time.Time) {
	e.weight = weight
	e.updatedAt = now
}

// setProp mutators keep edge properties in sync with their latest sample
func (e *Edge) setComplexity(level int, now time.Time) {
	e.props.Complexity = level
	e.updatedAt = now
}

// ReconstructEdge rebuilds an edge from snapshot data with preserved timestamps
func ReconstructEdge(
	id string,
	typ EdgeType,
	sourceID, targetID string,
	weight float64,
	props EdgeProps,
	createdAt, updatedAt time.Time,
) (*Edge, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !ValidEdgeType(typ) {
		return nil, pkgerrors.NewValidation("unknown edge type: " + string(typ))
	}
	if sourceID == "" || targetID == "" {
		return nil, pkgerrors.NewValidation("edge endpoints cannot be empty")
	}
	if weight == 0 {
		weight = 1.0
	}
	return &Edge{
		id:        id,
		typ:       typ,
		sourceID:  sourceID,
		targetID:  targetID,
		weight:    weight,
		props:     props,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}
