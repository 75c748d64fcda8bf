package search

import (
	"fmt"
	"time"
)

// ResultMetadata summarizes how a run ended.
type ResultMetadata struct {
	Algorithm    Algorithm     `json:"algorithm"`
	EarlyStopped bool          `json:"early_stopped"`
	DepthReached int           `json:"depth_reached"`
	Generated    int           `json:"generated"`
	Evaluated    int           `json:"evaluated"`
	CacheHits    int           `json:"cache_hits"`
	Duration     time.Duration `json:"duration"`
}

// SearchResult is the immutable outcome of one completed run.
// BestThought appears in both Path and AllThoughts and has an Evaluation.
type SearchResult struct {
	RunID   string
	Problem string

	BestThought *Thought
	// Path is the ordered root-to-best chain.
	Path []*Thought
	// AllThoughts holds every thought generated during the run, in
	// generation order.
	AllThoughts []*Thought
	// Evaluations maps thought ID to its scoring record.
	Evaluations map[string]*Evaluation

	Metadata ResultMetadata
}

// ExtractPath reconstructs the root-to-leaf chain for leafID by walking
// ParentID links. A parent that does not resolve to a known thought is a
// broken parent chain and fatal.
func ExtractPath(all []*Thought, leafID string) ([]*Thought, error) {
	byID := make(map[string]*Thought, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	node, ok := byID[leafID]
	if !ok {
		return nil, NewInvariantViolation(fmt.Errorf("leaf %s not among generated thoughts", leafID))
	}

	var path []*Thought
	for {
		path = append([]*Thought{node}, path...)
		if node.ParentID == "" {
			return path, nil
		}
		parent, ok := byID[node.ParentID]
		if !ok {
			return nil, NewInvariantViolation(fmt.Errorf("thought %s references unknown parent %s", node.ID, node.ParentID))
		}
		// Parent chains are strictly depth-decreasing; anything else is a cycle.
		if parent.Depth >= node.Depth {
			return nil, NewInvariantViolation(fmt.Errorf("thought %s (depth %d) has non-decreasing parent %s (depth %d)",
				node.ID, node.Depth, parent.ID, parent.Depth))
		}
		node = parent
	}
}

// OriginDistribution counts thoughts per generation category.
func OriginDistribution(all []*Thought) map[Origin]int {
	dist := make(map[Origin]int)
	for _, t := range all {
		dist[t.Origin]++
	}
	return dist
}

// DepthDistribution counts thoughts per tree depth.
func DepthDistribution(all []*Thought) map[int]int {
	dist := make(map[int]int)
	for _, t := range all {
		dist[t.Depth]++
	}
	return dist
}
