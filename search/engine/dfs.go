package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hrygo/mindtree/search"
)

// dfsFrame is one level of the explicit traversal stack: the selected
// children of a node and the position of the sibling loop. Using an
// explicit stack bounds memory predictably at large MaxDepth.
type dfsFrame struct {
	children []*search.Thought
	next     int
}

// DepthFirst explores one branch at a time with backtracking, tracking the
// single best thought across the entire traversal. The whole search
// terminates as soon as the global best meets the confidence threshold; an
// exhausted tree returns the best thought found anywhere in it.
func (e *Engine) DepthFirst(ctx context.Context, problem string) (*search.SearchResult, error) {
	r := e.newRun(problem)
	slog.Info("engine: dfs run started", "run_id", r.id, "max_depth", e.cfg.MaxDepth)

	var best *search.Thought
	updateBest := func(batch []*search.Thought) {
		if b := bestOf(batch); b != nil {
			if best == nil || *b.Score > *best.Score {
				best = b
			}
		}
	}
	thresholdMet := func() bool {
		return e.cfg.ConfidenceThreshold > 0 && best != nil && *best.Score >= e.cfg.ConfidenceThreshold
	}

	rootBatch, err := e.expandNode(ctx, r, nil, 0)
	if err != nil {
		// The root call has zero alternative branches; any failure here
		// fails the run.
		return nil, e.failRun(r, asSearchError(err))
	}
	if len(rootBatch) == 0 {
		return nil, e.failRun(r, search.NewNoSolutionFound(fmt.Errorf("no thoughts generated for problem")))
	}
	updateBest(rootBatch)
	if thresholdMet() {
		r.earlyStopped = true
		return e.assemble(r, best)
	}

	children, err := e.selectChildren(rootBatch)
	if err != nil {
		return nil, e.failRun(r, asSearchError(err))
	}
	stack := []*dfsFrame{{children: children}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, e.failRun(r, search.NewGenerationFailed(err))
		}

		f := stack[len(stack)-1]
		if f.next >= len(f.children) {
			// All children of this node exhausted; return to the parent.
			stack = stack[:len(stack)-1]
			continue
		}
		node := f.children[f.next]
		f.next++

		if node.Depth >= e.cfg.MaxDepth {
			continue
		}

		batch, err := e.expandNode(ctx, r, node, node.Depth+1)
		if err != nil {
			if search.IsKind(err, search.KindGenerationFailed) {
				// Abort this branch only; siblings remain viable.
				slog.Warn("engine: dfs branch generation failed, backtracking",
					"run_id", r.id, "node_id", node.ID, "error", err)
				continue
			}
			return nil, e.failRun(r, asSearchError(err))
		}
		if len(batch) == 0 {
			continue
		}

		updateBest(batch)
		if thresholdMet() {
			r.earlyStopped = true
			slog.Info("engine: dfs early stop", "run_id", r.id, "depth", node.Depth+1, "score", *best.Score)
			return e.assemble(r, best)
		}

		next, err := e.selectChildren(batch)
		if err != nil {
			return nil, e.failRun(r, asSearchError(err))
		}
		stack = append(stack, &dfsFrame{children: next})
	}

	slog.Info("engine: dfs exhausted", "run_id", r.id, "depth_reached", r.depthReached)
	return e.assemble(r, best)
}

// expandNode generates and evaluates the children of node (nil for the
// root). A nil, nil return is a dead end.
func (e *Engine) expandNode(ctx context.Context, r *run, node *search.Thought, depth int) ([]*search.Thought, error) {
	var frontier []*search.Thought
	if node != nil {
		frontier = []*search.Thought{node}
	}
	batch, err := e.generate(ctx, r, frontier, depth)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	if err := e.evaluate(ctx, r, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// selectChildren reduces a batch to the children worth descending into,
// ordered by descending score. The single-child variant keeps only the top
// thought.
func (e *Engine) selectChildren(batch []*search.Thought) ([]*search.Thought, error) {
	n := e.cfg.NSelect
	if e.cfg.SingleChildDFS {
		n = 1
	}
	idxs, err := e.strategy.Select(batch, n)
	if err != nil {
		return nil, err
	}
	children := make([]*search.Thought, 0, len(idxs))
	for _, i := range idxs {
		children = append(children, batch[i])
	}
	sort.SliceStable(children, func(a, b int) bool {
		var sa, sb float64
		if children[a].Score != nil {
			sa = *children[a].Score
		}
		if children[b].Score != nil {
			sb = *children[b].Score
		}
		return sa > sb
	})
	return children, nil
}
