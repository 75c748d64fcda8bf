package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrygo/mindtree/search"
)

// BreadthFirst explores level by level: one generation per level covering
// the whole frontier, a joint evaluation, then selection of the next
// frontier. The run stops early as soon as a level's best score meets the
// confidence threshold, and otherwise exhausts min(Steps, MaxDepth) levels.
func (e *Engine) BreadthFirst(ctx context.Context, problem string) (*search.SearchResult, error) {
	r := e.newRun(problem)
	slog.Info("engine: bfs run started", "run_id", r.id, "steps", e.cfg.Steps, "max_depth", e.cfg.MaxDepth)

	levels := e.cfg.Steps
	if e.cfg.MaxDepth < levels {
		levels = e.cfg.MaxDepth
	}

	var frontier []*search.Thought
	for level := 0; level < levels; level++ {
		if err := ctx.Err(); err != nil {
			return nil, e.failRun(r, search.NewGenerationFailed(err))
		}

		batch, err := e.generate(ctx, r, frontier, level)
		if err != nil {
			serr := asSearchError(err)
			// A generation failure past the root aborts only the
			// remaining levels; the run still yields its best so far.
			if level > 0 && serr.Kind == search.KindGenerationFailed {
				slog.Warn("engine: bfs generation failed, returning best so far",
					"run_id", r.id, "level", level, "error", err)
				break
			}
			return nil, e.failRun(r, serr)
		}
		if len(batch) == 0 {
			// Dead end: the generator had nothing to offer at this level.
			slog.Info("engine: bfs dead end", "run_id", r.id, "level", level)
			break
		}

		if err := e.evaluate(ctx, r, batch); err != nil {
			return nil, e.failRun(r, asSearchError(err))
		}

		best := bestOf(batch)
		slog.Info("engine: bfs level evaluated",
			"run_id", r.id, "level", level, "batch", len(batch), "best_score", *best.Score)

		if e.cfg.ConfidenceThreshold > 0 && *best.Score >= e.cfg.ConfidenceThreshold {
			r.earlyStopped = true
			slog.Info("engine: bfs early stop", "run_id", r.id, "level", level, "score", *best.Score)
			return e.assemble(r, best)
		}

		idxs, err := e.strategy.Select(batch, e.cfg.NSelect)
		if err != nil {
			return nil, e.failRun(r, asSearchError(err))
		}
		frontier = make([]*search.Thought, 0, len(idxs))
		for _, i := range idxs {
			frontier = append(frontier, batch[i])
		}
	}

	if len(r.all) == 0 {
		return nil, e.failRun(r, search.NewNoSolutionFound(fmt.Errorf("no thoughts generated for problem")))
	}

	// Exhausted: best thought from the final frontier.
	best := bestOf(frontier)
	if best == nil {
		best = bestOf(r.all)
	}
	slog.Info("engine: bfs exhausted", "run_id", r.id, "depth_reached", r.depthReached)
	return e.assemble(r, best)
}

// asSearchError coerces any error into a SearchError, defaulting to an
// evaluation failure for unclassified causes.
func asSearchError(err error) *search.SearchError {
	var serr *search.SearchError
	if errors.As(err, &serr) {
		return serr
	}
	return search.NewEvaluationFailed(err)
}
