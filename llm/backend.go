package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/mindtree/search"
)

// Category personas keep the two generation channels distinct without the
// engine ever seeing prompt content.
var personas = map[search.Origin]string{
	search.OriginCreative: "You explore unconventional, lateral approaches. Favor novel angles over safe ones.",
	search.OriginPractical: "You favor concrete, immediately actionable steps. Practicality beats novelty.",
}

// Backend implements the engine's Generator port plus per-category scoring
// callbacks on top of a shared Client.
type Backend struct {
	client *Client
}

// NewBackend wraps a client as a full search backend.
func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

// Scorer returns the value-mode callback for one category.
func (b *Backend) Scorer(origin search.Origin) search.Scorer {
	return search.ScorerFunc(func(ctx context.Context, problem, thoughtText string) (float64, error) {
		return b.score(ctx, origin, problem, thoughtText)
	})
}

// Ranker returns the vote-mode callback for one category.
func (b *Backend) Ranker(origin search.Origin) search.Ranker {
	return search.RankerFunc(func(ctx context.Context, problem string, thoughtTexts []string) ([]int, error) {
		return b.rank(ctx, origin, problem, thoughtTexts)
	})
}

// Generate implements search.Generator. The per-category budgets come from
// the configured ratio and the two categories are requested concurrently,
// then joined before the engine evaluates.
func (b *Backend) Generate(ctx context.Context, problem string, frontier []*search.Thought, depth int, cfg search.SearchConfig) ([]*search.Thought, error) {
	ratio, err := search.ParseRatio(cfg.CategoryRatio)
	if err != nil {
		return nil, err
	}
	nCreative, nPractical := ratio.Split(cfg.NGenerate)

	var creative, practical []*search.Thought
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creative, err = b.generateCategory(gctx, search.OriginCreative, problem, frontier, depth, nCreative)
		return err
	})
	g.Go(func() error {
		var err error
		practical, err = b.generateCategory(gctx, search.OriginPractical, problem, frontier, depth, nPractical)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(creative, practical...), nil
}

func (b *Backend) generateCategory(ctx context.Context, origin search.Origin, problem string, frontier []*search.Thought, depth, n int) ([]*search.Thought, error) {
	if n <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Problem:\n%s\n\n", problem)
	if len(frontier) > 0 {
		sb.WriteString("Current reasoning steps under consideration:\n")
		for i, t := range frontier {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t.Text)
		}
		fmt.Fprintf(&sb, "\nPropose up to %d distinct next steps that extend one of the steps above. ", n)
		sb.WriteString("Prefix each with the number of the step it extends, like \"[2] ...\".\n")
	} else {
		fmt.Fprintf(&sb, "Propose up to %d distinct first steps toward solving the problem.\n", n)
	}
	sb.WriteString("Answer with one step per line, no commentary.")

	raw, err := b.client.Complete(ctx, personas[origin], sb.String())
	if err != nil {
		return nil, err
	}

	var thoughts []*search.Thought
	for _, line := range strings.Split(raw, "\n") {
		text, parent := parseStep(line, frontier)
		if text == "" {
			continue
		}
		parentID := ""
		if parent != nil {
			parentID = parent.ID
		}
		thoughts = append(thoughts, search.NewThought(text, origin, depth, parentID))
		if len(thoughts) == n {
			break
		}
	}
	return thoughts, nil
}

// parseStep strips list markers from a generated line and resolves the
// "[k]" parent reference against the frontier. Lines without a usable
// reference default to the first frontier node.
func parseStep(line string, frontier []*search.Thought) (string, *search.Thought) {
	text := strings.TrimSpace(line)
	text = strings.TrimLeft(text, "0123456789.)- ")
	if text == "" {
		return "", nil
	}
	if len(frontier) == 0 {
		return text, nil
	}

	parent := frontier[0]
	if strings.HasPrefix(text, "[") {
		if end := strings.Index(text, "]"); end > 1 {
			if k, err := strconv.Atoi(strings.TrimSpace(text[1:end])); err == nil && k >= 1 && k <= len(frontier) {
				parent = frontier[k-1]
				text = strings.TrimSpace(text[end+1:])
			}
		}
	}
	if text == "" {
		return "", nil
	}
	return text, parent
}

func (b *Backend) score(ctx context.Context, origin search.Origin, problem, thoughtText string) (float64, error) {
	prompt := fmt.Sprintf(
		"Problem:\n%s\n\nCandidate step:\n%s\n\nRate how promising this step is on a 0-10 scale. Answer with the number only.",
		problem, thoughtText)
	raw, err := b.client.Complete(ctx, personas[origin], prompt)
	if err != nil {
		return 0, err
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(firstLine(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("llm: unparseable score %q: %w", raw, err)
	}
	// The engine treats out-of-range scores as a contract breach, so clamp
	// here at the boundary.
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

func (b *Backend) rank(ctx context.Context, origin search.Origin, problem string, thoughtTexts []string) ([]int, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Problem:\n%s\n\nCandidate steps:\n", problem)
	for i, t := range thoughtTexts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}
	sb.WriteString("\nOrder every candidate from most to least promising. Answer with the numbers only, comma-separated.")

	raw, err := b.client.Complete(ctx, personas[origin], sb.String())
	if err != nil {
		return nil, err
	}

	parts := strings.Split(firstLine(raw), ",")
	if len(parts) != len(thoughtTexts) {
		return nil, fmt.Errorf("llm: ranking has %d entries, want %d", len(parts), len(thoughtTexts))
	}
	ranking := make([]int, 0, len(parts))
	for _, p := range parts {
		k, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || k < 1 || k > len(thoughtTexts) {
			return nil, fmt.Errorf("llm: unparseable ranking %q", raw)
		}
		ranking = append(ranking, k-1)
	}
	return ranking, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
