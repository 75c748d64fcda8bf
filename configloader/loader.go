// Package configloader loads named search-config presets from YAML files.
package configloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hrygo/mindtree/search"
)

// preset mirrors search.SearchConfig for YAML decoding. Pointer fields
// distinguish "absent" from zero so partial presets overlay the defaults;
// durations are Go duration strings ("60s", "10m").
type preset struct {
	NGenerate           *int     `yaml:"n_generate"`
	NEvaluate           *int     `yaml:"n_evaluate"`
	NSelect             *int     `yaml:"n_select"`
	Steps               *int     `yaml:"steps"`
	MaxDepth            *int     `yaml:"max_depth"`
	Algorithm           *string  `yaml:"algorithm"`
	EvaluationMethod    *string  `yaml:"evaluation_method"`
	SelectionMethod     *string  `yaml:"selection_method"`
	CategoryRatio       *string  `yaml:"category_ratio"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	CrossEvaluation     *bool    `yaml:"cross_evaluation"`
	CacheEnabled        *bool    `yaml:"cache_enabled"`
	CacheTTL            *string  `yaml:"cache_ttl"`
	Temperature         *float64 `yaml:"temperature"`
	DiversityWeight     *float64 `yaml:"diversity_weight"`
	ScoreThreshold      *float64 `yaml:"score_threshold"`
	AdaptivePercentile  *float64 `yaml:"adaptive_percentile"`
	SingleChildDFS      *bool    `yaml:"single_child_dfs"`
	MaxWorkers          *int     `yaml:"max_workers"`
	CallTimeout         *string  `yaml:"call_timeout"`
}

// Loader resolves preset names against a base directory, caching parsed
// presets per path.
type Loader struct {
	baseDir string
	cache   sync.Map
}

// NewLoader creates a preset loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// LoadPreset reads <baseDir>/<name>.yaml over the default search config.
// Fields absent from the file keep their defaults; the merged config is
// validated before being returned.
func (l *Loader) LoadPreset(name string) (search.SearchConfig, error) {
	path := filepath.Join(l.baseDir, name+".yaml")

	if cached, ok := l.cache.Load(path); ok {
		return cached.(search.SearchConfig), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return search.SearchConfig{}, fmt.Errorf("read preset %s: %w", path, err)
	}

	var p preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return search.SearchConfig{}, fmt.Errorf("unmarshal preset %s: %w", path, err)
	}

	cfg := search.DefaultSearchConfig()
	if err := p.apply(&cfg); err != nil {
		return search.SearchConfig{}, fmt.Errorf("preset %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return search.SearchConfig{}, fmt.Errorf("preset %s: %w", path, err)
	}

	l.cache.Store(path, cfg)
	return cfg, nil
}

func (p *preset) apply(cfg *search.SearchConfig) error {
	if p.NGenerate != nil {
		cfg.NGenerate = *p.NGenerate
	}
	if p.NEvaluate != nil {
		cfg.NEvaluate = *p.NEvaluate
	}
	if p.NSelect != nil {
		cfg.NSelect = *p.NSelect
	}
	if p.Steps != nil {
		cfg.Steps = *p.Steps
	}
	if p.MaxDepth != nil {
		cfg.MaxDepth = *p.MaxDepth
	}
	if p.Algorithm != nil {
		cfg.Algorithm = search.Algorithm(*p.Algorithm)
	}
	if p.EvaluationMethod != nil {
		cfg.EvaluationMethod = search.EvaluationMethod(*p.EvaluationMethod)
	}
	if p.SelectionMethod != nil {
		cfg.SelectionMethod = search.SelectionMethod(*p.SelectionMethod)
	}
	if p.CategoryRatio != nil {
		cfg.CategoryRatio = *p.CategoryRatio
	}
	if p.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *p.ConfidenceThreshold
	}
	if p.CrossEvaluation != nil {
		cfg.CrossEvaluation = *p.CrossEvaluation
	}
	if p.CacheEnabled != nil {
		cfg.CacheEnabled = *p.CacheEnabled
	}
	if p.CacheTTL != nil {
		ttl, err := time.ParseDuration(*p.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	if p.Temperature != nil {
		cfg.Temperature = *p.Temperature
	}
	if p.DiversityWeight != nil {
		cfg.DiversityWeight = *p.DiversityWeight
	}
	if p.ScoreThreshold != nil {
		cfg.ScoreThreshold = *p.ScoreThreshold
	}
	if p.AdaptivePercentile != nil {
		cfg.AdaptivePercentile = *p.AdaptivePercentile
	}
	if p.SingleChildDFS != nil {
		cfg.SingleChildDFS = *p.SingleChildDFS
	}
	if p.MaxWorkers != nil {
		cfg.MaxWorkers = *p.MaxWorkers
	}
	if p.CallTimeout != nil {
		timeout, err := time.ParseDuration(*p.CallTimeout)
		if err != nil {
			return fmt.Errorf("call_timeout: %w", err)
		}
		cfg.CallTimeout = timeout
	}
	return nil
}
