// Package profile holds the runtime configuration of the mindtree CLI.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start a mindtree run.
type Profile struct {
	// Mode is "demo", "dev", or "prod". Demo mode uses the offline
	// deterministic backend.
	Mode string

	// Backend selection: "llm" or "demo".
	Backend string

	// LLM configuration (OpenAI-compatible protocol).
	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMRPS      float64

	// Data directory and run-archive DSN. An empty DSN disables the archive.
	Data string
	DSN  string

	// MetricsAddr exposes /metrics when non-empty, e.g. ":9090".
	MetricsAddr string

	Version string
}

var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai":   {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
	"deepseek": {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"},
	"ollama":   {BaseURL: "http://localhost:11434/v1", Model: "llama3.1"},
}

// IsDev reports whether the profile runs in a non-production mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads backend configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("MINDTREE_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("MINDTREE_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("MINDTREE_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("MINDTREE_LLM_MODEL", "")
	if v := os.Getenv("MINDTREE_LLM_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			p.LLMRPS = rps
		}
	}

	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

// Validate normalizes the profile and resolves the data directory and DSN.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Backend == "" {
		if p.Mode == "demo" || p.LLMAPIKey == "" {
			p.Backend = "demo"
		} else {
			p.Backend = "llm"
		}
	}
	if p.Backend != "demo" && p.Backend != "llm" {
		return errors.Errorf("unknown backend %q", p.Backend)
	}
	if p.Backend == "llm" && p.LLMAPIKey == "" && p.LLMProvider != "ollama" {
		return errors.New("llm backend requires MINDTREE_LLM_API_KEY")
	}

	if p.Data != "" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("mindtree_%s.db", p.Mode))
		}
	}
	return nil
}

func checkDataDir(dataDir string) (string, error) {
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}
