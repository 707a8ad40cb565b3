package config

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultYAML embed.FS

// ICPConfig describes the ideal customer profile used to target posts.
type ICPConfig struct {
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	PainPoints  []string `yaml:"pain_points" json:"pain_points"`
	Industries  []string `yaml:"industries" json:"industries"`
}

// Weights control the heuristic composite score. They should sum to 1.0
// but are applied as-is if they do not.
type Weights struct {
	KeywordMatch   float64 `yaml:"keyword_match" json:"keyword_match"`
	PainPointMatch float64 `yaml:"pain_point_match" json:"pain_point_match"`
	Recency        float64 `yaml:"recency" json:"recency"`
	Engagement     float64 `yaml:"engagement" json:"engagement"`
}

type ScoringConfig struct {
	Mode        string  `yaml:"mode" json:"mode"` // heuristic, ai, hybrid
	Weights     Weights `yaml:"weights" json:"weights"`
	MinScore    float64 `yaml:"min_score" json:"min_score"`
	AIThreshold float64 `yaml:"ai_threshold" json:"ai_threshold"`
	MaxAIPerRun int     `yaml:"max_ai_per_run" json:"max_ai_per_run"`
	AIAPIKey    string  `yaml:"ai_api_key,omitempty" json:"ai_api_key,omitempty"`
	AIModel     string  `yaml:"ai_model,omitempty" json:"ai_model,omitempty"`
}

// SourceConfig defines a single signal source. Order in the yaml list is
// the fetch order of a scan.
type SourceConfig struct {
	ID             string   `yaml:"id" json:"id"`
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	SearchQueries  []string `yaml:"search_queries,omitempty" json:"search_queries,omitempty"`
	Subreddits     []string `yaml:"subreddits,omitempty" json:"subreddits,omitempty"`
	MaxStories     int      `yaml:"max_stories,omitempty" json:"max_stories,omitempty"`
	MaxPostsPerSub int      `yaml:"max_posts_per_sub,omitempty" json:"max_posts_per_sub,omitempty"`
	FeedURLs       []string `yaml:"feed_urls,omitempty" json:"feed_urls,omitempty"`
}

type OutputConfig struct {
	MaxLeads int `yaml:"max_leads" json:"max_leads"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

type EmbedConfig struct {
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
}

type Config struct {
	ICP              ICPConfig      `yaml:"icp" json:"icp"`
	NegativeKeywords []string       `yaml:"negative_keywords" json:"negative_keywords"`
	Scoring          ScoringConfig  `yaml:"scoring" json:"scoring"`
	Sources          []SourceConfig `yaml:"sources" json:"sources"`
	Output           OutputConfig   `yaml:"output" json:"output"`
	Server           ServerConfig   `yaml:"server" json:"server"`
	Embed            EmbedConfig    `yaml:"embed,omitempty" json:"embed,omitempty"`
}

// Load reads the config file at path, falling back to the embedded default
// when the path is empty or missing. Environment variables referenced as
// ${VAR} inside the yaml are expanded before parsing.
func Load(path string) (*Config, error) {
	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		data, err = defaultYAML.ReadFile("config.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config back to path as yaml.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyDefaults() {
	if c.Scoring.Mode == "" {
		c.Scoring.Mode = "heuristic"
	}
	w := &c.Scoring.Weights
	if w.KeywordMatch == 0 && w.PainPointMatch == 0 && w.Recency == 0 && w.Engagement == 0 {
		*w = Weights{KeywordMatch: 0.4, PainPointMatch: 0.2, Recency: 0.2, Engagement: 0.2}
	}
	if c.Scoring.MinScore == 0 {
		c.Scoring.MinScore = 3
	}
	if c.Scoring.AIThreshold == 0 {
		c.Scoring.AIThreshold = 4
	}
	if c.Scoring.MaxAIPerRun == 0 {
		c.Scoring.MaxAIPerRun = 50
	}
	if c.Output.MaxLeads == 0 {
		c.Output.MaxLeads = 50
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

// EnabledSources returns the ordered ids of enabled sources.
func (c *Config) EnabledSources() []string {
	var ids []string
	for _, src := range c.Sources {
		if src.Enabled {
			ids = append(ids, src.ID)
		}
	}
	return ids
}

// Source returns the config block for a source id, or nil.
func (c *Config) Source(id string) *SourceConfig {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i]
		}
	}
	return nil
}

// MaskAIKey returns a copy safe to expose over the API: the AI key is
// reduced to its first characters so the dashboard can show presence
// without leaking the secret.
func (c *Config) MaskAIKey() *Config {
	out := *c
	if key := out.Scoring.AIAPIKey; key != "" {
		if len(key) > 8 {
			out.Scoring.AIAPIKey = key[:8] + "..."
		} else {
			out.Scoring.AIAPIKey = "***"
		}
	}
	return &out
}
