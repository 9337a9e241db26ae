package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"arxitex/internal/infer"
	"arxitex/internal/types"
)

// Settings holds the runtime configuration for the arxitex-ingest CLI: API
// credentials, storage locations, rate limits, and the heuristic thresholds
// that gate which discovered papers get processed. It is loaded through a
// viper instance so values can come from a config file or environment
// variables (ARXITEX_ prefixed), with environment variables winning. Load
// reads no command-line flags; callers apply any flag overrides afterwards.
type Settings struct {
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OracleModel     string `mapstructure:"oracle_model"`
	OracleMaxTries  uint64 `mapstructure:"oracle_max_tries"`

	DBPath      string `mapstructure:"db_path"`
	CacheDir    string `mapstructure:"cache_dir"`
	SourcesDir  string `mapstructure:"sources_dir"`

	ArxivMailto    string  `mapstructure:"arxiv_mailto"`
	ScholarlyQPS   float64 `mapstructure:"scholarly_qps"`
	CitationRefreshDays int `mapstructure:"citation_refresh_days"`

	Mode      string `mapstructure:"mode"`
	InferMode string `mapstructure:"infer_mode"`

	MaxConcurrentTasks    int64    `mapstructure:"max_concurrent_tasks"`
	MaxConcurrentOracle   int64    `mapstructure:"max_concurrent_oracle"`
	MaxPages              int      `mapstructure:"max_pages"`
	DisqualifyingKeywords []string `mapstructure:"disqualifying_keywords"`
}

// defaultSettings returns the baseline values applied before the config
// file and environment are layered on top.
func defaultSettings() Settings {
	return Settings{
		OracleModel:         "claude-sonnet-4-5",
		OracleMaxTries:      5,
		DBPath:              "arxitex.db",
		CacheDir:            ".arxitex/oracle-cache",
		SourcesDir:          ".arxitex/sources",
		ScholarlyQPS:        3,
		CitationRefreshDays: 30,
		Mode:                string(types.ModeFull),
		InferMode:           string(infer.ModeAuto),
		MaxConcurrentTasks:  4,
		MaxConcurrentOracle: 2,
		MaxPages:            0,
	}
}

// Load reads settings from configPath (if non-empty and present), then
// ARXITEX_-prefixed environment variables, using defaultSettings as the
// base layer. configPath missing is not an error; an unreadable or
// malformed existing file is.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("arxitex")
	v.AutomaticEnv()

	def := defaultSettings()
	v.SetDefault("anthropic_api_key", def.AnthropicAPIKey)
	v.SetDefault("oracle_model", def.OracleModel)
	v.SetDefault("oracle_max_tries", def.OracleMaxTries)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("sources_dir", def.SourcesDir)
	v.SetDefault("arxiv_mailto", def.ArxivMailto)
	v.SetDefault("scholarly_qps", def.ScholarlyQPS)
	v.SetDefault("citation_refresh_days", def.CitationRefreshDays)
	v.SetDefault("mode", def.Mode)
	v.SetDefault("infer_mode", def.InferMode)
	v.SetDefault("max_concurrent_tasks", def.MaxConcurrentTasks)
	v.SetDefault("max_concurrent_oracle", def.MaxConcurrentOracle)
	v.SetDefault("max_pages", def.MaxPages)
	v.SetDefault("disqualifying_keywords", def.DisqualifyingKeywords)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType(configType(configPath))
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.AnthropicAPIKey == "" {
		s.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &s, nil
}

func configType(path string) string {
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}
