/*
Package config manages TOML config for the tinyime engine, server and CLI.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file created in the config dir.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Dict   DictConfig   `toml:"dict"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig has composition options.
type EngineConfig struct {
	MaxCandidates    int `toml:"max_candidates"`
	MaxVisible       int `toml:"max_visible"`
	CapsLockWindowMs int `toml:"caps_lock_window_ms"`
	MaxBuffer        int `toml:"max_buffer"`
	CacheSize        int `toml:"cache_size"`
}

// DictConfig holds dictionary resource options.
type DictConfig struct {
	DataDir      string `toml:"data_dir"`
	Corpus       string `toml:"corpus"`
	Words        string `toml:"words"`
	Alternatives string `toml:"alternatives"`
	ScriptMarker string `toml:"script_marker"`
	MaxRetries   int    `toml:"max_retries"`
	RetryDelayMs int    `toml:"retry_delay_ms"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	LogLevel      string `toml:"log_level"`
	AllCandidates bool   `toml:"all_candidates"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	Prompt     string `toml:"prompt"`
	ShowHidden bool   `toml:"show_hidden"`
	NoColor    bool   `toml:"no_color"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxCandidates:    20,
			MaxVisible:       12,
			CapsLockWindowMs: 800,
			MaxBuffer:        64,
			CacheSize:        2048,
		},
		Dict: DictConfig{
			DataDir:      "data",
			Corpus:       "pinyin_corpus.txt",
			Words:        "words.json",
			Alternatives: "alternatives.json",
			ScriptMarker: "0",
			MaxRetries:   3,
			RetryDelayMs: 100,
		},
		Server: ServerConfig{
			LogLevel:      "warn",
			AllCandidates: false,
		},
		CLI: CliConfig{
			Prompt:     "> ",
			ShowHidden: false,
			NoColor:    false,
		},
	}
}

// Sanitize replaces out of range values with their defaults.
func (c *Config) Sanitize() {
	def := DefaultConfig()
	if c.Engine.MaxCandidates <= 0 {
		log.Warnf("Invalid max_candidates %d, using %d", c.Engine.MaxCandidates, def.Engine.MaxCandidates)
		c.Engine.MaxCandidates = def.Engine.MaxCandidates
	}
	if c.Engine.MaxVisible <= 0 {
		log.Warnf("Invalid max_visible %d, using %d", c.Engine.MaxVisible, def.Engine.MaxVisible)
		c.Engine.MaxVisible = def.Engine.MaxVisible
	}
	if c.Engine.CapsLockWindowMs <= 0 {
		c.Engine.CapsLockWindowMs = def.Engine.CapsLockWindowMs
	}
	if c.Engine.MaxBuffer < 0 {
		c.Engine.MaxBuffer = 0
	}
	if c.Engine.CacheSize < 0 {
		c.Engine.CacheSize = 0
	}
	if c.Dict.ScriptMarker == "" {
		c.Dict.ScriptMarker = def.Dict.ScriptMarker
	}
	if c.Dict.MaxRetries < 0 {
		c.Dict.MaxRetries = 0
	}
	if c.Dict.RetryDelayMs < 0 {
		c.Dict.RetryDelayMs = def.Dict.RetryDelayMs
	}
}

// CapsLockWindow returns the double-shift window as a duration
func (e EngineConfig) CapsLockWindow() time.Duration {
	return time.Duration(e.CapsLockWindowMs) * time.Millisecond
}

// RetryDelay returns the base retry delay as a duration
func (d DictConfig) RetryDelay() time.Duration {
	return time.Duration(d.RetryDelayMs) * time.Millisecond
}

// Resources lists the configured resource names, skipping empty ones
func (d DictConfig) Resources() []string {
	var out []string
	for _, name := range []string{d.Corpus, d.Words, d.Alternatives} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/tinyime/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string, resolver *utils.PathResolver) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	if resolver == nil {
		log.Warn("No config location available. Using built-in defaults...")
		return DefaultConfig(), ""
	}

	defaultPath := resolver.GetConfigPath(FileName)
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Sanitize()
	return config, nil
}

// tryPartialParse keeps every well-typed value it can find and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.Sanitize()
	return config, nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "max_candidates"); ok {
		engine.MaxCandidates = val
	}
	if val, ok := utils.ExtractInt64(data, "max_visible"); ok {
		engine.MaxVisible = val
	}
	if val, ok := utils.ExtractInt64(data, "caps_lock_window_ms"); ok {
		engine.CapsLockWindowMs = val
	}
	if val, ok := utils.ExtractInt64(data, "max_buffer"); ok {
		engine.MaxBuffer = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		engine.CacheSize = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		dict.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "corpus"); ok {
		dict.Corpus = val
	}
	if val, ok := utils.ExtractString(data, "words"); ok {
		dict.Words = val
	}
	if val, ok := utils.ExtractString(data, "alternatives"); ok {
		dict.Alternatives = val
	}
	if val, ok := utils.ExtractString(data, "script_marker"); ok {
		dict.ScriptMarker = val
	}
	if val, ok := utils.ExtractInt64(data, "max_retries"); ok {
		dict.MaxRetries = val
	}
	if val, ok := utils.ExtractInt64(data, "retry_delay_ms"); ok {
		dict.RetryDelayMs = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractString(data, "log_level"); ok {
		server.LogLevel = val
	}
	if val, ok := utils.ExtractBool(data, "all_candidates"); ok {
		server.AllCandidates = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractString(data, "prompt"); ok {
		cli.Prompt = val
	}
	if val, ok := utils.ExtractBool(data, "show_hidden"); ok {
		cli.ShowHidden = val
	}
	if val, ok := utils.ExtractBool(data, "no_color"); ok {
		cli.NoColor = val
	}
}

// RebuildConfigFile force creates a new default config file at configPath
func RebuildConfigFile(configPath string) error {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}
