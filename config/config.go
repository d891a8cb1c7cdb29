// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const (
	appName        = "voxtype"
	configFileName = "config.json"
)

// Config represents the application configuration.
type Config struct {
	// Engine selects the speech engine: "vosk", "whisper" or "whisper-api".
	Engine   string `json:"engine"`
	Language string `json:"language"`

	// Listening is the initial awake state; false starts asleep.
	Listening bool `json:"listening"`

	// InputMethod is "type" (inject at focus) or "clipboard".
	InputMethod string `json:"input_method"`

	VoskModelPath    string `json:"vosk_model_path,omitempty"`
	WhisperModelPath string `json:"whisper_model_path,omitempty"`

	APIKey     string `json:"api_key,omitempty"`
	APIBaseURL string `json:"api_base_url,omitempty"`
	APIModel   string `json:"api_model,omitempty"`

	// SleepPhrase is the legacy single-phrase field, migrated into
	// SleepPhrases on load.
	SleepPhrase  string   `json:"sleep_phrase,omitempty"`
	SleepPhrases []string `json:"sleep_phrases"`
	WakePhrases  []string `json:"wake_phrases"`

	// WordLimit is how many new complete words accumulate before a chunk
	// is typed, so text appears without waiting for a long pause.
	WordLimit int `json:"word_limit"`

	// History enables the on-disk log of dictated utterances.
	History bool `json:"history"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine:      "vosk",
		Language:    "en",
		Listening:   true,
		InputMethod: "type",
		SleepPhrases: []string{
			"mute", "on mute", "go mute", "put on mute",
			"stop listening", "deactivate", "deactivate speech",
		},
		WakePhrases: []string{
			"unmute", "un mute", "on unmute", "wake", "wake up",
			"start listening", "resume", "activate", "activate speech",
		},
		WordLimit: 10,
		History:   true,
	}
}

// configPath returns the path of the config file.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// ModelDir returns the directory where speech models are stored.
func ModelDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, appName, "models"), nil
}

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

// loadFrom reads and migrates a config file. Absent fields keep their
// defaults because the file is unmarshaled over the default config.
func loadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.migrate()
	return cfg, nil
}

// migrate normalizes legacy fields and re-merges stock phrases, so new
// stock commands become available after an upgrade even when the user
// saved their own phrase lists.
func (c *Config) migrate() {
	defaults := Default()

	if c.SleepPhrase != "" && !slices.Contains(c.SleepPhrases, c.SleepPhrase) {
		c.SleepPhrases = append(c.SleepPhrases, c.SleepPhrase)
	}
	c.SleepPhrase = ""

	c.SleepPhrases = mergePhrases(defaults.SleepPhrases, c.SleepPhrases)
	c.WakePhrases = mergePhrases(defaults.WakePhrases, c.WakePhrases)

	if c.WordLimit < 1 {
		c.WordLimit = defaults.WordLimit
	}
	if c.Engine == "" {
		c.Engine = defaults.Engine
	}
	if c.InputMethod == "" {
		c.InputMethod = defaults.InputMethod
	}
}

// mergePhrases unions the stock and user phrase lists, preserving stock
// order first and dropping duplicates.
func mergePhrases(stock, user []string) []string {
	merged := make([]string, 0, len(stock)+len(user))
	merged = append(merged, stock...)
	for _, p := range user {
		if p != "" && !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	return merged
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.saveTo(path)
}

func (c *Config) saveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
