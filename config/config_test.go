package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Engine != "vosk" {
		t.Errorf("Engine = %q, want %q", cfg.Engine, "vosk")
	}
	if !cfg.Listening {
		t.Error("Listening = false, want true")
	}
	if cfg.WordLimit != 10 {
		t.Errorf("WordLimit = %d, want 10", cfg.WordLimit)
	}
}

func TestLoadFrom_AbsentFieldsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"engine":"whisper"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Engine != "whisper" {
		t.Errorf("Engine = %q, want %q", cfg.Engine, "whisper")
	}
	if !cfg.Listening {
		t.Error("Listening = false, want default true")
	}
	if !slices.Contains(cfg.SleepPhrases, "mute") {
		t.Errorf("SleepPhrases = %v, want stock phrases", cfg.SleepPhrases)
	}
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, c *Config)
	}{
		{
			name: "legacy sleep_phrase moves into list",
			cfg:  Config{SleepPhrase: "quiet now"},
			check: func(t *testing.T, c *Config) {
				if c.SleepPhrase != "" {
					t.Errorf("SleepPhrase = %q, want empty", c.SleepPhrase)
				}
				if !slices.Contains(c.SleepPhrases, "quiet now") {
					t.Errorf("SleepPhrases = %v, want to contain %q", c.SleepPhrases, "quiet now")
				}
			},
		},
		{
			name: "user phrases merge with stock",
			cfg:  Config{SleepPhrases: []string{"hush"}, WakePhrases: []string{"speak"}},
			check: func(t *testing.T, c *Config) {
				if !slices.Contains(c.SleepPhrases, "hush") || !slices.Contains(c.SleepPhrases, "mute") {
					t.Errorf("SleepPhrases = %v, want user and stock merged", c.SleepPhrases)
				}
				if !slices.Contains(c.WakePhrases, "speak") || !slices.Contains(c.WakePhrases, "wake up") {
					t.Errorf("WakePhrases = %v, want user and stock merged", c.WakePhrases)
				}
			},
		},
		{
			name: "no duplicate phrases after merge",
			cfg:  Config{SleepPhrases: []string{"mute", "mute"}},
			check: func(t *testing.T, c *Config) {
				n := 0
				for _, p := range c.SleepPhrases {
					if p == "mute" {
						n++
					}
				}
				if n != 1 {
					t.Errorf("got %d copies of %q, want 1", n, "mute")
				}
			},
		},
		{
			name: "invalid word limit resets to default",
			cfg:  Config{WordLimit: 0},
			check: func(t *testing.T, c *Config) {
				if c.WordLimit != 10 {
					t.Errorf("WordLimit = %d, want 10", c.WordLimit)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.migrate()
			tt.check(t, &cfg)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := Default()
	cfg.Engine = "whisper-api"
	cfg.APIKey = "sk-test"
	cfg.Listening = false
	cfg.WordLimit = 5

	if err := cfg.saveTo(path); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	got, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if got.Engine != "whisper-api" {
		t.Errorf("Engine = %q, want %q", got.Engine, "whisper-api")
	}
	if got.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want %q", got.APIKey, "sk-test")
	}
	if got.Listening {
		t.Error("Listening = true, want false")
	}
	if got.WordLimit != 5 {
		t.Errorf("WordLimit = %d, want 5", got.WordLimit)
	}
}
