package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Detection controls which words are flagged and how their spans are widened.
type Detection struct {
	Fillers      []string `toml:"fillers"`
	StutterGapMs int      `toml:"stutter_gap_ms"`
	LookbackMs   int      `toml:"lookback_ms"`
	PaddingMs    int      `toml:"padding_ms"`
}

// Output controls reassembly and where files go.
type Output struct {
	Mode        string `toml:"mode"`
	CrossfadeMs int    `toml:"crossfade_ms"`
	Dir         string `toml:"dir"`
}

// Transcription selects the speech recognizer.
type Transcription struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	Device       string `toml:"device"`
	Language     string `toml:"language"`
	Python       string `toml:"python"`
	ChunkMinutes int    `toml:"chunk_minutes"`
	Concurrency  int    `toml:"concurrency"`
}

// Review configures the optional LLM pass for contextual fillers.
type Review struct {
	Enabled    bool     `toml:"enabled"`
	Provider   string   `toml:"provider"`
	Model      string   `toml:"model"`
	Candidates []string `toml:"candidates"`
	BatchSize  int      `toml:"batch_size"`
}

// APIKeys holds provider credentials; environment variables take precedence.
type APIKeys struct {
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
	Anthropic string `toml:"anthropic"`
}

type Config struct {
	Detection     Detection     `toml:"detection"`
	Output        Output        `toml:"output"`
	Transcription Transcription `toml:"transcription"`
	Review        Review        `toml:"review"`
	APIKeys       APIKeys       `toml:"api_keys"`
}

func Default() Config {
	return Config{
		Detection: Detection{
			StutterGapMs: 200,
			LookbackMs:   100,
			PaddingMs:    50,
		},
		Output: Output{
			Mode:        "beep",
			CrossfadeMs: 10,
		},
		Transcription: Transcription{
			Provider:     "whisper",
			Device:       "auto",
			ChunkMinutes: 10,
			Concurrency:  3,
		},
		Review: Review{
			Provider:  "anthropic",
			BatchSize: 200,
		},
	}
}

func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fillercut/config.toml")
}

// Load reads the config at path, or the default location when path is empty,
// then applies environment overrides. It returns the resolved path and
// whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) normalize() error {
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	c.Review.Provider = strings.ToLower(strings.TrimSpace(c.Review.Provider))

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKeys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKeys.Gemini = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.APIKeys.Anthropic = v
	}
	if v := os.Getenv("FILLERCUT_DEVICE"); v != "" {
		c.Transcription.Device = strings.ToLower(v)
	}

	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	if c.Transcription.Python != "" && strings.ContainsAny(c.Transcription.Python, `/\`) {
		if c.Transcription.Python, err = expandPath(c.Transcription.Python); err != nil {
			return fmt.Errorf("transcription.python: %w", err)
		}
	}
	return nil
}

// APIKey returns the key for a provider name, empty when none is needed or set.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.APIKeys.OpenAI
	case "gemini":
		return c.APIKeys.Gemini
	case "anthropic":
		return c.APIKeys.Anthropic
	default:
		return ""
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Variables that are already set win. Missing files are skipped.
func LoadEnvFiles() ([]string, error) {
	envFiles := []string{".env", "fillercut.env"}
	if home, err := os.UserHomeDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(home, ".config", "fillercut", "fillercut.env"))
	}

	var loaded []string
	for _, envFile := range envFiles {
		info, err := os.Stat(envFile)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return loaded, fmt.Errorf("load %s: %w", envFile, err)
		}
		loaded = append(loaded, envFile)
	}
	return loaded, nil
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
