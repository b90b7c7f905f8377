package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPlaylistID = "PLfoNZDHitwjUleAqrgG-OC5gVAL2mv-Mh"

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Transcript TranscriptConfig `yaml:"transcript"`
	AI         AIConfig         `yaml:"ai"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Server     ServerConfig     `yaml:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Schedule   string           `yaml:"schedule"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
	PlaylistID   string `yaml:"playlist_id"`
	PageSize     int64  `yaml:"page_size"`
	// Endpoint overrides the API base URL, mostly useful for tests.
	Endpoint string `yaml:"endpoint"`
}

// HasCredential reports whether either an API key or an OAuth client with a
// token file is configured.
func (y YouTubeConfig) HasCredential() bool {
	if y.APIKey != "" {
		return true
	}
	return y.ClientID != "" && y.ClientSecret != "" && y.TokenFile != ""
}

type TranscriptConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri" env:"MONGODB_URI"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type PipelineConfig struct {
	// Delay paces outbound calls between two videos of the same batch.
	Delay       time.Duration `yaml:"delay"`
	RecentLimit int64         `yaml:"recent_limit"`
}

// Load reads .env, then the YAML file named by CONFIG_FILE (config.yaml by
// default, optional), then fills secrets from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	cfg, err := LoadFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile parses a YAML config file. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = getenv("GEMINI_API_KEY")
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = getenv("MONGODB_URI")
	}
}

func (c *Config) applyDefaults() {
	if c.YouTube.PlaylistID == "" {
		c.YouTube.PlaylistID = DefaultPlaylistID
	}
	if c.YouTube.PageSize == 0 {
		c.YouTube.PageSize = 50
	}
	if c.Transcript.BaseURL == "" {
		c.Transcript.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Transcript.Timeout == 0 {
		c.Transcript.Timeout = 30 * time.Second
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.0-flash"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "f1explorer"
	}
	if c.Mongo.Timeout == 0 {
		c.Mongo.Timeout = 10 * time.Second
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Pipeline.Delay == 0 {
		c.Pipeline.Delay = 500 * time.Millisecond
	}
	if c.Pipeline.RecentLimit == 0 {
		c.Pipeline.RecentLimit = 50
	}
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MongoDB URI is required (set MONGODB_URI or mongo.uri)")
	}
	if c.YouTube.PageSize < 1 || c.YouTube.PageSize > 50 {
		return fmt.Errorf("youtube.page_size must be between 1 and 50, got %d", c.YouTube.PageSize)
	}
	if c.Pipeline.Delay < 0 {
		return fmt.Errorf("pipeline.delay must not be negative, got %v", c.Pipeline.Delay)
	}
	if c.Pipeline.RecentLimit < 1 {
		return fmt.Errorf("pipeline.recent_limit must be positive, got %d", c.Pipeline.RecentLimit)
	}
	return nil
}
