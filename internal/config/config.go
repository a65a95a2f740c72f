package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"flashmind-student/internal/runner"
	"gopkg.in/yaml.v3"
)

// Quiz sources.
const (
	SourceAPI      = "api"
	SourcePostgres = "postgres"
	SourceStatic   = "static"
)

type Config struct {
	Server struct {
		Port          string   `yaml:"port"`
		SessionSecret string   `yaml:"sessionSecret"`
		SecureCookie  bool     `yaml:"secureCookie"`
		CORSOrigins   []string `yaml:"corsOrigins"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		Source            string `yaml:"source"`
		BankFile          string `yaml:"bankFile"`
		TTL               string `yaml:"ttl"`
		TimeBudget        int    `yaml:"timeBudget"`
		PointsPerQuestion int    `yaml:"pointsPerQuestion"`
		MaxScore          int    `yaml:"maxScore"`
		StrictOptions     bool   `yaml:"strictOptions"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.QuizSource() {
	case SourceAPI, SourceStatic:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("quiz.source postgres needs postgres.url")
		}
	default:
		return fmt.Errorf("unknown quiz.source %q", c.Quiz.Source)
	}
	if c.Quiz.TimeBudget < 0 || c.Quiz.PointsPerQuestion < 0 || c.Quiz.MaxScore < 0 {
		return fmt.Errorf("quiz timings and scores must not be negative")
	}
	return nil
}

// QuizSource defaults to the remote API.
func (c Config) QuizSource() string {
	source := strings.ToLower(strings.TrimSpace(c.Quiz.Source))
	if source == "" {
		return SourceAPI
	}
	return source
}

// APIBaseURL defaults to the backend's local development address.
func (c Config) APIBaseURL() string {
	if c.API.BaseURL == "" {
		return "http://localhost:8080/api"
	}
	return c.API.BaseURL
}

// RunnerConfig maps the quiz section onto runner settings; zero values keep
// the runner defaults.
func (c Config) RunnerConfig() runner.Config {
	rc := runner.DefaultConfig()
	if c.Quiz.TimeBudget > 0 {
		rc.TimeBudget = c.Quiz.TimeBudget
	}
	switch {
	case c.Quiz.PointsPerQuestion > 0:
		rc.PointsPerQuestion = c.Quiz.PointsPerQuestion
	case c.Quiz.MaxScore > 0:
		// MaxScore only applies when no per-question value is set.
		rc.PointsPerQuestion = 0
	}
	rc.MaxScore = c.Quiz.MaxScore
	rc.StrictOptions = c.Quiz.StrictOptions
	return rc
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
