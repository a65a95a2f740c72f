package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"flashmind-student/internal/runner"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QuizSource() != SourceAPI || cfg.APIBaseURL() != "http://localhost:8080/api" {
		t.Fatalf("unexpected defaults source=%s base=%s", cfg.QuizSource(), cfg.APIBaseURL())
	}
	if rc := cfg.RunnerConfig(); rc != runner.DefaultConfig() {
		t.Fatalf("expected runner defaults, got %+v", rc)
	}
}

func TestLoadRejectsPostgresSourceWithoutURL(t *testing.T) {
	if _, err := Load(writeConfig(t, "quiz:\n  source: postgres\n")); err == nil {
		t.Fatalf("expected error for postgres source without url")
	}
	if _, err := Load(writeConfig(t, "quiz:\n  source: mongo\n")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestRunnerConfigMaxScore(t *testing.T) {
	cfg, err := Load(writeConfig(t, "quiz:\n  timeBudget: 20\n  maxScore: 1000\n  strictOptions: true\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rc := cfg.RunnerConfig()
	if rc.TimeBudget != 20 || rc.PointsPerQuestion != 0 || rc.MaxScore != 1000 || !rc.StrictOptions {
		t.Fatalf("unexpected runner config %+v", rc)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid value, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
