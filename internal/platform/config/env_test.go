package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port  int    `env:"TEST_PORT" envDefault:"123"`
	Label string `env:"TEST_LABEL"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvUsesPrefix(t *testing.T) {
	t.Setenv("TABLETOP_RUN_TEST_LABEL", "prefixed")
	t.Setenv("TEST_LABEL", "bare")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Label != "prefixed" {
		t.Fatalf("label = %q, want prefixed", cfg.Label)
	}
}

func TestParseEnvWithPrefix(t *testing.T) {
	t.Setenv("OTHER_TEST_PORT", "9")

	var cfg envTestConfig
	if err := ParseEnvWithPrefix(&cfg, "OTHER_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9 {
		t.Fatalf("port = %d, want 9", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("TABLETOP_RUN_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
