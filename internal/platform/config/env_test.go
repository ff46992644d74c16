package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Turns int `env:"RUNERUST_TEST_TURNS" envDefault:"12"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Turns != 12 {
		t.Fatalf("expected default turns 12, got %d", cfg.Turns)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("RUNERUST_TEST_TURNS", "3")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Turns != 3 {
		t.Fatalf("expected turns 3, got %d", cfg.Turns)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("RUNERUST_TEST_TURNS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
