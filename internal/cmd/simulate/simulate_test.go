package simulate

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Turns != 10 {
		t.Fatalf("expected 10 default turns, got %d", cfg.Turns)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected in-memory default, got db path %q", cfg.DBPath)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-turns", "3", "-seed", "42", "-validate"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Turns != 3 || cfg.Seed != 42 || !cfg.Validate {
		t.Fatalf("flag overrides not applied: %+v", cfg)
	}
}

func TestRunValidateOnly(t *testing.T) {
	var out, errOut bytes.Buffer

	err := Run(context.Background(), Config{Validate: true}, &out, &errOut)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "ruleset OK") {
		t.Fatalf("output = %q, want validation confirmation", out.String())
	}
}

func TestRunScriptedEncounter(t *testing.T) {
	var out, errOut bytes.Buffer

	err := Run(context.Background(), Config{Seed: 42, Turns: 5, Verbose: true}, &out, &errOut)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output := out.String()
	for _, want := range []string{"seed 42", "turn 1", "turn 5", "parley ended", "short rest", "brakka:", "sorin:", "velka:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunSQLiteBacked(t *testing.T) {
	var out, errOut bytes.Buffer
	dbPath := filepath.Join(t.TempDir(), "encounter.db")

	err := Run(context.Background(), Config{Seed: 7, Turns: 2, DBPath: dbPath}, &out, &errOut)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "short rest") {
		t.Fatalf("output = %q, want encounter summary", out.String())
	}
}
