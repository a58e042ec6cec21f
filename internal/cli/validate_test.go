package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mathtoys-quiz/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateShippedData(t *testing.T) {
	out, err := runCLI(t, "validate", "--data", filepath.Join("..", "..", "data"))
	if err != nil {
		t.Fatalf("expected shipped data to validate, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "3 quizzes, 22 questions, 0 problems") {
		t.Fatalf("unexpected summary: %s", out)
	}
}

func TestValidateReportsBrokenBank(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quiz_config.json", `{"quizzes": [
		{"id": "coins", "file": "coins.json", "answer_type": "fixed_two_option", "options": ["heads", "tails"]}
	]}`)
	writeFile(t, dir, "coins.json", `{"questions": [
		{"id": 1, "question": "Toss", "correct": "edge"}
	]}`)

	out, err := runCLI(t, "validate", "--data", dir)
	if err == nil {
		t.Fatalf("expected validation failure, got output %s", out)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "coins") {
		t.Fatalf("expected the broken quiz to be reported, got %s", out)
	}
}

func TestPlayListsCatalogWithoutQuiz(t *testing.T) {
	out, err := runCLI(t, "play", "--data", filepath.Join("..", "..", "data"))
	if err != nil {
		t.Fatalf("play without --quiz: %v", err)
	}
	for _, id := range []string{"variable-types", "distributions", "stat-tests"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected %s in listing, got %s", id, out)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCommandsRejectUnusableConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "quiz:\n  session_ttl: \"-\"\n  option_count: -4\n")

	for _, sub := range []string{"validate", "play"} {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), sub, "--data", filepath.Join("..", "..", "data")})
		err := cmd.Execute()
		if !errors.Is(err, config.ErrInvalid) {
			t.Fatalf("%s: expected invalid config error, got %v", sub, err)
		}
	}
}
