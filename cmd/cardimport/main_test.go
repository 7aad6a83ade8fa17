package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cardimport/internal/core"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func execute(env map[string]string, args ...string) (int, string) {
	root := newRootCmd(envMap(env))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return exitCode(err), out.String()
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"import failure", withCode(exitFailure, errors.New("boom")), exitFailure},
		{"usage", withCode(exitUsage, errors.New("bad flag")), exitUsage},
		{"cobra flag error", errors.New("unknown flag: --nope"), exitUsage},
	}

	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWithCode_Nil(t *testing.T) {
	if withCode(exitFailure, nil) != nil {
		t.Error("withCode(nil) should be nil")
	}
}

func TestImportCmd_UsageErrors(t *testing.T) {
	valid := map[string]string{"DATABASE_URL": "postgres://localhost:5432/cards"}

	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database url", map[string]string{}, []string{"import"}},
		{"zero limit", valid, []string{"import", "--limit", "0"}},
		{"negative limit", valid, []string{"import", "-l", "-3"}},
		{"zero batch size", valid, []string{"import", "--batch-size", "0"}},
		{"non-numeric limit", valid, []string{"import", "--limit", "many"}},
		{"unknown flag", valid, []string{"import", "--nope"}},
		{"positional argument", valid, []string{"import", "cards.csv"}},
		{"invalid env", map[string]string{"DATABASE_URL": "x", "IMPORT_TABLE": "drop table"}, []string{"import"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := execute(tt.env, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestResolveConfig_FlagsOverrideEnv(t *testing.T) {
	env := envMap(map[string]string{
		"DATABASE_URL":      "postgres://localhost:5432/cards",
		"IMPORT_FILE":       "env.csv",
		"IMPORT_BATCH_SIZE": "200",
		"IMPORT_LIMIT":      "9",
	})

	cmd := newImportCmd(env)
	if err := cmd.ParseFlags([]string{"-f", "flag.csv", "--limit", "5"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	opts := importOptions{file: "flag.csv", limit: 5}
	cfg, err := resolveConfig(env, cmd.Flags(), opts)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.Import.File != "flag.csv" {
		t.Errorf("File = %q, want flag.csv", cfg.Import.File)
	}
	if cfg.Import.Limit != 5 {
		t.Errorf("Limit = %d, want 5", cfg.Import.Limit)
	}
	if cfg.Import.BatchSize != 200 {
		t.Errorf("BatchSize = %d, want env value 200", cfg.Import.BatchSize)
	}
}

func TestSummary(t *testing.T) {
	res := &core.RunResult{Imported: 2, Processed: 3, Elapsed: 1250 * time.Millisecond}
	want := "Imported 2 cards (processed 3) in 1.25 seconds."
	if got := summary(res); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestImportCmd_SourceCheckedBeforeDatabase(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantCode string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.csv"), "FILE001"},
		{"directory", t.TempDir(), "FILE002"},
	}

	// Nothing listens on port 1: reaching the database would fail differently.
	env := map[string]string{"DATABASE_URL": "postgres://127.0.0.1:1/cards"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := execute(env, "import", "-f", tt.file)
			if code != exitFailure {
				t.Errorf("exit code = %d, want %d", code, exitFailure)
			}
			if !strings.Contains(out, "(Code: "+tt.wantCode+")") {
				t.Errorf("output should report %s: %q", tt.wantCode, out)
			}
			if strings.Contains(out, "Unable to connect to database") {
				t.Errorf("database contacted before source check: %q", out)
			}
		})
	}
}
