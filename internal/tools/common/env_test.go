package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFileMissingIsNoop(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoadEnvFileLoadsAndPreservesExisting(t *testing.T) {
	t.Setenv("SESSION_ENV_EXISTING", "from-env")
	file := filepath.Join(t.TempDir(), "local.env")
	content := "# comment\nSESSION_ENV_EXISTING=from-file\nSESSION_ENV_NEW=hello\nSESSION_ENV_QUOTED=\"x\"\nGARBAGE_LINE\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if err := LoadEnvFile(file); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("SESSION_ENV_EXISTING"); got != "from-env" {
		t.Fatalf("expected existing var to be preserved, got %q", got)
	}
	if got := os.Getenv("SESSION_ENV_NEW"); got != "hello" {
		t.Fatalf("unexpected SESSION_ENV_NEW=%q", got)
	}
	if got := os.Getenv("SESSION_ENV_QUOTED"); got != "x" {
		t.Fatalf("unexpected SESSION_ENV_QUOTED=%q", got)
	}
}

func TestLoadEnvFileOpenError(t *testing.T) {
	if err := LoadEnvFile(t.TempDir()); err == nil {
		t.Fatal("expected error when path is a directory")
	}
}

func FuzzLoadEnvFileRobustness(f *testing.F) {
	f.Add([]byte("KEY=value\nANOTHER=ok\n"))
	f.Add([]byte("GARBAGE_LINE\n# comment\n QUOTED = \"x\" \n"))
	f.Add([]byte("NO_EQUALS\nBROKEN"))
	f.Add(bytes.Repeat([]byte("B"), 70000))

	f.Fuzz(func(t *testing.T, content []byte) {
		if len(content) > 200000 {
			content = content[:200000]
		}

		file := filepath.Join(t.TempDir(), "fuzz.env")
		if err := os.WriteFile(file, content, 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}

		classify := func(err error) string {
			if err == nil {
				return "none"
			}
			msg := err.Error()
			switch {
			case strings.Contains(msg, "open env file:"):
				return "open"
			case strings.Contains(msg, "read env file:"):
				return "read"
			default:
				return "other"
			}
		}

		first := classify(LoadEnvFile(file))
		second := classify(LoadEnvFile(file))
		if first != second {
			t.Fatalf("error classification must be deterministic: first=%q second=%q", first, second)
		}
		if first == "other" {
			t.Fatalf("unexpected error class %q", first)
		}
	})
}
