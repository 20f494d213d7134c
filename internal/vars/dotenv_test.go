package vars

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadDotEnv(t *testing.T) {
	t.Parallel()

	path := writeDotEnv(t, `
# comment
export BASE_URL=https://api.example.com
TOKEN="abc 123" # inline after quote
NAME='single'
PLAIN=value ; trailing comment
EMPTY=
`)

	entries, err := LoadDotEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	expectations := map[string]string{
		"BASE_URL": "https://api.example.com",
		"TOKEN":    "abc 123",
		"NAME":     "single",
		"PLAIN":    "value",
		"EMPTY":    "",
	}
	for _, entry := range entries {
		if !entry.Enabled {
			t.Fatalf("entry %q should load enabled", entry.Key)
		}
		want, ok := expectations[entry.Key]
		if !ok {
			t.Fatalf("unexpected key %q", entry.Key)
		}
		if entry.Value != want {
			t.Fatalf("key %q: expected %q, got %q", entry.Key, want, entry.Value)
		}
	}
}

func TestLoadDotEnvPreservesOrder(t *testing.T) {
	t.Parallel()

	path := writeDotEnv(t, "KEY=first\nKEY=second\n")
	entries, err := LoadDotEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 || entries[1].Value != "second" {
		t.Fatalf("expected file order to survive, got %+v", entries)
	}

	// the duplicate shadows the earlier one when the scope is flattened
	snap := BuildSnapshot(nil, entries, nil)
	if got, _ := snap.Lookup("KEY"); got != "second" {
		t.Fatalf("expected later entry to win, got %q", got)
	}
}

func TestLoadDotEnvErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"NOEQUALSHERE\n",
		"=nokey\n",
		"BROKEN=\"unterminated\n",
		"TRAILING=\"x\" garbage\n",
	}
	for _, content := range cases {
		path := writeDotEnv(t, content)
		if _, err := LoadDotEnv(path); err == nil {
			t.Fatalf("expected parse error for %q", content)
		}
	}
}
