package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndDecodeTOML(t *testing.T) {
	dir := t.TempDir()
	handle := SettingsHandle{
		Path:   filepath.Join(dir, "settings.toml"),
		Format: SettingsFormatTOML,
	}
	in := Settings{
		StorePath:   "/data/variables.db",
		HistoryPath: "/data/history.json",
		HistoryMax:  50,
		HTTP:        HTTPSettings{TimeoutSeconds: 10, FollowRedirects: true},
		Script:      ScriptSettings{TimeoutSeconds: 5},
		Telemetry: TelemetrySettings{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "reqdeck-dev",
		},
	}

	if err := SaveSettings(in, handle); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(handle.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out, err := decodeSettings(data, SettingsFormatTOML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestSaveAndDecodeJSON(t *testing.T) {
	dir := t.TempDir()
	handle := SettingsHandle{
		Path:   filepath.Join(dir, "settings.json"),
		Format: SettingsFormatJSON,
	}
	in := DefaultSettings()
	in.HistoryMax = 25

	if err := SaveSettings(in, handle); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(handle.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out, err := decodeSettings(data, SettingsFormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	if _, err := decodeSettings([]byte(`{"no_such_field": 1}`), SettingsFormatJSON); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	defaults := DefaultSettings()
	got := normalize(Settings{HistoryMax: -1})

	if got.StorePath != defaults.StorePath {
		t.Fatalf("store path: got %q, want %q", got.StorePath, defaults.StorePath)
	}
	if got.HistoryPath != defaults.HistoryPath {
		t.Fatalf("history path: got %q, want %q", got.HistoryPath, defaults.HistoryPath)
	}
	if got.HistoryMax != defaults.HistoryMax {
		t.Fatalf("history max: got %d, want %d", got.HistoryMax, defaults.HistoryMax)
	}
	if got.HTTP.TimeoutSeconds != defaults.HTTP.TimeoutSeconds {
		t.Fatalf("http timeout: got %d, want %d", got.HTTP.TimeoutSeconds, defaults.HTTP.TimeoutSeconds)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	in := Settings{
		StorePath:   "/custom/store.db",
		HistoryPath: "/custom/history.json",
		HistoryMax:  5,
		HTTP:        HTTPSettings{TimeoutSeconds: 3},
	}
	got := normalize(in)
	if got != in {
		t.Fatalf("normalize must keep explicit values:\n got %+v\nwant %+v", got, in)
	}
}

func TestTimeoutAccessors(t *testing.T) {
	s := Settings{
		HTTP:   HTTPSettings{TimeoutSeconds: 12},
		Script: ScriptSettings{TimeoutSeconds: 4},
	}
	if s.HTTPTimeout() != 12*time.Second {
		t.Fatalf("http timeout: got %s", s.HTTPTimeout())
	}
	if s.ScriptTimeout() != 4*time.Second {
		t.Fatalf("script timeout: got %s", s.ScriptTimeout())
	}
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := writeFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("got %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}
