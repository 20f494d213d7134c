package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

type SettingsFormat string

type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

type HTTPSettings struct {
	TimeoutSeconds  int  `json:"timeout_seconds"  toml:"timeout_seconds"`
	FollowRedirects bool `json:"follow_redirects" toml:"follow_redirects"`
}

type ScriptSettings struct {
	// TimeoutSeconds bounds one sandbox run. Zero means the built-in default.
	TimeoutSeconds int `json:"timeout_seconds" toml:"timeout_seconds"`
}

type TelemetrySettings struct {
	Endpoint    string `json:"endpoint"     toml:"endpoint"`
	Insecure    bool   `json:"insecure"     toml:"insecure"`
	ServiceName string `json:"service_name" toml:"service_name"`
}

type Settings struct {
	StorePath   string            `json:"store_path"   toml:"store_path"`
	HistoryPath string            `json:"history_path" toml:"history_path"`
	HistoryMax  int               `json:"history_max"  toml:"history_max"`
	HTTP        HTTPSettings      `json:"http"         toml:"http"`
	Script      ScriptSettings    `json:"script"       toml:"script"`
	Telemetry   TelemetrySettings `json:"telemetry"    toml:"telemetry"`
}

func (s Settings) ScriptTimeout() time.Duration {
	return time.Duration(s.Script.TimeoutSeconds) * time.Second
}

func (s Settings) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTP.TimeoutSeconds) * time.Second
}

func Dir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "reqdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reqdeck"
	}
	return filepath.Join(home, ".reqdeck")
}

func DefaultSettings() Settings {
	dir := Dir()
	return Settings{
		StorePath:   filepath.Join(dir, "variables.db"),
		HistoryPath: filepath.Join(dir, "history.json"),
		HistoryMax:  200,
		HTTP:        HTTPSettings{TimeoutSeconds: 30, FollowRedirects: true},
	}
}

// tries loading TOML first, then JSON, then returns default settings if
// neither exists. parse errors fail immediately but missing files just skip
// to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return normalize(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}
	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func normalize(settings Settings) Settings {
	defaults := DefaultSettings()
	if settings.StorePath == "" {
		settings.StorePath = defaults.StorePath
	}
	if settings.HistoryPath == "" {
		settings.HistoryPath = defaults.HistoryPath
	}
	if settings.HistoryMax <= 0 {
		settings.HistoryMax = defaults.HistoryMax
	}
	if settings.HTTP.TimeoutSeconds <= 0 {
		settings.HTTP.TimeoutSeconds = defaults.HTTP.TimeoutSeconds
	}
	return settings
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial data.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".reqdeck-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
