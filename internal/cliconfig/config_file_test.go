package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				SaveDir:       "/saves/a",
				LogFormat:     "json",
				DebounceDelay: "100ms",
				MaxRetries:    3,
				Watch:         &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				SaveDir:       "/saves/a",
				LogFormat:     "json",
				DebounceDelay: 100 * time.Millisecond,
				MaxRetries:    3,
				Watch:         true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				SaveDir:     "/config/save",
				CommitOrder: "issue",
				Backup:      &falseVal,
			},
			changed: map[string]bool{"save-dir": true, "backup": true},
			initial: Config{SaveDir: "/flag/save", Backup: true},
			expected: Config{
				SaveDir:     "/flag/save",
				CommitOrder: "issue",
				Backup:      true,
			},
		},
		{
			name:       "zero values leave defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{RetryInterval: "later"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.expected, cfg); diff != "" {
				t.Errorf("ApplyFileConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	tomlContent := `
save_dir = "/games/kotor2/saves/000003 - QUICKSAVE"
log_level = "debug"
commit_order = "issue"
backup = true
debounce = "500ms"
max_retries = 7
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	trueVal := true
	want := FileConfig{
		SaveDir:       "/games/kotor2/saves/000003 - QUICKSAVE",
		LogLevel:      "debug",
		CommitOrder:   "issue",
		Backup:        &trueVal,
		DebounceDelay: "500ms",
		MaxRetries:    7,
	}
	if diff := cmp.Diff(want, fc); diff != "" {
		t.Errorf("LoadFileConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	if _, err := LoadFileConfig("/nonexistent/config.toml"); err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.toml")
	if err := os.WriteFile(configPath, []byte("save_dir = [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path != "" && !strings.HasSuffix(path, filepath.Join(".savesync", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v, want suffix .savesync/config.toml", path)
	}
}

func TestFileExists(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "exists.txt")
	if err := os.WriteFile(existing, []byte("test"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(existing) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(existing + ".missing") {
		t.Error("FileExists() = true for missing file")
	}
}
