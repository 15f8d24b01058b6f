package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-espbin/flasher"
)

func TestLoadConfigMissing(t *testing.T) {
	cfg, exists, err := loadConfig(filepath.Join(t.TempDir(), "espbin.toml"))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if exists {
		t.Error("exists = true for a missing file")
	}
	if cfg.Connection.Baud != defaultBaud {
		t.Errorf("default baud = %d, want %d", cfg.Connection.Baud, defaultBaud)
	}
	if cfg.Connection.Retries != 7 {
		t.Errorf("default retries = %d, want 7", cfg.Connection.Retries)
	}
	if !cfg.Flash.Verify || !cfg.Flash.Compress {
		t.Error("verify and compress should default to true")
	}
	if cfg.Flash.Size != defaultFlashSize {
		t.Errorf("default flash size = %#x, want %#x", cfg.Flash.Size, defaultFlashSize)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "espbin.toml")
	content := `
[connection]
port = "/dev/ttyUSB1"
baud = 921600
chip = "esp32s3"

[flash]
verify = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, exists, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if !exists {
		t.Error("exists = false for a present file")
	}
	if cfg.Connection.Port != "/dev/ttyUSB1" {
		t.Errorf("port = %q", cfg.Connection.Port)
	}
	if cfg.Connection.Baud != 921600 {
		t.Errorf("baud = %d", cfg.Connection.Baud)
	}
	if cfg.Connection.Chip != "esp32s3" {
		t.Errorf("chip = %q", cfg.Connection.Chip)
	}
	if cfg.Flash.Verify {
		t.Error("verify should be false")
	}
	if !cfg.Flash.Compress {
		t.Error("compress should keep its default")
	}
	// Untouched defaults survive a partial file.
	if cfg.Connection.Retries != 7 {
		t.Errorf("retries = %d, want 7", cfg.Connection.Retries)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "bad TOML",
			content: "[connection\nport=",
			errMsg:  "parse config",
		},
		{
			name:    "bad baud",
			content: "[connection]\nbaud = -9600\n",
			errMsg:  "connection.baud out of range",
		},
		{
			name:    "bad retries",
			content: "[connection]\nretries = -1\n",
			errMsg:  "connection.retries out of range",
		},
		{
			name:    "unknown chip",
			content: "[connection]\nchip = \"esp9000\"\n",
			errMsg:  "connection.chip unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "espbin.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			_, _, err := loadConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestChipByName(t *testing.T) {
	tests := []struct {
		name string
		want *flasher.Chip
	}{
		{name: "esp32", want: flasher.ESP32},
		{name: "ESP32", want: flasher.ESP32},
		{name: "esp32s3", want: flasher.ESP32S3},
		{name: "ESP32-S3", want: flasher.ESP32S3},
		{name: "Esp32-C3", want: flasher.ESP32C3},
		{name: "esp8266", want: flasher.ESP8266},
		{name: "esp9000", want: nil},
		{name: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chipByName(tt.name); got != tt.want {
				t.Errorf("chipByName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
