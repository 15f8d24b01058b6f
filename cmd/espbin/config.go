package main

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/moffa90/go-espbin/flasher"
)

// defaultConfigPath is where device commands look for settings when
// --config is not given.
const defaultConfigPath = "espbin.toml"

// Config mirrors espbin.toml. Flags override whatever the file sets.
type Config struct {
	Connection ConnectionConfig `toml:"connection"`
	Flash      FlashConfig      `toml:"flash"`
}

// ConnectionConfig configures how device commands reach the chip.
type ConnectionConfig struct {
	// Port is a serial device path or tcp:host:port
	Port string `toml:"port"`

	// Baud is the transfer rate; synchronization always happens at
	// 115200 and the link switches afterwards
	Baud int `toml:"baud"`

	// Chip, when set, must match the detected chip family
	Chip string `toml:"chip"`

	// Retries is the number of synchronization attempts
	Retries int `toml:"retries"`

	// NoReset skips the DTR/RTS bootloader reset on connect
	NoReset bool `toml:"no_reset"`
}

// FlashConfig configures the write commands.
type FlashConfig struct {
	// Size is the flash capacity in bytes, reported to the loader
	// when the SPI flash is attached
	Size uint32 `toml:"size"`

	// Verify checks the flash digest after every write
	Verify bool `toml:"verify"`

	// Compress uses the deflated transfer commands when the chip
	// supports them
	Compress bool `toml:"compress"`
}

func defaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			Baud:    defaultBaud,
			Retries: 7,
		},
		Flash: FlashConfig{
			Size:     defaultFlashSize,
			Verify:   true,
			Compress: true,
		},
	}
}

// loadConfig reads the config file at path. A missing file is not an
// error: the defaults come back and the second result is false.
func loadConfig(path string) (Config, bool, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, true, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, true, nil
}

func (cfg *Config) Validate() error {
	if cfg.Connection.Baud <= 0 {
		return fmt.Errorf("connection.baud out of range: %d", cfg.Connection.Baud)
	}
	if cfg.Connection.Retries <= 0 {
		return fmt.Errorf("connection.retries out of range: %d", cfg.Connection.Retries)
	}
	if cfg.Connection.Chip != "" && chipByName(cfg.Connection.Chip) == nil {
		return fmt.Errorf("connection.chip unknown: %q", cfg.Connection.Chip)
	}
	if cfg.Flash.Size == 0 {
		return fmt.Errorf("flash.size must be set")
	}
	return nil
}

// chipByName resolves a user-supplied chip name, tolerating case and
// the optional dash: "esp32s3" and "ESP32-S3" both match.
func chipByName(name string) *flasher.Chip {
	want := normalizeChipName(name)
	for _, c := range flasher.Chips {
		if normalizeChipName(c.Name) == want {
			return c
		}
	}
	return nil
}

func normalizeChipName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "-", ""))
}
