package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the assembler's tunable constants (SPEC_FULL §6.4): spec.md
// gives these as literal values, but the teacher's config package shows
// them promoted to a TOML-backed struct grouped by concern.
type Config struct {
	// Assembly settings
	Assembly struct {
		LargeReservation int    `toml:"large_reservation"`
		TextRecordMax    int    `toml:"text_record_max"`
		DefaultProgName  string `toml:"default_program_name"`
	} `toml:"assembly"`

	// Listing settings
	Listing struct {
		LineNumberWidth int  `toml:"line_number_width"`
		SourceWidth     int  `toml:"source_width"`
		EmitHeader      bool `toml:"emit_header"`
	} `toml:"listing"`
}

// DefaultConfig returns a configuration with spec.md's literal defaults:
// a 100-byte large-reservation flush threshold (§4.3 step 8), 30-byte
// text records (§4.4), and 5/30-column listing widths (§4.5).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembly.LargeReservation = 100
	cfg.Assembly.TextRecordMax = 30
	cfg.Assembly.DefaultProgName = "NONAME"

	cfg.Listing.LineNumberWidth = 5
	cfg.Listing.SourceWidth = 30
	cfg.Listing.EmitHeader = true

	return cfg
}

// Load loads configuration from path, falling back to DefaultConfig when
// path is empty or does not exist (SPEC_FULL §6.3: "-config ... empty
// means defaults").
func Load(path string) (*Config, error) {
	return LoadFrom(path)
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo writes cfg to path as TOML, for producing a starter config file
// a user can then edit (mirrors the teacher's config.SaveTo, scaled down:
// the assembler has no per-user config directory to resolve).
func (c *Config) SaveTo(path string) error {
	f, err := os.Create(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
