package overlay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CornerLayout lists field keys per corner, top line first.
type CornerLayout struct {
	TopLeft     []string `yaml:"topLeft"`
	TopRight    []string `yaml:"topRight"`
	BottomLeft  []string `yaml:"bottomLeft"`
	BottomRight []string `yaml:"bottomRight"`
}

func (l CornerLayout) corner(c Corner) []string {
	switch c {
	case TopLeft:
		return l.TopLeft
	case TopRight:
		return l.TopRight
	case BottomLeft:
		return l.BottomLeft
	default:
		return l.BottomRight
	}
}

// Config is the overlay layout configuration loaded from YAML.
type Config struct {
	// Margin is the gap between viewport edge and text, screen px.
	Margin float64 `yaml:"margin"`

	// SpacingFactor compresses stacked lines below the font's natural
	// height; 0.9 is the house look.
	SpacingFactor float64 `yaml:"spacingFactor"`

	// Layout is the corner layout used when no modality override
	// applies.
	Layout CornerLayout `yaml:"layout"`

	// Modalities overrides the layout per modality code.
	Modalities map[string]CornerLayout `yaml:"modalities"`
}

// DefaultConfig returns the stock overlay layout.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Margin = 10
	cfg.SpacingFactor = 0.9

	cfg.Layout = CornerLayout{
		TopLeft:     []string{"patient", "patient_id", "study", "series"},
		TopRight:    []string{"modality", "slice", "projection"},
		BottomLeft:  []string{"window", "derivation"},
		BottomRight: []string{"zoom"},
	}

	return cfg
}

// LoadConfig loads the overlay layout from a YAML file. A missing
// file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading overlay config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing overlay config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes the layout back out as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling overlay config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing overlay config: %w", err)
	}
	return nil
}

// Validate rejects layouts naming unknown fields or unusable spacing.
func (c *Config) Validate() error {
	if c.Margin < 0 {
		return fmt.Errorf("overlay margin must not be negative")
	}
	if c.SpacingFactor <= 0 {
		return fmt.Errorf("overlay spacing factor must be positive")
	}
	check := func(where string, keys []string) error {
		for _, k := range keys {
			if !Field(k).Known() {
				return fmt.Errorf("unknown overlay field %q in %s", k, where)
			}
		}
		return nil
	}
	for _, corner := range Corners {
		if err := check("layout "+corner.String(), c.Layout.corner(corner)); err != nil {
			return err
		}
	}
	for modality, layout := range c.Modalities {
		for _, corner := range Corners {
			if err := check(modality+" "+corner.String(), layout.corner(corner)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FieldsFor resolves the field list for one corner under a modality,
// falling back to the default layout when no override exists.
func (c *Config) FieldsFor(modality string, corner Corner) []Field {
	layout := c.Layout
	if override, ok := c.Modalities[modality]; ok {
		layout = override
	}
	keys := layout.corner(corner)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		if f := Field(k); f.Known() {
			fields = append(fields, f)
		}
	}
	return fields
}

// ContentKey fingerprints a corner's field set for the positioner's
// width cache.
func (c *Config) ContentKey(modality string, corner Corner) string {
	key := ""
	for _, f := range c.FieldsFor(modality, corner) {
		key += string(f) + "|"
	}
	return key
}
