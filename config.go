package fixtured

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFrameRate is the frame rate used when a config does not set one.
const DefaultFrameRate = 60

// Config describes a fixture as read from a YAML file.
//
//	variant: blinder
//	pixels: 150
//	frame_rate: 60
//	led_points: led-points.csv
//	defaults: [191, 0, 0, 127, 0]
type Config struct {
	// Variant is the name of a built-in variant.
	Variant string `yaml:"variant"`
	// Pixels is the number of pixels. It may be left out when LEDPoints is
	// set.
	Pixels int `yaml:"pixels,omitempty"`
	// FrameRate is the number of frames rendered per second.
	FrameRate int `yaml:"frame_rate,omitempty"`
	// LEDPoints is an optional CSV file of LED coordinates for 2-D
	// addressing.
	LEDPoints string `yaml:"led_points,omitempty"`
	// Defaults overrides the variant's startup channel values.
	Defaults []float64 `yaml:"defaults,omitempty"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	return &c, nil
}

// SaveConfig writes c to a YAML file.
func SaveConfig(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// Resolve validates c and returns the variant it names, with its defaults
// replaced by c.Defaults when set. A zero frame rate is replaced by
// DefaultFrameRate.
func (c *Config) Resolve() (Variant, error) {
	v, err := VariantByName(c.Variant)
	if err != nil {
		return Variant{}, err
	}

	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.FrameRate < 0 {
		return Variant{}, fmt.Errorf("invalid frame rate %d", c.FrameRate)
	}
	if c.Pixels < 0 {
		return Variant{}, fmt.Errorf("invalid pixel count %d", c.Pixels)
	}
	if c.Pixels == 0 && c.LEDPoints == "" {
		return Variant{}, errors.New("either pixels or led_points must be set")
	}

	if c.Defaults != nil {
		if v.Slots != 0 && len(c.Defaults) > v.Slots {
			return Variant{}, fmt.Errorf("%d defaults given for %d channels", len(c.Defaults), v.Slots)
		}
		v.Defaults = c.Defaults
	}

	return v, nil
}
