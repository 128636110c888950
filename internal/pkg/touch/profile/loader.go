package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evtouch/evtouch/internal/pkg/input"
	"github.com/evtouch/evtouch/internal/pkg/logger"
)

type yamlRange struct {
	Min int32 `yaml:"min"`
	Max int32 `yaml:"max"`
}

type yamlProfile struct {
	Identifier struct {
		Bus     uint16 `yaml:"bus"`
		Vendor  uint16 `yaml:"vendor"`
		Product uint16 `yaml:"product"`
		Version uint16 `yaml:"version"`
	} `yaml:"identifier"`

	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	InvertX bool    `yaml:"invert_x"`
	InvertY bool    `yaml:"invert_y"`

	RangeX *yamlRange `yaml:"range_x,omitempty"`
	RangeY *yamlRange `yaml:"range_y,omitempty"`
}

func ParseProfile(data []byte) (Profile, error) {
	var raw yamlProfile
	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing yaml failed: %w", err)
	}

	p := Profile{
		ID: input.DeviceID{
			Bus:     raw.Identifier.Bus,
			Vendor:  raw.Identifier.Vendor,
			Product: raw.Identifier.Product,
			Version: raw.Identifier.Version,
		},
		Width:   raw.Width,
		Height:  raw.Height,
		InvertX: raw.InvertX,
		InvertY: raw.InvertY,
	}
	if raw.RangeX != nil {
		p.RangeX = &Range{Min: raw.RangeX.Min, Max: raw.RangeX.Max}
	}
	if raw.RangeY != nil {
		p.RangeY = &Range{Min: raw.RangeY.Min, Max: raw.RangeY.Max}
	}
	return p, nil
}

func readProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading file failed: %w", err)
	}
	return ParseProfile(data)
}

// Load walks the profile directory, malformed files are logged and skipped
// so one broken profile cannot take the bridge down
func Load(root string) (ProfileMap, error) {
	profiles := make(ProfileMap)

	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		name := strings.ToLower(info.Name())
		if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
			return nil
		}

		p, err := readProfile(path)
		if err != nil {
			log.Info(fmt.Sprintf("profile %s load failed: %s", name, err), logger.Warning)
			return nil
		}
		profiles[p.ID] = p

		return nil
	})
	if err != nil {
		return profiles, fmt.Errorf("walk failed: %w", err)
	}
	return profiles, nil
}
