package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doferlabs/printcost/internal/mesh"
	"github.com/doferlabs/printcost/internal/pricing"
)

// profileNames are tried in order when no profile path is given.
var profileNames = []string{"printcost.yaml", "profile.yaml"}

// Profile holds the pricing defaults a shop works with.
type Profile struct {
	Parameters pricing.PrintParameters `yaml:"parameters"`
	Mesh       mesh.Options            `yaml:"mesh"`
	AutoOrient bool                    `yaml:"auto_orient"`
	Currency   string                  `yaml:"currency"`
}

func DefaultProfile() Profile {
	return Profile{
		Parameters: pricing.Defaults(),
		Mesh:       mesh.DefaultOptions(),
		Currency:   "MXN",
	}
}

// LoadProfile reads a YAML profile over the defaults. With an empty path it
// looks for the default file names in the working directory and falls back to
// DefaultProfile when none exists.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read profile %s: %w", path, err)
		}
	} else {
		for _, name := range profileNames {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				return p, fmt.Errorf("read profile %s: %w", name, err)
			}
		}
		if path == "" {
			return p, nil
		}
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultProfile(), fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := pricing.Validate(p.Parameters); err != nil {
		return DefaultProfile(), fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}
