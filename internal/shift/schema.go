package shift

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoleColumn binds a sheet column to a named role tag. A non-empty cell in
// that column means the row's license carries the role.
type RoleColumn struct {
	Col  int    `yaml:"col"`
	Role string `yaml:"role"`
}

// Layout describes how the shift sheet CSV is organized: how many
// header/banner rows to skip and which column holds what.
type Layout struct {
	SkipRows   int          `yaml:"skipRows"`
	LicenseCol int          `yaml:"licenseCol"`
	NameCol    int          `yaml:"nameCol"`
	RoleCols   []RoleColumn `yaml:"roleCols"`
}

// DefaultLayout matches the standard shift sheet export.
func DefaultLayout() Layout {
	return Layout{
		SkipRows:   1,
		LicenseCol: 0,
		NameCol:    1,
		RoleCols: []RoleColumn{
			{Col: 2, Role: "Shift-1"},
			{Col: 3, Role: "Shift-2"},
			{Col: 4, Role: "Full Shift"},
			{Col: 5, Role: "Staff"},
		},
	}
}

// LoadLayout reads a sources.yaml layout file. An empty path returns the
// default layout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read sources file: %w", err)
	}

	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to parse sources yaml: %w", err)
	}

	if err := layout.validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func (l Layout) validate() error {
	if l.SkipRows < 0 {
		return fmt.Errorf("invalid layout: skipRows must be >= 0, got %d", l.SkipRows)
	}
	if l.LicenseCol < 0 || l.NameCol < 0 {
		return fmt.Errorf("invalid layout: column indices must be >= 0")
	}
	for _, rc := range l.RoleCols {
		if rc.Col < 0 {
			return fmt.Errorf("invalid layout: role column %q has index %d", rc.Role, rc.Col)
		}
		if rc.Role == "" {
			return fmt.Errorf("invalid layout: role column %d has no role name", rc.Col)
		}
	}
	return nil
}
