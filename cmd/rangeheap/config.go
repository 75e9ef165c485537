package main

import (
	"os"

	"github.com/chazu/rangeheap/pkg/clash"
	"github.com/chazu/rangeheap/pkg/logx"
	"github.com/chazu/rangeheap/pkg/rangeheap"
	"github.com/koding/multiconfig"
	"github.com/pkg/errors"
)

// Config is loaded from struct tag defaults, then an optional TOML file,
// then RANGEHEAP_* environment variables (RANGEHEAP_LEAF_SIZE,
// RANGEHEAP_LOG_LEVEL, ...).
type Config struct {
	LeafSize    int     `default:"4"`
	SortMethod  int     `default:"1"`
	Clearance   float64 `default:"0"`
	MeshCells   int     `default:"64"`
	MaxDistance float64 `default:"0"`
	EvalTimeout int     `default:"5000"` // milliseconds
	Metrics     bool    `default:"false"`
	Log         logx.Config
}

// LoadConfig reads the configuration. An empty fpath skips the file.
func LoadConfig(fpath string) (*Config, error) {
	loaders := []multiconfig.Loader{&multiconfig.TagLoader{}}
	if fpath != "" {
		if _, err := os.Stat(fpath); err != nil {
			return nil, errors.Wrap(err, "config")
		}
		loaders = append(loaders, &multiconfig.TOMLLoader{Path: fpath})
	}
	loaders = append(loaders, &multiconfig.EnvironmentLoader{Prefix: "RANGEHEAP", CamelCase: true})

	m := multiconfig.DefaultLoader{
		Loader:    multiconfig.MultiLoader(loaders...),
		Validator: multiconfig.MultiValidator(&multiconfig.RequiredValidator{}),
	}

	var c Config
	if err := m.Load(&c); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.LeafSize < 1:
		return errors.Errorf("config: LeafSize %d must be at least 1", c.LeafSize)
	case c.SortMethod != int(rangeheap.SortNone) && c.SortMethod != int(rangeheap.SortByDiagonal):
		return errors.Errorf("config: SortMethod %d must be 0 or 1", c.SortMethod)
	case c.Clearance < 0:
		return errors.Errorf("config: Clearance %g must not be negative", c.Clearance)
	case c.MeshCells < 4:
		return errors.Errorf("config: MeshCells %d must be at least 4", c.MeshCells)
	case c.MaxDistance < 0:
		return errors.Errorf("config: MaxDistance %g must not be negative", c.MaxDistance)
	case c.EvalTimeout < 1:
		return errors.Errorf("config: EvalTimeout %d must be positive", c.EvalTimeout)
	}
	return nil
}

// DetectorOptions converts the config for clash.NewDetector.
func (c *Config) DetectorOptions() clash.Options {
	return clash.Options{
		LeafSize:   c.LeafSize,
		SortMethod: rangeheap.SortMethod(c.SortMethod),
		Clearance:  c.Clearance,
	}
}
