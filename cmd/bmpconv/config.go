// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

package main

import "fmt"
import "os"
import "time"

import "gopkg.in/yaml.v2"

import "github.com/jsummers/gobitmap"

type limitsConfig struct {
	MaxWidth       uint64 `yaml:"max_width"`
	MaxHeight      uint64 `yaml:"max_height"`
	MaxPixels      uint64 `yaml:"max_pixels"`
	MaxMemoryBytes uint64 `yaml:"max_memory_bytes"`
}

// config is the contents of a -config file. Command line flags that were
// set explicitly take precedence.
type config struct {
	Permissiveness string       `yaml:"permissiveness"`
	NativeOrder    bool         `yaml:"native_order"`
	Limits         limitsConfig `yaml:"limits"`
	Timeout        string       `yaml:"timeout"`
}

func defaultConfig() *config {
	return &config{
		Permissiveness: "standard",
		Limits: limitsConfig{
			MaxPixels:      1 << 28,
			MaxMemoryBytes: 1 << 31,
		},
	}
}

func parseConfig(data []byte) (*config, error) {
	cfg := defaultConfig()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.timeout(); err != nil {
		return nil, err
	}
	if _, err := gobitmap.ParsePermissiveness(cfg.Permissiveness); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfig(fname string) (*config, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return cfg, nil
}

// timeout returns 0 when no timeout is configured.
func (c *config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", c.Timeout)
	}
	return d, nil
}

func (c *config) decoderOptions(stop gobitmap.Stop) (*gobitmap.DecoderOptions, error) {
	perm, err := gobitmap.ParsePermissiveness(c.Permissiveness)
	if err != nil {
		return nil, err
	}
	opts := new(gobitmap.DecoderOptions)
	opts.SetPermissiveness(perm)
	opts.SetNativeOrder(c.NativeOrder)
	opts.SetLimits(gobitmap.Limits{
		MaxWidth:       c.Limits.MaxWidth,
		MaxHeight:      c.Limits.MaxHeight,
		MaxPixels:      c.Limits.MaxPixels,
		MaxMemoryBytes: c.Limits.MaxMemoryBytes,
	})
	opts.SetStop(stop)
	return opts, nil
}
