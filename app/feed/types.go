package feed

import (
	"time"
)

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`   // local path, file:// or http(s):// location
	Title    string         `yaml:"title"` // display name, defaults to Name
	File     string         `yaml:"file"`  // output file name, defaults to Name + ".html"
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled          bool   `yaml:"enabled"`
	RefreshInterval  int    `yaml:"refresh_interval"` // seconds
	Timeout          int    `yaml:"timeout"`          // seconds
	LinklessHeadline string `yaml:"linkless_headline"`
}

func (s *ConfigSettings) GetRefreshInterval() time.Duration {
	if s.RefreshInterval <= 0 {
		return 3600 * time.Second
	}
	return time.Duration(s.RefreshInterval) * time.Second
}

func (s *ConfigSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}
