package cmd

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/boundedsim/sim"
)

// RunConfig is the full run description: the four engine parameters plus the
// CLI-only settings. It can be loaded from a YAML file and overridden by flags.
type RunConfig struct {
	Items           int    `yaml:"items"`
	Capacity        int    `yaml:"capacity"`
	Producers       int    `yaml:"producers"`
	Consumers       int    `yaml:"consumers"`
	Repeat          int    `yaml:"repeat"`
	SaveLogs        bool   `yaml:"save_logs"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// defaultRunConfig leaves items and capacity unset: both must be given.
func defaultRunConfig() RunConfig {
	return RunConfig{Producers: 1, Consumers: 1, Repeat: 1}
}

// rangeLimit bounds one CLI parameter.
type rangeLimit struct {
	name     string
	min, max int
}

var (
	itemsLimit     = rangeLimit{"Number of items", 1, 100000}
	capacityLimit  = rangeLimit{"Queue capacity", 1, 10000}
	producersLimit = rangeLimit{"Number of producers", 1, 100}
	consumersLimit = rangeLimit{"Number of consumers", 1, 100}
	repeatLimit    = rangeLimit{"Number of runs", 1, 1000}
)

func (l rangeLimit) check(value int) error {
	if value < l.min || value > l.max {
		return errors.Errorf("%s must be in range %d-%d, got %d", l.name, l.min, l.max, value)
	}
	return nil
}

// Validate applies the CLI range limits, which are tighter than the engine's
// positivity checks.
func (c RunConfig) Validate() error {
	checks := []struct {
		limit rangeLimit
		value int
	}{
		{itemsLimit, c.Items},
		{capacityLimit, c.Capacity},
		{producersLimit, c.Producers},
		{consumersLimit, c.Consumers},
		{repeatLimit, c.Repeat},
	}
	for _, ch := range checks {
		if err := ch.limit.check(ch.value); err != nil {
			return err
		}
	}
	return nil
}

// SimConfig extracts the engine parameters.
func (c RunConfig) SimConfig() sim.Config {
	return sim.NewConfig(c.Items, c.Capacity, c.Producers, c.Consumers)
}

// loadRunConfig parses a YAML run file over the defaults.
// Uses strict field checking: a misspelled key is an error, not a silent default.
func loadRunConfig(path string) (RunConfig, error) {
	cfg := defaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading run config %s", path)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing run config %s", path)
	}
	return cfg, nil
}
