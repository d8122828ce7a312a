package sim

// Config groups the four construction parameters of a SimulationManager.
type Config struct {
	Items     int // number of source ids, produced as [1, Items]
	Capacity  int // bounded queue capacity
	Producers int // producer goroutines
	Consumers int // consumer goroutines
}

// NewConfig builds a Config from positional arguments.
func NewConfig(items, capacity, producers, consumers int) Config {
	return Config{Items: items, Capacity: capacity, Producers: producers, Consumers: consumers}
}

// Validate reports the first non-positive field as a *ConfigurationError.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value int
	}{
		{"number_of_items", c.Items},
		{"queue_capacity", c.Capacity},
		{"num_producers", c.Producers},
		{"num_consumers", c.Consumers},
	}
	for _, check := range checks {
		if err := mustBePositive(check.field, check.value); err != nil {
			return err
		}
	}
	return nil
}
