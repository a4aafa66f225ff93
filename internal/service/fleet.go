package service

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/uvm-fablab/scheduler/internal/models"
)

// FleetConfig holds user-facing settings describing the printer fleet.
// These are non-sensitive and can be edited without redeployment.
// Source: TOML configuration file
type FleetConfig struct {
	Printers []models.Printer `toml:"printers"`
}

// LoadFleetConfig loads the printer fleet from a TOML file.
func LoadFleetConfig(path string) (*FleetConfig, error) {
	var cfg FleetConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load fleet config: %w", err)
	}
	return &cfg, nil
}

// Has reports whether a printer id belongs to the fleet. An empty fleet
// accepts any positive id, so running without a fleet file stays possible.
func (c *FleetConfig) Has(printer int) bool {
	if c == nil || len(c.Printers) == 0 {
		return printer > 0
	}
	for _, p := range c.Printers {
		if p.ID == printer {
			return true
		}
	}
	return false
}
