package cli

import (
	"encoding/json"
	"fmt"
)

// ConfigShowCmd prints the effective configuration. The API key is
// masked; it only matters whether one is set.
type ConfigShowCmd struct{}

// Run executes the config-show command.
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := *globals.Config
	if cfg.APIKey != "" {
		cfg.APIKey = "********"
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(globals.Stdout, string(b))
	return nil
}
