package cli

import (
	"io"
	"os"

	"github.com/dkovac/wagate/internal/config"
)

// CLI is the top-level command tree.
type CLI struct {
	Verbose bool   `help:"Enable verbose debug logging"`
	Config  string `help:"Path to config file (overrides search paths)"`

	Serve      ServeCmd      `cmd:"" help:"Run the gateway HTTP server"`
	Sessions   SessionsCmd   `cmd:"" help:"List sessions on a running gateway"`
	ConfigShow ConfigShowCmd `cmd:"" name:"config-show" help:"Print the effective configuration"`
}

// Globals carries shared state into every command.
type Globals struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobalsWithConfig builds Globals from parsed flags and loaded config.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	verbose := c.Verbose || cfg.Verbose
	return &Globals{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
}
