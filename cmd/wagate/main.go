package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dkovac/wagate/internal/cli"
	"github.com/dkovac/wagate/internal/config"
)

const quickStart = `wagate - multi-session WhatsApp HTTP gateway

Quick start:
  WAGATE_API_KEY=secret wagate serve      Run the gateway (port 3333)
  wagate sessions                         List sessions on a running gateway
  wagate config-show                      Print the effective configuration

For help:
  wagate --help                           All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("wagate"),
		kong.Description("wagate: session lifecycle gateway for WhatsApp messaging"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	// Load configuration from files/environment
	var cfg *config.Config
	var err error
	if c.Config != "" {
		cfg, err = config.LoadFromFile(c.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
