package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// SessionsCmd lists sessions on a running gateway over its admin API.
// Output is a table on a terminal, NDJSON otherwise so scripts and
// agents can parse it.
type SessionsCmd struct {
	Host   string `default:"http://127.0.0.1:3333" help:"Gateway base URL"`
	APIKey string `help:"API key (defaults to configured api_key)"`
	JSON   bool   `help:"Force NDJSON output"`
}

type listedSession struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type listResponse struct {
	Total    int             `json:"total"`
	Sessions []listedSession `json:"sessions"`
}

// Run executes the sessions command.
func (c *SessionsCmd) Run(globals *Globals) error {
	key := c.APIKey
	if key == "" {
		key = globals.Config.APIKey
	}

	req, err := http.NewRequest(http.MethodGet, c.Host+"/listSessions", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", key)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if c.JSON || !stdoutIsTerminal(globals) {
		enc := json.NewEncoder(globals.Stdout)
		for _, s := range list.Sessions {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Session", "Status")
	rows := lo.Map(list.Sessions, func(s listedSession, _ int) []string {
		return []string{s.Name, s.Status}
	})
	for _, row := range rows {
		table.Append(row)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(globals.Stdout, "Total: %d\n", list.Total)
	return nil
}

func stdoutIsTerminal(globals *Globals) bool {
	f, ok := globals.Stdout.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
