// Command frescotui is a terminal client for agent event streams.
//
// It connects to an AG-UI endpoint, shows streamed assistant text and
// tool activity in a conversation pane, and paints the default
// surface's render tree beside it. Each prompt entered at the bottom
// opens a fresh stream against the endpoint.
//
// Usage:
//
//	frescotui -endpoint http://localhost:8080/api/agent -prompt "ship it"
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spetersoncode/fresco/registry"
)

type appConfig struct {
	endpoint  string
	prompt    string
	catalog   string
	altScreen bool

	registry *registry.Registry
}

func parseFlags() appConfig {
	endpoint := flag.String("endpoint", "http://localhost:8080/api/agent", "agent SSE endpoint")
	prompt := flag.String("prompt", "", "prompt for the first run")
	catalog := flag.String("catalog", "", "component catalog manifest; empty allows every type")
	altScreen := flag.Bool("alt-screen", true, "render on the terminal's alternate screen")
	flag.Parse()

	return appConfig{
		endpoint:  *endpoint,
		prompt:    *prompt,
		catalog:   *catalog,
		altScreen: *altScreen,
	}
}

func main() {
	cfg := parseFlags()

	if cfg.catalog != "" {
		cat, err := registry.LoadCatalogFile(cfg.catalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "frescotui: %v\n", err)
			os.Exit(1)
		}
		reg := registry.New()
		reg.RegisterCatalog(cat)
		cfg.registry = reg
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	p := tea.NewProgram(newModel(cfg), opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "frescotui: %v\n", err)
		os.Exit(1)
	}
}
