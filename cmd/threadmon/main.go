package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func main() {
	socketPath := pflag.StringP("socket", "s", "/var/run/threadnode.sock", "threadnode diagnostic socket to poll.")
	refresh := pflag.DurationP("refresh", "r", 2*time.Second, "Refresh interval.")
	pflag.Parse()

	p := tea.NewProgram(newModel(*socketPath, *refresh), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "threadmon: %v\n", err)
		os.Exit(1)
	}
}
