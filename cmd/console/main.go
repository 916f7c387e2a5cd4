package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 120 * time.Second}

	if !testConnection(client, baseURL) {
		fmt.Fprintf(os.Stderr, "Cannot reach the turncore API at %s\n", baseURL)
		fmt.Fprintf(os.Stderr, "Set API_BASE_URL or start the API first.\n")
		os.Exit(1)
	}

	p := tea.NewProgram(
		NewConsoleUI(client, baseURL),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", err)
		os.Exit(1)
	}
}
