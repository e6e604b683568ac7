package main

import (
	"fmt"
	"os"

	"github.com/handiism/antenati-downloader/internal/config"
	"github.com/handiism/antenati-downloader/internal/tui"
	"go.uber.org/zap"
)

func main() {
	configPath := tui.DefaultConfigPath()
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to the UI; progress reaches the user through it.
	if err := tui.Run(settings, configPath, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
