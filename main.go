package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/evertlin/mellow/internal/audio"
	"github.com/evertlin/mellow/internal/config"
	"github.com/evertlin/mellow/internal/library"
	"github.com/evertlin/mellow/internal/ui"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
	}

	libPath, err := config.LibraryPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := library.OpenStore(libPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}

	// Folders named on the command line replace the remembered set.
	roots, err := resolveRoots(os.Args[1:], settings.Folders, store.Folders())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	settings.Folders = roots

	var watcher *library.Watcher
	if len(roots) > 0 {
		watcher, err = library.NewWatcher(roots)
		if err != nil {
			// Watching is best effort; the library still works without it.
			fmt.Fprintf(os.Stderr, "Warning: cannot watch folders: %v\n", err)
			watcher = nil
		}
	}

	player := audio.NewPlayer()
	defer player.Stop()

	model := ui.New(player, store, watcher, settings, roots)
	program := tea.NewProgram(model, tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if watcher != nil {
		watcher.Close()
	}

	if m, ok := final.(ui.Model); ok {
		if err := m.Settings().Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot save settings: %v\n", err)
		}
	}
	if err := store.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot save library: %v\n", err)
	}
}

// resolveRoots validates the folders to index: command-line arguments when
// given, the remembered folders otherwise, falling back to folders already
// recorded in the library index.
func resolveRoots(args, remembered []string, stored []library.Folder) ([]string, error) {
	if len(args) == 0 {
		if len(remembered) > 0 {
			return remembered, nil
		}
		roots := make([]string, 0, len(stored))
		for _, f := range stored {
			roots = append(roots, f.Path)
		}
		return roots, nil
	}

	roots := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", arg)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}
