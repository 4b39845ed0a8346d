package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/logger"
	"github.com/theirongolddev/marginfc/internal/tui"
	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Progress lines and warnings would tear the alternate screen.
	flagQuiet = true
	if err := os.MkdirAll(config.CacheDir(), 0o750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	logPath := filepath.Join(config.CacheDir(), "marginfc-tui.log")

	// Each reload replaces the session; the previous one is closed first.
	var (
		mu      sync.Mutex
		current *session
	)
	closeCurrent := func() {
		mu.Lock()
		defer mu.Unlock()
		if current != nil {
			current.Close()
			current = nil
		}
	}
	defer closeCurrent()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	load := func() (tui.Querier, error) {
		closeCurrent()
		s, err := openSessionWith(ctx, logger.NewFile(logPath, flagVerbose))
		if err != nil {
			return nil, err
		}
		mu.Lock()
		current = s
		mu.Unlock()
		return s.runner, nil
	}

	app := tui.NewApp(load, flagCategory)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
