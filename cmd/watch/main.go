package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/config"
	"github.com/napolitain/aether-sim/internal/logs"
	"github.com/napolitain/aether-sim/internal/scenario"
)

var (
	configFile   string
	scenarioFile string
	speed        time.Duration
	startPaused  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of an Aether scenario",
		Long: `Steps a scenario in the terminal, showing ledgers, stall timers,
sources and combat as they change. Logs go to AETHER_LOG_FILE only.`,
		RunE:          runWatch,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to balance config (yaml, json or toml)")
	rootCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "scenarios/skirmish.json", "Path to scenario file")
	rootCmd.Flags().DurationVar(&speed, "speed", defaultSpeed, "Wall time per simulated tick")
	rootCmd.Flags().BoolVarP(&startPaused, "paused", "p", false, "Start paused")

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	logCfg, err := logs.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("read log settings: %w", err)
	}
	// the console core would draw over the TUI
	logger := logs.NewFileOnly("watch", logCfg)
	defer func() { _ = logger.Sync() }()

	runner, name, err := setup(logger)
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		return err
	}
	m := newModel(name, runner, speed)
	m.paused = startPaused
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Error("ui failed", zap.Error(err))
		return err
	}
	return nil
}

func setup(logger *zap.Logger) (*scenario.Runner, string, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	sc, err := scenario.Load(scenarioFile)
	if err != nil {
		return nil, "", fmt.Errorf("load scenario: %w", err)
	}
	runner, err := scenario.NewRunner(sc, opts, logger)
	if err != nil {
		return nil, "", fmt.Errorf("set up scenario: %w", err)
	}
	return runner, sc.Name, nil
}
