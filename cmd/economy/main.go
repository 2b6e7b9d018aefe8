package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/config"
	"github.com/napolitain/aether-sim/internal/logs"
	"github.com/napolitain/aether-sim/internal/scenario"
	"github.com/napolitain/aether-sim/internal/sim"
)

var (
	configFile   string
	scenarioFile string
	maxTicks     int
	quiet        bool
	showEvents   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "economy",
		Short: "Aether economy and combat simulator",
		Long: `Runs a scripted match through the economy simulation: gathering,
upkeep, anti-stall elimination, source capture and combat.`,
		RunE:          runScenario,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to balance config (yaml, json or toml)")
	rootCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "scenarios/skirmish.json", "Path to scenario file")
	rootCmd.Flags().IntVarP(&maxTicks, "ticks", "t", 0, "Stop after this many ticks (0 = scenario length)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print standings")
	rootCmd.Flags().BoolVarP(&showEvents, "events", "e", false, "Print every scripted event outcome")

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// runScenario owns the logger so it is flushed on every return path
func runScenario(cmd *cobra.Command, args []string) error {
	logCfg, err := logs.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("read log settings: %w", err)
	}
	logger := logs.New("economy", logCfg)
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}

func run(logger *zap.Logger) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgYellow)

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	sc, err := scenario.Load(scenarioFile)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	runner, err := scenario.NewRunner(sc, opts, logger)
	if err != nil {
		return fmt.Errorf("set up scenario: %w", err)
	}
	logger.Info("scenario loaded",
		zap.String("file", scenarioFile),
		zap.Int("players", len(sc.Players)),
		zap.Int("sources", len(sc.Sources)),
		zap.Int("events", len(sc.Events)))

	if !quiet {
		titleColor.Println("\n╭───────────────────────────╮")
		titleColor.Println("│  Aether Economy Simulator │")
		titleColor.Println("╰───────────────────────────╯")
		fmt.Println()
		infoColor.Printf("📦 %s: %d players, %d sources, %d events\n\n",
			sc.Name, len(sc.Players), len(sc.Sources), len(sc.Events))
	}

	rep := runner.Run(maxTicks)

	if !quiet {
		if showEvents {
			printOutcomes(rep.Outcomes)
		}
		printCombat(rep.Combat)
		printSources(rep.Final)
		printLedgers(rep.Final)
	}
	printStandings(rep.Final)

	if len(rep.Winners) > 0 {
		for _, id := range rep.Winners {
			successColor.Printf("🏆 Player %d reached economic victory\n", id)
		}
	} else if !quiet {
		infoColor.Println("No player reached the economic victory thresholds")
	}
	fmt.Printf("Finished after %d ticks (%s simulated)\n", rep.Ticks, rep.Final.Elapsed)
	return nil
}

func printLedgers(snap sim.Snapshot) {
	color.New(color.FgCyan, color.Bold).Println("💰 Ledgers")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Player", "Crystal", "Biomass", "Aether", "Upkeep", "Units", "Buildings", "State"}),
	)
	for _, p := range snap.Players {
		l := p.Ledger
		row := []string{
			strconv.Itoa(int(p.ID)),
			fmt.Sprintf("%d/%d", l.Amounts.Crystal, l.Capacities.Crystal),
			fmt.Sprintf("%d/%d", l.Amounts.Biomass, l.Capacities.Biomass),
			fmt.Sprintf("%d/%d", l.Amounts.Aether, l.Capacities.Aether),
			l.Upkeep.String(),
			strconv.Itoa(p.Units),
			strconv.Itoa(p.Buildings),
			p.Stall.String(),
		}
		table.Append(row)
	}
	table.Render()
	fmt.Println()
}

func printStandings(snap sim.Snapshot) {
	color.New(color.FgCyan, color.Bold).Println("📊 Standings")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Player", "Team", "Score", "Victory"}),
	)
	for i, p := range snap.Standings() {
		victory := ""
		if p.EconomicVictory {
			victory = "✓"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(int(p.ID)),
			strconv.Itoa(p.Team),
			p.Score.StringFixed(1),
			victory,
		})
	}
	table.Render()
	fmt.Println()
}

func printSources(snap sim.Snapshot) {
	color.New(color.FgCyan, color.Bold).Println("⛏  Sources")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Source", "Kind", "Remaining", "Workers", "Owner"}),
	)
	for _, s := range snap.Sources {
		remaining := strconv.Itoa(s.Remaining)
		if s.Infinite {
			remaining = "∞"
		} else if s.Depleted {
			remaining = "depleted"
		}
		owner := "-"
		if s.Owner != 0 {
			owner = strconv.Itoa(int(s.Owner))
		}
		table.Append([]string{
			string(s.ID),
			string(s.Kind),
			remaining,
			fmt.Sprintf("%d/%d", len(s.Workers), s.MaxWorkers),
			owner,
		})
	}
	table.Render()
	fmt.Println()
}

func printCombat(records []scenario.CombatRecord) {
	if len(records) == 0 {
		return
	}
	color.New(color.FgCyan, color.Bold).Println("⚔  Combat")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Tick", "Attacker", "Defender", "Dealt", "Health", ""}),
	)
	for _, r := range records {
		killed := ""
		if r.Killed {
			killed = "killed"
		}
		table.Append([]string{
			strconv.Itoa(r.Tick),
			r.Attacker,
			r.Defender,
			strconv.Itoa(r.Dealt),
			strconv.Itoa(r.Health),
			killed,
		})
	}
	table.Render()
	fmt.Println()
}

func printOutcomes(outcomes []scenario.Outcome) {
	color.New(color.FgCyan, color.Bold).Println("📜 Events")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Tick", "Event", "Player", "Detail", "Result"}),
	)
	for _, o := range outcomes {
		result := "ok"
		if o.Err != nil {
			result = o.Err.Error()
		}
		table.Append([]string{
			strconv.Itoa(o.Tick),
			string(o.Type),
			strconv.Itoa(int(o.Player)),
			o.Detail,
			result,
		})
	}
	table.Render()
	fmt.Println()
}
