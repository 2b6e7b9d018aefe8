package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/config"
	"github.com/napolitain/aether-sim/internal/models"
)

var (
	configFile string
	maxRounds  int
	mutual     bool
	catalog    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "duel [attacker] [defender]",
		Short: "Aether combat calculator",
		Long: `Pits two catalog units against each other and prints every hit
until one of them falls. Damage uses the configured multiplier table.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if catalog {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		Run: runDuel,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to balance config (yaml, json or toml)")
	rootCmd.Flags().IntVarP(&maxRounds, "rounds", "r", 500, "Maximum number of rounds")
	rootCmd.Flags().BoolVarP(&mutual, "mutual", "m", false, "Defender strikes back every round")
	rootCmd.Flags().BoolVar(&catalog, "catalog", false, "Print the unit catalog and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDuel(cmd *cobra.Command, args []string) {
	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)

	titleColor.Println("\n╭───────────────────────────╮")
	titleColor.Println("│  Aether Combat Calculator │")
	titleColor.Println("╰───────────────────────────╯")
	fmt.Println()

	cfg, err := config.Load(configFile)
	if err != nil {
		color.Red("Error loading config: %v", err)
		os.Exit(1)
	}
	opts, err := cfg.Options()
	if err != nil {
		color.Red("Invalid config: %v", err)
		os.Exit(1)
	}
	resolver := combat.NewResolver(opts.Multipliers)

	fmt.Println("📋 Unit Catalog:")
	printCatalog()
	if catalog {
		return
	}

	atk, err := newCombatant("attacker", 1, args[0])
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	def, err := newCombatant("defender", 2, args[1])
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	fmt.Printf("\n⚔  %s vs %s\n", atk.Stats().Name, def.Stats().Name)
	rounds := fight(resolver, atk, def)

	switch {
	case !def.Alive() && atk.Alive():
		successColor.Printf("\n✓ %s wins after %d rounds (%d/%d hp left)\n",
			atk.Stats().Name, rounds, atk.Health(), atk.Stats().MaxHealth)
	case !atk.Alive() && def.Alive():
		successColor.Printf("\n✓ %s wins after %d rounds (%d/%d hp left)\n",
			def.Stats().Name, rounds, def.Health(), def.Stats().MaxHealth)
	default:
		color.Yellow("\nNo winner after %d rounds", rounds)
	}
}

func newCombatant(id string, owner models.PlayerID, name string) (*combat.Combatant, error) {
	ut := models.UnitType(strings.ToLower(name))
	if models.GetUnitDefinition(ut) == nil {
		return nil, fmt.Errorf("unknown unit %q", name)
	}
	return combat.NewFromCatalog(id, owner, ut)
}

// fight runs rounds until someone dies and prints the hit log
func fight(r *combat.Resolver, atk, def *combat.Combatant) int {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Round", "Hitter", "Target", "Multiplier", "Dealt", "Target HP"}),
	)
	hit := func(round int, from, to *combat.Combatant) {
		out := r.ResolveOutcome(from.Attack(), to)
		table.Append([]string{
			strconv.Itoa(round),
			from.Stats().Name,
			to.Stats().Name,
			"×" + out.Multiplier.String(),
			strconv.Itoa(out.Dealt),
			strconv.Itoa(to.Health()),
		})
	}

	round := 0
	for round < maxRounds && atk.Alive() && def.Alive() {
		round++
		hit(round, atk, def)
		if mutual && def.Alive() {
			hit(round, def, atk)
		}
	}
	table.Render()
	return round
}

func printCatalog() {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Unit", "Kind", "Cost", "HP", "Damage", "Type", "Armor", "Armor Type"}),
	)
	for _, def := range models.AllUnitDefinitions() {
		row := []string{
			string(def.Type),
			string(def.Kind),
			def.Cost.String(),
			fmt.Sprintf("%d", def.MaxHealth),
			fmt.Sprintf("%d", def.Damage),
			string(def.DamageType),
			fmt.Sprintf("%d", def.ArmorValue),
			string(def.ArmorType),
		}
		table.Append(row)
	}
	table.Render()
}
