package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/napolitain/aether-sim/internal/scenario"
	"github.com/napolitain/aether-sim/internal/sim"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	deadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const (
	maxLogLines  = 8
	defaultSpeed = 200 * time.Millisecond
)

type tickMsg time.Time

// model steps a scenario runner and renders the latest snapshot
type model struct {
	name   string
	runner *scenario.Runner
	snap   sim.Snapshot
	log    []string
	paused bool
	speed  time.Duration
	done   bool
}

func newModel(name string, r *scenario.Runner, speed time.Duration) model {
	if speed <= 0 {
		speed = defaultSpeed
	}
	return model{
		name:   name,
		runner: r,
		snap:   r.Orchestrator().Snapshot(),
		speed:  speed,
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.speed, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
			if !m.paused {
				return m, m.tick()
			}
		case "n", "right":
			if m.paused {
				m = m.step()
			}
		case "+":
			m.speed = max(m.speed/2, 10*time.Millisecond)
		case "-":
			m.speed = min(m.speed*2, 5*time.Second)
		}
		return m, nil
	case tickMsg:
		if m.paused || m.done {
			return m, nil
		}
		m = m.step()
		if m.done {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the runner by one tick and records what happened
func (m model) step() model {
	if m.done || m.runner.Done() {
		m.done = true
		return m
	}
	st := m.runner.Step()
	m.snap = st.Snapshot

	for _, o := range st.Outcomes {
		line := fmt.Sprintf("t%-4d %-11s p%d %s", o.Tick, o.Type, o.Player, o.Detail)
		if o.Err != nil {
			line = errStyle.Render(line + "  " + o.Err.Error())
		}
		m.log = append(m.log, line)
	}
	for _, c := range st.Combat {
		line := fmt.Sprintf("t%-4d %s hits %s for %d (%d hp)", c.Tick, c.Attacker, c.Defender, c.Dealt, c.Health)
		if c.Killed {
			line = warnStyle.Render(line + " killed")
		}
		m.log = append(m.log, line)
	}
	for _, p := range st.Tick.Players {
		if p.Transition {
			m.log = append(m.log, warnStyle.Render(fmt.Sprintf("t%-4d player %d is now %s", st.Tick.Tick, p.Player, p.Stall)))
		}
	}
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.done = m.runner.Done()
	return m
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("⚡ %s  tick %d  (%s)", m.name, m.snap.Tick, m.snap.Elapsed)))
	b.WriteString("\n\n")

	var players strings.Builder
	players.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-13s %-13s %-11s %-6s %-5s %-5s %-14s %s",
		"P", "Crystal", "Biomass", "Aether", "Upkp", "Unit", "Bldg", "State", "Score")))
	for _, p := range m.snap.Standings() {
		l := p.Ledger
		line := fmt.Sprintf("%-4d %-13s %-13s %-11s %-6s %-5d %-5d %-14s %s",
			p.ID,
			fmt.Sprintf("%d/%d", l.Amounts.Crystal, l.Capacities.Crystal),
			fmt.Sprintf("%d/%d", l.Amounts.Biomass, l.Capacities.Biomass),
			fmt.Sprintf("%d/%d", l.Amounts.Aether, l.Capacities.Aether),
			l.Upkeep.StringFixed(1),
			p.Units,
			p.Buildings,
			stallLabel(p),
			p.Score.StringFixed(1))
		switch {
		case p.Stall == sim.Eliminated:
			line = deadStyle.Render(line)
		case p.EconomicVictory:
			line = winStyle.Render(line)
		case p.Stall == sim.StallWarning:
			line = warnStyle.Render(line)
		}
		players.WriteString("\n" + line)
	}
	b.WriteString(panelStyle.Render(players.String()))
	b.WriteString("\n")

	var sources strings.Builder
	sources.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %-8s %-9s %-8s %s", "Source", "Kind", "Left", "Workers", "Owner")))
	for _, s := range m.snap.Sources {
		left := fmt.Sprintf("%d", s.Remaining)
		if s.Infinite {
			left = "∞"
		}
		owner := "-"
		if s.Owner != 0 {
			owner = fmt.Sprintf("%d", s.Owner)
		}
		line := fmt.Sprintf("%-14s %-8s %-9s %-8s %s", s.ID, s.Kind, left, fmt.Sprintf("%d/%d", len(s.Workers), s.MaxWorkers), owner)
		if s.Depleted {
			line = deadStyle.Render(line)
		}
		sources.WriteString("\n" + line)
	}
	b.WriteString(panelStyle.Render(sources.String()))
	b.WriteString("\n")

	if len(m.log) > 0 {
		b.WriteString(panelStyle.Render(strings.Join(m.log, "\n")))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("speed %s", m.speed)
	switch {
	case m.done:
		status = "finished"
	case m.paused:
		status = "paused"
	}
	b.WriteString(helpStyle.Render(status + " • space pause • n step • +/- speed • q quit"))
	b.WriteString("\n")
	return b.String()
}

func stallLabel(p sim.PlayerSnapshot) string {
	if p.Stall == sim.StallWarning {
		return fmt.Sprintf("%s %ds", p.Stall, int(p.StallTimer.Seconds()))
	}
	return p.Stall.String()
}
