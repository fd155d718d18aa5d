package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/loader"
	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/producer"
)

const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Width(12)
	fullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	malusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

func newWatchCmd() *cobra.Command {
	var (
		bonuses []string
		start   []string
		tick    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a producer fill up in real time",
		Example: `  producer watch --bonus base_storage --bonus mine --bonus solar_array`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loader.LoadCatalog(catalogFile)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			initial, err := parseAmounts(start)
			if err != nil {
				return err
			}
			p := producer.New(1, producer.WallClock(), initial)
			for _, name := range bonuses {
				b, err := catalog.Bonus(name)
				if err != nil {
					return err
				}
				p.AddBonus(b)
			}
			p.SetInitialised()

			_, err = tea.NewProgram(newWatchModel(p, bonuses, tick)).Run()
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&bonuses, "bonus", "b", nil, "Catalog bonus to attach, repeatable")
	cmd.Flags().StringArrayVar(&start, "set", nil, "Starting amount as name=value, repeatable")
	cmd.Flags().DurationVar(&tick, "tick", 200*time.Millisecond, "Refresh interval")
	return cmd
}

type tickMsg time.Time

type watchModel struct {
	producer *producer.Producer
	bonuses  []string
	tick     time.Duration
	bought   int
	refused  int
}

func newWatchModel(p *producer.Producer, bonuses []string, tick time.Duration) watchModel {
	return watchModel{producer: p, bonuses: bonuses, tick: tick}
}

func (m watchModel) Init() tea.Cmd {
	return m.next()
}

func (m watchModel) next() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "b":
			// buy ten of everything
			m.producer.Resources()
			if m.producer.Buy(models.FullValue(10, 10, 10, 10, 10)) {
				m.bought++
			} else {
				m.refused++
			}
		}
	case tickMsg:
		return m, m.next()
	}
	return m, nil
}

func (m watchModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Producer " + strings.Join(m.bonuses, ", ")))
	sb.WriteString("\n\n")

	resources := m.producer.Resources()
	ratios := m.producer.Ratios()
	limits := m.producer.Limits()
	headers := resourceHeaders()

	for i := 0; i < resources.Len(); i++ {
		rate := fmt.Sprintf("%+.2f/s", ratios.Get(i))
		if ratios.Get(i) < 0 {
			rate = malusStyle.Render(rate)
		}
		fmt.Fprintf(&sb, "%s %s %8.1f / %-8.0f %s\n",
			labelStyle.Render(headers[i]), bar(resources.Get(i), limits.Get(i)), resources.Get(i), limits.Get(i), rate)
	}

	fmt.Fprintf(&sb, "\nbought %d, refused %d\n", m.bought, m.refused)
	sb.WriteString(helpStyle.Render("b: buy 10 of each • q: quit"))
	sb.WriteString("\n")
	return sb.String()
}

func bar(amount, limit float64) string {
	filled := 0
	if limit > 0 {
		filled = int(amount / limit * barWidth)
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return fullStyle.Render(strings.Repeat("█", filled)) + emptyStyle.Render(strings.Repeat("░", barWidth-filled))
}
