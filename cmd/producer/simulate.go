package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/loader"
	"github.com/napolitain/resource-engine/internal/simulation"
)

func newSimulateCmd() *cobra.Command {
	var samplesOnly bool

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario and print every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleColor := color.New(color.FgCyan, color.Bold)
			infoColor := color.New(color.FgYellow)
			successColor := color.New(color.FgGreen, color.Bold)

			catalog, err := loader.LoadCatalog(catalogFile)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			scenario, err := simulation.LoadScenario(args[0])
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			titleColor.Printf("\nScenario %s\n", args[0])
			infoColor.Printf("📦 %d bonuses in catalog, %d steps\n\n", catalog.Len(), len(scenario.Steps))

			report, err := simulation.NewRunner(catalog, zerolog.Nop()).Run(scenario)
			if err != nil {
				return err
			}

			printReport(report, samplesOnly)

			failed := 0
			for _, row := range report.Rows {
				if !row.OK {
					failed++
				}
			}
			if failed > 0 {
				color.Red("✗ %d purchase(s) could not be afforded", failed)
			}
			successColor.Printf("✓ Final state at %s: %s\n", formatOffset(report.Final.Time-scenario.StartTime), report.Final.Resources)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&samplesOnly, "samples", "s", false, "Only print sample steps")
	return cmd
}

func printReport(report *simulation.Report, samplesOnly bool) {
	header := append([]string{"#", "Time", "Action", "Detail"}, resourceHeaders()...)
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader(header))

	for i, row := range report.Rows {
		if samplesOnly && row.Action != simulation.EventSample {
			continue
		}
		detail := row.Bonus
		if !row.Moved.IsZero() {
			detail = row.Moved.String()
		}
		if !row.OK {
			detail += " (refused)"
		}
		cells := []string{fmt.Sprintf("%d", i+1), formatOffset(row.TimeMs), row.Action.String(), detail}
		for j := 0; j < row.Resources.Len(); j++ {
			cells = append(cells, fmt.Sprintf("%.1f/%.0f %+.2f/s", row.Resources.Get(j), row.Limit.Get(j), row.Ratio.Get(j)))
		}
		_ = table.Append(cells)
	}
	_ = table.Render()
	fmt.Println()
}

func formatOffset(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
