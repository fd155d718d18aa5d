package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/persistence/journal"
)

type journalRow struct {
	file     string
	entry    journal.Entry
	transfer models.TransferDto
}

func newJournalCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "journal <dir>",
		Short: "List the transfers recorded in a journal directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readJournal(args[0], prefix)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				color.Yellow("No %s journal in %s", prefix, args[0])
				return nil
			}
			printJournal(rows)
			color.New(color.FgGreen, color.Bold).Printf("✓ %d transfer(s)\n", len(rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "transfers", "Journal file prefix")
	return cmd
}

// readJournal decodes every entry of every journal file, oldest file first
func readJournal(dir, prefix string) ([]journalRow, error) {
	files, err := journal.Files(dir, prefix)
	if err != nil {
		return nil, err
	}
	var rows []journalRow
	for _, path := range files {
		entries, err := journal.ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			t, err := e.Decode()
			if err != nil {
				return nil, fmt.Errorf("%s entry %s: %w", filepath.Base(path), e.ID, err)
			}
			rows = append(rows, journalRow{file: filepath.Base(path), entry: e, transfer: t})
		}
	}
	return rows, nil
}

func printJournal(rows []journalRow) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"File", "At", "Giver", "Receiver", "Cause", "Resources"}))
	for _, r := range rows {
		_ = table.Append([]string{
			r.file,
			time.UnixMilli(r.entry.At).UTC().Format(time.RFC3339),
			fmt.Sprintf("%d", r.transfer.Giver),
			fmt.Sprintf("%d", r.transfer.Receiver),
			r.transfer.Cause.String(),
			r.transfer.Resources.String(),
		})
	}
	_ = table.Render()
	fmt.Println()
}
