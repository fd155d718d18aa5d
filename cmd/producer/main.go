package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/models"
)

var catalogFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "producer",
		Short: "Resource production engine tools",
		Long: `Simulate producers against a bonus catalog, watch one produce live,
encode or decode the resource wire format, and list journaled transfers.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&catalogFile, "catalog", "c", "data/bonuses.yaml", "Path to the bonus catalog")

	rootCmd.AddCommand(newSimulateCmd(), newEncodeCmd(), newDecodeCmd(), newWatchCmd(), newJournalCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseAmounts reads name=value pairs into a game-dimension vector
func parseAmounts(pairs []string) (models.Resources, error) {
	byType := make(map[models.ResourceType]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return models.Resources{}, fmt.Errorf("expected name=value, got %q", pair)
		}
		rt, err := models.ParseResourceType(strings.TrimSpace(name))
		if err != nil {
			return models.Resources{}, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return models.Resources{}, fmt.Errorf("amount of %s: %w", name, err)
		}
		byType[rt] += v
	}
	return models.FromMap(byType), nil
}

// resourceHeaders returns the column names of a game vector
func resourceHeaders() []string {
	types := models.AllResourceTypes()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	names := make([]string, len(types))
	for i, rt := range types {
		names[i] = strings.ToUpper(rt.String()[:1]) + rt.String()[1:]
	}
	return names
}
