package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/converter"
	"github.com/napolitain/resource-engine/internal/models"
)

func newEncodeCmd() *cobra.Command {
	var (
		entity  int64
		at      int64
		amounts []string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the wire form of a value",
		Example: `  producer encode --entity 7 --set metal=120 --set energy=40.5
  producer encode --resources-only --set credits=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := parseAmounts(amounts)
			if err != nil {
				return err
			}
			if only, _ := cmd.Flags().GetBool("resources-only"); only {
				fmt.Println(converter.EncodeResources(resources))
				return nil
			}
			if at <= 0 {
				at = time.Now().UnixMilli()
			}
			fmt.Println(converter.EncodeValueDto(models.ValueDto{
				Entity:    models.EntityID(entity),
				Resources: resources,
				Time:      at,
			}))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&entity, "entity", "e", 1, "Entity id")
	cmd.Flags().Int64VarP(&at, "time", "t", 0, "Epoch milliseconds, now when unset")
	cmd.Flags().StringArrayVar(&amounts, "set", nil, "Resource amount as name=value, repeatable")
	cmd.Flags().Bool("resources-only", false, "Encode the resource vector alone")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <wire>",
		Short: "Decode a value, transfer or resource vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := strings.TrimSpace(args[0])
			infoColor := color.New(color.FgYellow)

			switch strings.Count(s, converter.ObjectSeparator) {
			case 0:
				r, err := converter.DecodeResources(s)
				if err != nil {
					return err
				}
				infoColor.Println("Resources")
				printVector(r)
			case 2:
				dto, err := converter.DecodeValueDto(s)
				if err != nil {
					return err
				}
				infoColor.Printf("Value of entity %d at %s\n", dto.Entity, time.UnixMilli(dto.Time).UTC().Format(time.RFC3339))
				printVector(dto.Resources)
			case 3:
				dto, err := converter.DecodeTransferDto(s)
				if err != nil {
					return err
				}
				infoColor.Printf("%s from player %d to player %d\n", dto.Cause, dto.Giver, dto.Receiver)
				printVector(dto.Resources)
			default:
				return fmt.Errorf("%w: %d objects", converter.ErrMalformed, strings.Count(s, converter.ObjectSeparator)+1)
			}
			return nil
		},
	}
}

func printVector(r models.Resources) {
	headers := resourceHeaders()
	if r.Len() != len(headers) {
		headers = make([]string, r.Len())
		for i := range headers {
			headers[i] = fmt.Sprintf("#%d", i)
		}
	}
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Resource", "Amount"}))
	for i := 0; i < r.Len(); i++ {
		_ = table.Append([]string{headers[i], fmt.Sprintf("%g", r.Get(i))})
	}
	_ = table.Render()
}
