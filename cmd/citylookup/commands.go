package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"citycost/internal/pkg/dispatcher"
)

func newClient(opts *rootOptions) *dispatcher.Client {
	return dispatcher.New(opts.server, dispatcher.WithMasterKey(opts.masterKey))
}

func newCostCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <city> <country>",
		Short: "Print the cost-of-living record for a city",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newClient(opts).FetchCityCostOfLiving(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, rec, "", "  "); err != nil {
				return fmt.Errorf("json.Indent > %w", err)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func newRentCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rent <city>",
		Short: "Print the median rent estimate for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quote := newClient(opts).FetchRentEstimate(cmd.Context(), args[0])
			if quote == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "rent data unavailable")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "median rent: %.2f (as of %s)\n", quote.MedianRent, quote.LastUpdated)
			return nil
		},
	}
}
