package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"clipflow/internal/media"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <media-file>",
		Short: "Inspect container format, duration, and stream presence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			extractor := media.NewExtractor(ctx.locator(settings))
			probe, err := extractor.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(probe)
			}

			rows := [][]string{
				{"Format", probe.Format},
				{"Duration", fmt.Sprintf("%.1fs", probe.Duration)},
				{"Audio", yesNo(probe.HasAudio)},
				{"Video", yesNo(probe.HasVideo)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FIELD", "VALUE"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the probe result as JSON")
	return cmd
}

// yesNo renders a boolean for table cells.
func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
