package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipflow/internal/diagnostics"
	"clipflow/internal/domain"
	"clipflow/internal/media"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, models, and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			locator := ctx.locator(settings)
			store := ctx.modelStore(settings)
			report := diagnostics.NewChecker(locator, store).Run(settings)

			if version, err := media.NewExtractor(locator).Version(cmd.Context()); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			}

			rows := make([][]string, 0, len(report.Items))
			for _, item := range report.Items {
				status := "ok"
				if item.Status == domain.DiagnosticStatusFail {
					status = "FAIL"
				}
				rows = append(rows, []string{item.Name, status, item.Message, item.Hint})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"CHECK", "STATUS", "MESSAGE", "HINT"}, rows))

			if report.HasFailures {
				return fmt.Errorf("environment checks failed")
			}
			return nil
		},
	}
}
