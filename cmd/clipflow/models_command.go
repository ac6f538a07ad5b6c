package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clipflow/internal/domain"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage local speech-recognition models",
	}

	cmd.AddCommand(newModelsListCommand(ctx))
	cmd.AddCommand(newModelsDownloadCommand(ctx))
	cmd.AddCommand(newModelsDeleteCommand(ctx))

	return cmd
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available models and their install status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			rows := make([][]string, 0)
			for _, status := range ctx.modelStore(settings).Statuses() {
				installed := "-"
				if status.Installed {
					installed = "yes"
				}
				rows = append(rows, []string{
					status.Model.ID,
					status.Model.Name,
					status.Model.SizeLabel,
					installed,
					status.LocalPath,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "NAME", "SIZE", "INSTALLED", "PATH"}, rows, 3))
			return nil
		},
	}
}

func newModelsDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <model-id>",
		Short: "Download a model into the model directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			logger := ctx.log()
			store := ctx.modelStore(settings)
			id := args[0]

			if store.IsInstalled(id) {
				logger.Info("model already installed", "model", id, "path", store.ResolvePath(id))
				return nil
			}

			var bar *progressbar.ProgressBar
			path, err := store.Download(cmd.Context(), id, func(progress domain.DownloadProgress) {
				if !isatty.IsTerminal(os.Stderr.Fd()) {
					return
				}
				if bar == nil {
					bar = progressbar.DefaultBytes(progress.Total, "downloading "+id)
				}
				_ = bar.Set64(progress.Downloaded)
			})
			if bar != nil {
				_ = bar.Close()
			}
			if err != nil {
				return err
			}

			logger.Info("model downloaded", "model", id, "path", path)
			return nil
		},
	}
}

func newModelsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <model-id>",
		Short: "Remove an installed model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			store := ctx.modelStore(settings)
			id := args[0]
			installed := store.IsInstalled(id)

			if err := store.Delete(id); err != nil {
				return err
			}
			if installed {
				ctx.log().Info("model deleted", "model", id)
			} else {
				ctx.log().Info("model was not installed", "model", id)
			}
			return nil
		},
	}
}
