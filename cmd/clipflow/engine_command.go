package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clipflow/internal/engine"
)

func newEngineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Manage the transcription engine binary",
	}

	cmd.AddCommand(newEngineInstallCommand(ctx))
	return cmd
}

func newEngineInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download and install whisper.cpp into the managed binary directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			logger := ctx.log()
			installer := engine.NewInstaller(settings.BinDir)

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(100,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("installing"),
					progressbar.OptionClearOnFinish(),
				)
			}

			lastMessage := ""
			path, err := installer.Install(cmd.Context(), func(percent float64, message string) {
				if bar != nil {
					bar.Describe(message)
					_ = bar.Set(int(percent))
					return
				}
				if message != lastMessage {
					lastMessage = message
					logger.Info(message, "percent", int(percent))
				}
			})
			if bar != nil {
				_ = bar.Close()
			}
			if err != nil {
				return err
			}

			logger.Info("engine installed", "path", path)
			return nil
		},
	}
}
