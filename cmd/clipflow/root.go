package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"clipflow/internal/binlocate"
	"clipflow/internal/config"
	"clipflow/internal/domain"
	"clipflow/internal/models"
)

// commandContext carries lazily loaded settings and the shared logger
// across commands.
type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	logger   *log.Logger
	loaded   bool
	settings domain.Settings
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verboseFlag: verboseFlag}
}

// settingsPath returns the effective settings file location.
func (c *commandContext) settingsPath() string {
	if c.configFlag != nil && *c.configFlag != "" {
		return *c.configFlag
	}
	return config.DefaultPath()
}

// ensureSettings loads settings once, falling back to defaults when the
// file does not exist.
func (c *commandContext) ensureSettings() (domain.Settings, error) {
	if c.loaded {
		return c.settings, nil
	}

	settings, err := config.NewTOMLStore(c.settingsPath()).Load()
	if err != nil {
		return domain.Settings{}, err
	}
	c.settings = settings
	c.loaded = true
	return settings, nil
}

// log returns the shared logger, creating it on first use.
func (c *commandContext) log() *log.Logger {
	if c.logger == nil {
		c.logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
		if c.verboseFlag != nil && *c.verboseFlag {
			c.logger.SetLevel(log.DebugLevel)
		}
	}
	return c.logger
}

// locator builds a binary locator from the configured binary directory.
func (c *commandContext) locator(settings domain.Settings) *binlocate.Locator {
	return binlocate.New(settings.BinDir)
}

// modelStore builds a model store from the configured model directory.
func (c *commandContext) modelStore(settings domain.Settings) *models.Store {
	return models.NewStore(settings.ModelDir)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "clipflow",
		Short:         "Local media transcription with ffmpeg and whisper.cpp",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Settings file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newTranscribeCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newEngineCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
