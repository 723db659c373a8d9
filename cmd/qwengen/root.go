package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/beauNate/qwen-image-generator/config"
)

// commandContext carries the flags and lazily-loaded config shared by
// every subcommand.
type commandContext struct {
	configFlag *string
	engineFlag *string

	cfg    *config.Config
	logger *slog.Logger
}

func (ctx *commandContext) ensureConfig() (config.Config, error) {
	if ctx.cfg != nil {
		return *ctx.cfg, nil
	}
	path := *ctx.configFlag
	if path == "" {
		path = "qwengen.toml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if *ctx.engineFlag != "" {
		cfg.EngineAddress = *ctx.engineFlag
	}
	ctx.cfg = &cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var engineFlag string

	ctx := &commandContext{
		configFlag: &configFlag,
		engineFlag: &engineFlag,
		logger:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	rootCmd := &cobra.Command{
		Use:           "qwengen",
		Short:         "Local media generation via a ComfyUI engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "Engine address (host:port), overrides config")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newRefineCommand(ctx))

	return rootCmd
}
