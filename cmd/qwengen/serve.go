package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/refine"
	"github.com/beauNate/qwen-image-generator/server"
	"github.com/beauNate/qwen-image-generator/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API for the UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.New(cfg.StateDir)
			if err != nil {
				return fmt.Errorf("open state dir: %w", err)
			}
			settings, err := st.Settings()
			if err != nil {
				return fmt.Errorf("read settings: %w", err)
			}

			engine := client.NewClient(cfg.EngineAddress)
			engine.SetLogger(ctx.logger)
			engine.SetPollInterval(cfg.PollInterval())

			refiner := refine.NewRefiner(cfg.OllamaURL, settings.OllamaModel)
			refiner.SetLogger(ctx.logger)
			if settings.AutoUnloadOllama {
				engine.SetUnloader(refiner)
			}

			listenCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go engine.ListenProgress(listenCtx)

			srv := server.New(engine, refiner, st, ctx.logger)
			if cfg.OutputDir != "" {
				srv.ServeOutputs(cfg.OutputDir)
			}

			ctx.logger.Info("listening",
				"address", cfg.ListenAddress, "engine", cfg.EngineAddress)
			return srv.App().Listen(cfg.ListenAddress)
		},
	}
}
