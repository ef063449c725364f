package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neurlang/genrecast/classifier"
	"github.com/neurlang/genrecast/mel"
	"github.com/neurlang/genrecast/pipeline"
	"github.com/neurlang/genrecast/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and the JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, logger, store, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The model is loaded before listening; without it there is nothing to serve.
	handle := classifier.NewModelHandle(store.Load)
	if err := handle.Load(ctx); err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	p := pipeline.New(mel.NewMel(), handle, pipeline.Options{
		ArtifactDir: cfg.ArtifactDir,
		Extensions:  cfg.Extensions(),
	}, logger)
	srv := server.New(p, handle, server.Options{MaxMemory: cfg.UploadMemory()}, logger)
	return srv.ListenAndServe(ctx, cfg.Addr())
}
