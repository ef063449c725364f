package main

import (
	"log/slog"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"github.com/neurlang/genrecast/config"
	"github.com/neurlang/genrecast/modelstore"
)

var rootCmd = &cobra.Command{
	Use:           "genrecast",
	Short:         "Music genre classifier",
	Long:          `Classifies uploaded music by genre from its mel spectrogram and shows matching content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// setup loads the configuration and builds the logger and model store every
// command needs.
func setup() (*config.Config, *slog.Logger, *modelstore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logs.GetLoggerFromString(cfg.LogLevel)
	store := modelstore.New(modelstore.Source{
		URL:     cfg.ModelURL,
		FileID:  cfg.ModelFileID,
		Path:    cfg.ModelPath,
		Timeout: cfg.FetchTimeout,
		Refresh: cfg.ModelRefresh,
	}, logger)
	return cfg, logger, store, nil
}
