package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/neurlang/genrecast/classifier"
	"github.com/neurlang/genrecast/mel"
	"github.com/neurlang/genrecast/pipeline"
)

var keepPNG bool

func init() {
	classifyCmd.Flags().BoolVar(&keepPNG, "keep-png", false, "keep the rendered spectrogram next to the input file")
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Classify audio files and print the genre distribution",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return classify(cmd.Context(), args)
	},
}

func classify(ctx context.Context, files []string) error {
	cfg, logger, store, err := setup()
	if err != nil {
		return err
	}

	handle := classifier.NewModelHandle(store.Load)
	if err := handle.Load(ctx); err != nil {
		return err
	}
	exts := cfg.Extensions()
	if len(exts) == 0 {
		exts = []string{"mp3", "wav", "flac"}
	}
	p := pipeline.New(mel.NewMel(), handle, pipeline.Options{
		ArtifactDir: cfg.ArtifactDir,
		Extensions:  exts,
	}, logger)

	for _, file := range files {
		if err := classifyFile(ctx, p, file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

func classifyFile(ctx context.Context, p *pipeline.Pipeline, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := p.Run(ctx, pipeline.Upload{Filename: filepath.Base(file), Body: f})
	if err != nil {
		return err
	}
	defer res.Close()

	highlight := color.New(color.BgBlack, color.FgGreen).Render
	fmt.Printf("%s: %s (%.4f)\n", file, highlight(res.Prediction.Label), res.Prediction.Confidence())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Genre", "Probability"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, sc := range res.Prediction.Scores() {
		label := sc.Label
		if i == res.Prediction.Index {
			label = highlight(label)
		}
		table.Append([]string{label, fmt.Sprintf("%.4f", sc.Probability)})
	}
	table.Render()

	for i := range res.Content.Texts {
		fmt.Printf("  %s  %s  %s\n", res.Content.Texts[i], res.Content.Videos[i], res.Content.Images[i])
	}

	if keepPNG {
		out := file + ".png"
		if err := res.Spectrogram.SavePNG(out); err != nil {
			return err
		}
		fmt.Println("  spectrogram:", out)
	}
	return nil
}
