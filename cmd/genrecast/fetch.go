package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/neurlang/genrecast/classifier"
	"github.com/neurlang/genrecast/modelstore"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(inspectCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch-model",
	Short: "Download the model file into GENRECAST_MODEL_PATH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}
		store := modelstore.New(modelstore.Source{
			URL:     cfg.ModelURL,
			FileID:  cfg.ModelFileID,
			Path:    cfg.ModelPath,
			Timeout: cfg.FetchTimeout,
			Refresh: true,
		}, logger)
		if _, err := store.Load(context.Background()); err != nil {
			return err
		}
		fmt.Println(store.Path())
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect-model [path]",
	Short: "Print the vocabulary and layers of a model file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, _, _, err := setup()
			if err != nil {
				return err
			}
			path = cfg.ModelPath
		}
		m, err := classifier.LoadFile(path)
		if err != nil {
			return err
		}
		printModel(m)
		return nil
	},
}

func printModel(m *classifier.Model) {
	fmt.Printf("input %dx%dx%d, %d labels\n", m.Input.Width, m.Input.Height, m.Input.Channels, len(m.Vocabulary))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Label"})
	for i, label := range m.Vocabulary {
		table.Append([]string{strconv.Itoa(i), label})
	}
	table.Render()

	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Layer", "In", "Out", "Activation"})
	for i, l := range m.Layers {
		act := string(l.Activation)
		if act == "" {
			act = "linear"
		}
		table.Append([]string{strconv.Itoa(i), strconv.Itoa(l.In), strconv.Itoa(l.Out), act})
	}
	table.Render()
}
