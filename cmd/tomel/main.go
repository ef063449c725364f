package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurlang/genrecast/mel"
)

func main() {
	// Check if the filename argument is provided
	if len(os.Args) < 2 {
		fmt.Println("Usage: tomel <audio_file>")
		os.Exit(1)
	}

	var filename = os.Args[1]

	// Bare names are taken as wav base names
	inputFile := filename
	if filepath.Ext(filename) == "" {
		inputFile = filename + ".wav"
	}
	outputFile := filename + ".png"

	var m = mel.NewMel()

	if err := m.ToMelFile(inputFile, outputFile); err != nil {
		fmt.Printf("Error generating mel spectrogram: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(outputFile)
}
