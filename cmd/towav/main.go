package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/neurlang/genrecast/audio"
	"github.com/neurlang/genrecast/mel"
)

func main() {
	// Check if the filename argument is provided
	if len(os.Args) < 2 {
		fmt.Println("Usage: towav <audio_file> [sample_rate]")
		os.Exit(1)
	}

	var filename = os.Args[1]

	// Default to the rate the spectrogram extractor works at
	sampleRate := mel.NewMel().SampleRate
	if len(os.Args) > 2 {
		sr, err := strconv.Atoi(os.Args[2])
		if err != nil || sr <= 0 {
			fmt.Printf("Invalid sample rate: %s\n", os.Args[2])
			os.Exit(1)
		}
		sampleRate = sr
	}

	clip, err := audio.LoadFile(filename)
	if err != nil {
		fmt.Printf("Error decoding audio: %v\n", err)
		os.Exit(1)
	}
	clip = clip.Resample(sampleRate)

	outputFile := filename + ".wav"
	if err := audio.SaveWav(outputFile, clip.Samples, clip.SampleRate); err != nil {
		fmt.Printf("Error writing wave: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s (%v, %d Hz)\n", outputFile, clip.Duration(), clip.SampleRate)
}
