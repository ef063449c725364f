// Command tomel renders the mel spectrogram figure of an audio file to PNG.
//
// The figure is the same one the genre classifier sees: 128 mel bands up to 8 kHz
// on a decibel scale relative to the loudest bin, with colorbar, axes and title.
//
// Usage:
//
//	tomel <audio_file>
//
// The output PNG file will be named <audio_file>.png. A name without an extension is
// read as <audio_file>.wav.
//
// Supported input formats: .wav, .mp3, .flac
package main
