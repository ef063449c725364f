// Command towav converts an audio file to the mono wave the spectrogram extractor sees.
//
// The input is decoded (WAV, MP3 or FLAC), averaged to one channel and resampled,
// which makes it easy to listen to exactly what the classifier is given.
//
// Usage:
//
//	towav <audio_file> [sample_rate]
//
// The output WAV file will be named <audio_file>.wav
// Optional sample_rate parameter (default: 22050 Hz)
package main
