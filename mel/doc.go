// Package mel provides mel-frequency spectrogram generation and rendering.
//
// This package implements the conversion of audio waveforms into log-power mel-scale
// spectrograms, the image representation fed to the genre classifier. It supports:
//   - Decoding WAV/MP3/FLAC audio and resampling it to a fixed analysis rate
//   - STFT power spectra with a periodic Hann window and centered frames
//   - Slaney-style mel filterbanks (frequency range, number of mel bands)
//   - Decibel scaling referenced to the clip's own peak power
//   - Rendering a titled figure with a dB colorbar, saved as a PNG image
package mel
