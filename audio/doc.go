// Package audio decodes uploaded audio clips into mono sample vectors.
//
// This package turns a raw byte stream into the waveform the mel extractor works on. It supports:
//   - Decoding WAV and MP3 streams (beep) and FLAC streams (mewkiz/flac)
//   - Reducing any channel layout to mono by averaging channels
//   - Resampling to a fixed analysis rate
//   - Sniffing the container format from content, with the file extension as a fallback
//   - Writing mono sample vectors back out as 16-bit WAV files
package audio
