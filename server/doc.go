// Package server is the web front end: an upload page, the result page with the
// spectrogram, class probabilities and genre content, and a JSON API exposing the
// same result.
package server
