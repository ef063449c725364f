// Package classifier runs the pretrained genre model over spectrogram images.
//
// A model is a stack of dense layers stored in a single self-contained file: a small
// JSON header carrying the genre vocabulary, the expected input shape and the
// normalisation statistics, followed by half-precision weights. The package supports:
//   - Loading and writing model files
//   - Resizing and normalising a spectrogram figure into the model input
//   - A forward pass with softmax, returning the argmax label and the full distribution
//   - A ModelHandle that loads the process-wide model exactly once
package classifier
