// Package pipeline runs one uploaded clip through extraction, classification and
// content resolution.
//
// A run stops at the first failing stage. Nothing is classified when extraction
// fails, and the rendered spectrogram artifact only outlives a run that succeeded;
// the caller releases it with Result.Close.
package pipeline
