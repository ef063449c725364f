// Package modelstore acquires the classifier model file.
//
// The model is downloaded over HTTP(S) from a direct URL or from a Google Drive
// file identifier, written atomically to a local cache path and then parsed with
// the classifier package. Without a remote source the cached file is used as is.
package modelstore
