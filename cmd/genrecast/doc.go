// Command genrecast serves the music genre classifier and offers a few offline helpers.
//
// Usage:
//
//	genrecast serve                 start the web front end
//	genrecast classify <file>...    classify audio files and print the distribution
//	genrecast fetch-model           download the model file into the cache path
//	genrecast inspect-model [path]  print the model vocabulary and layers
//
// Settings are read from GENRECAST_* environment variables and an optional .env file.
package main
