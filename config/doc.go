// Package config reads the service settings from the environment.
//
// Variables carry the GENRECAST_ prefix. A .env file in the working directory is
// loaded first when present; real environment variables take precedence.
package config
