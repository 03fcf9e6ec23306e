// Package env reads raw environment variables for the few spots that run
// before the typed config is loaded, like choosing the log format.
package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
