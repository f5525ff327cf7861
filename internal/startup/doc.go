// Package startup handles application configuration loading and the
// structured startup/shutdown logging performed by main.
//
// Configuration comes from environment variables with sensible defaults;
// LoadConfig validates directories, derives paths, and logs the effective
// configuration. Build information (version, commit, build time) is injected
// at link time via -ldflags.
package startup
