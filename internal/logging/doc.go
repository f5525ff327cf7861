// Package logging provides leveled logging for the music library server.
//
// The log level is read from the LOG_LEVEL environment variable (debug,
// info, warn, error) the first time a message is emitted. Setting DEBUG=true
// forces debug level regardless of LOG_LEVEL. Output goes through the
// standard library logger so timestamps and destinations stay configurable
// by the host process.
package logging
