package sfs

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-wide logger. It defaults to a console writer on
// stderr; cmd/sfsd replaces it with one that also tees to sfs.log, per
// the plain-text line-buffered log file described in spec §6.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// SetLogger overrides the package logger, used by cmd/sfsd to wire the
// sfs.log file sink alongside the console.
func SetLogger(l zerolog.Logger) {
	Log = l
}
