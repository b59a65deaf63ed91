// Command sfsd mounts, formats, checks, and archives sfs diskfiles.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sfsfs/sfs"
)

var logPath string

func main() {
	root := &cobra.Command{
		Use:   "sfsd",
		Short: "sfs filesystem daemon and maintenance tool",
	}
	root.PersistentFlags().StringVar(&logPath, "log", "sfs.log", "path to the plain-text session log")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging(logPath)
	}

	root.AddCommand(
		newMountCmd(),
		newFormatCmd(),
		newFsckCmd(),
		newBackupCmd(),
		newRestoreCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging tees structured logging to both stderr and the
// line-buffered plain-text log file described by the external-interfaces
// contract: sfs.log in the working directory, never part of the on-disk
// format.
func setupLogging(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	plain := zerolog.ConsoleWriter{Out: f, TimeFormat: "2006-01-02T15:04:05Z07:00", NoColor: true}
	multi := zerolog.MultiLevelWriter(console, plain)

	sfs.SetLogger(zerolog.New(multi).With().Timestamp().Logger())
	return nil
}

func openDiskfile(path string, writable bool) (*os.File, error) {
	flags := os.O_RDONLY
	if writable {
		flags = os.O_RDWR
	}
	return os.OpenFile(path, flags, 0)
}

func openOrCreateDiskfile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
}
