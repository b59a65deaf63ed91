package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
)

func newBackupCmd() *cobra.Command {
	var useXZ bool

	cmd := &cobra.Command{
		Use:   "backup <diskfile> <archive>",
		Short: "stream a compressed snapshot of a diskfile",
		Long: "backup compresses the raw diskfile byte-for-byte; it does not understand\n" +
			"the sfs on-disk format, so the snapshot is only ever restored wholesale.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(args[0], args[1], useXZ)
		},
	}
	cmd.Flags().BoolVar(&useXZ, "xz", false, "use xz instead of the default zstd for higher compression at the cost of speed")
	return cmd
}

func runBackup(diskPath, archivePath string, useXZ bool) error {
	src, err := openDiskfile(diskPath, false)
	if err != nil {
		return fmt.Errorf("opening diskfile: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer dst.Close()

	var w io.WriteCloser
	if useXZ {
		w, err = xz.NewWriter(dst)
	} else {
		w, err = zstd.NewWriter(dst)
	}
	if err != nil {
		return fmt.Errorf("starting compressor: %w", err)
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return fmt.Errorf("copying diskfile: %w", err)
	}
	return w.Close()
}
