package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
)

func newRestoreCmd() *cobra.Command {
	var useXZ bool

	cmd := &cobra.Command{
		Use:   "restore <archive> <diskfile>",
		Short: "decompress a backup archive back into a diskfile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(args[0], args[1], useXZ)
		},
	}
	cmd.Flags().BoolVar(&useXZ, "xz", false, "the archive was produced with backup --xz")
	return cmd
}

func runRestore(archivePath, diskPath string, useXZ bool) error {
	src, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(diskPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating diskfile: %w", err)
	}
	defer dst.Close()

	var r io.Reader
	if useXZ {
		r, err = xz.NewReader(src)
	} else {
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(src)
		if dec != nil {
			defer dec.Close()
		}
		r = dec
	}
	if err != nil {
		return fmt.Errorf("starting decompressor: %w", err)
	}

	_, err = io.Copy(dst, r)
	return err
}
