package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sfsfs/sfs"
)

func newFormatCmd() *cobra.Command {
	var sizeMB int64

	cmd := &cobra.Command{
		Use:   "format <diskfile>",
		Short: "create and format a new sfs diskfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(args[0], sizeMB)
		},
	}
	cmd.Flags().Int64Var(&sizeMB, "size-mb", 16, "size in MiB of the backing diskfile to preallocate")
	return cmd
}

func runFormat(path string, sizeMB int64) error {
	disk, err := openOrCreateDiskfile(path)
	if err != nil {
		return fmt.Errorf("creating diskfile: %w", err)
	}
	defer disk.Close()

	if err := sfs.PreallocateDisk(disk, sizeMB*1024*1024); err != nil {
		return fmt.Errorf("preallocating diskfile: %w", err)
	}

	core, err := sfs.Format(disk)
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	return core.Close()
}
