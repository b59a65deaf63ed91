package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sfsfs/sfs"
)

func newFsckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fsck <diskfile>",
		Short: "check an sfs diskfile's inode and block accounting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFsck(args[0])
		},
	}
}

func runFsck(path string) error {
	disk, err := openDiskfile(path, false)
	if err != nil {
		return fmt.Errorf("opening diskfile: %w", err)
	}
	defer disk.Close()

	core, err := sfs.Open(disk, false)
	if err != nil {
		return fmt.Errorf("opening filesystem: %w", err)
	}

	report, err := core.Fsck()
	if err != nil {
		return fmt.Errorf("walking filesystem: %w", err)
	}

	fmt.Printf("inodes: %d total, %d free, %d live\n", report.Inodes, report.FreeInodes, report.LiveInodes)
	fmt.Printf("blocks: %d total, %d free, %d referenced, %d reserved\n",
		report.Blocks, report.FreeBlocks, report.ReferencedBlocks, report.ReservedBlocks)

	if report.Clean() {
		fmt.Println("clean")
		return nil
	}

	for _, p := range report.Problems {
		fmt.Println("problem:", p)
	}
	return fmt.Errorf("%d problems found", len(report.Problems))
}
