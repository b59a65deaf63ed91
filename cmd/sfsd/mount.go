package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	fusefs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/spf13/cobra"

	"github.com/sfsfs/sfs"
	"github.com/sfsfs/sfs/fuseserver"
)

func newMountCmd() *cobra.Command {
	var maybeFormat bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "mount <diskfile> <mountpoint>",
		Short: "mount an sfs diskfile at a mountpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMount(args[0], args[1], maybeFormat, debug)
		},
	}
	cmd.Flags().BoolVar(&maybeFormat, "format", false, "format the diskfile first if it is not already an sfs filesystem")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable verbose FUSE protocol logging")
	return cmd
}

func runMount(diskPath, mountpoint string, maybeFormat, debug bool) error {
	disk, err := openDiskfile(diskPath, true)
	if err != nil {
		return fmt.Errorf("opening diskfile: %w", err)
	}

	core, err := sfs.Open(disk, maybeFormat)
	if err != nil {
		disk.Close()
		return fmt.Errorf("opening filesystem: %w", err)
	}

	root := fuseserver.New(core)
	server, err := fusefs.Mount(mountpoint, root, &fusefs.Options{
		MountOptions: fuse.MountOptions{
			Debug:          debug,
			FsName:         "sfs",
			Name:           "sfs",
			SingleThreaded: true,
		},
	})
	if err != nil {
		core.Close()
		disk.Close()
		return fmt.Errorf("mounting: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		server.Unmount()
	}()

	sfs.Log.Info().Str("diskfile", diskPath).Str("mountpoint", mountpoint).Msg("mounted")
	server.Wait()

	if err := core.Close(); err != nil {
		sfs.Log.Error().Err(err).Msg("closing filesystem")
	}
	return disk.Close()
}
