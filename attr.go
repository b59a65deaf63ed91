package sfs

import "io/fs"

// Mode bits, following the same Linux st_mode layout as chmod(2). An
// inode's Mode field is stored on disk exactly as these bits, so no
// translation happens on the hot read/write path — only the FUSE
// collaborator and io/fs interop need UnixToMode/ModeToUnix below.
const (
	ModeFmt  = 0xf000
	ModeReg  = 0x8000
	ModeDir  = 0x4000
	ModeBlk  = 0x6000
	ModeChr  = 0x2000
	ModeFifo = 0x1000
	ModeLnk  = 0xa000
	ModeSock = 0xc000

	ModeSticky = 0x200
	ModeSetgid = 0x400
	ModeSetuid = 0x800

	modeRUsr = 0x100
	modeRGrp = 0x20
	modeROth = 0x4
	modeXUsr = 0x40
	modeXGrp = 0x8
	modeXOth = 0x1
)

// rootDirMode is the mode written to the root inode during Format: a
// directory, read/write/execute for the owner, read/execute for group and
// other.
const rootDirMode = ModeDir | 0700 | modeRGrp | modeXGrp | modeROth | modeXOth

// UnixToMode converts a raw chmod(2)-style mode word into an io/fs.FileMode,
// for callers that want to use the standard library's file-mode vocabulary.
func UnixToMode(mode uint32) fs.FileMode {
	res := fs.FileMode(mode & 0777)

	switch mode & ModeFmt {
	case ModeChr:
		res |= fs.ModeCharDevice | fs.ModeDevice
	case ModeBlk:
		res |= fs.ModeDevice
	case ModeDir:
		res |= fs.ModeDir
	case ModeFifo:
		res |= fs.ModeNamedPipe
	case ModeLnk:
		res |= fs.ModeSymlink
	case ModeSock:
		res |= fs.ModeSocket
	}

	if mode&ModeSetgid != 0 {
		res |= fs.ModeSetgid
	}
	if mode&ModeSetuid != 0 {
		res |= fs.ModeSetuid
	}
	if mode&ModeSticky != 0 {
		res |= fs.ModeSticky
	}

	return res
}

// ModeToUnix is the inverse of UnixToMode.
func ModeToUnix(mode fs.FileMode) uint32 {
	res := uint32(mode.Perm())

	switch {
	case mode&fs.ModeCharDevice != 0:
		res |= ModeChr
	case mode&fs.ModeDevice != 0:
		res |= ModeBlk
	case mode&fs.ModeDir != 0:
		res |= ModeDir
	case mode&fs.ModeNamedPipe != 0:
		res |= ModeFifo
	case mode&fs.ModeSymlink != 0:
		res |= ModeLnk
	case mode&fs.ModeSocket != 0:
		res |= ModeSock
	default:
		res |= ModeReg
	}

	if mode&fs.ModeSetgid != 0 {
		res |= ModeSetgid
	}
	if mode&fs.ModeSetuid != 0 {
		res |= ModeSetuid
	}
	if mode&fs.ModeSticky != 0 {
		res |= ModeSticky
	}

	return res
}

// Stat is the POSIX-shaped metadata view of an inode, the Go analogue of
// filling a struct stat from sfs_fs_inode_to_stat().
type Stat struct {
	Inumber    uint64
	Mode       uint32
	Uid        uint32
	Gid        uint32
	Links      uint32
	Size       uint64
	AccessTime uint64
	ModTime    uint64
	ChangeTime uint64
	Blocks     uint64 // count of allocated direct blocks, for st_blocks
}

// Stat fills out a Stat view of the inode's metadata.
func (ino *Inode) Stat() Stat {
	var blocks uint64
	for _, b := range ino.BlockPointers[:DirectBlocks] {
		if b != 0 {
			blocks++
		}
	}
	return Stat{
		Inumber:    ino.Inumber,
		Mode:       ino.Mode,
		Uid:        ino.Uid,
		Gid:        ino.Gid,
		Links:      ino.Links,
		Size:       ino.Size,
		AccessTime: ino.AccessTime,
		ModTime:    ino.ModTime,
		ChangeTime: ino.ChangeTime,
		Blocks:     blocks,
	}
}
