package sfs

import (
	"bytes"
	"encoding/binary"
)

// DirectBlocks is the number of direct block pointers an inode carries.
// Indirect and double-indirect slots are reserved in the on-disk layout
// but never populated; see Non-goals.
const DirectBlocks = 12

// totalBlockPointers is DirectBlocks plus the reserved (unused) indirect
// and double-indirect slots, matching the original on-disk layout so the
// fixed inode record size lines up with inodeRecordSize.
const totalBlockPointers = DirectBlocks + 2

// RootInumber is the reserved inumber of the root directory.
const RootInumber = 1

// Inode is the fixed-size on-disk metadata record for one file or
// directory. Inumber 0 denotes the null inode; RootInumber is always the
// root directory.
//
// When an inode is on the free list, Size is overloaded to hold the
// inumber of the next free inode (0 terminates the list); see
// allocateInode/deallocateInode.
type Inode struct {
	Inumber uint64

	Mode uint32 // chmod(2) bits, including the file-type bits
	Uid  uint32
	Gid  uint32

	Links uint32

	AccessTime uint64
	ModTime    uint64
	ChangeTime uint64

	Size uint64

	BlockPointers [totalBlockPointers]uint64
}

// MarshalBinary encodes the inode into its fixed inodeRecordSize-byte
// on-disk record, in declaration order with natural field width.
func (ino *Inode) MarshalBinary() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Grow(inodeRecordSize)

	fields := []any{
		ino.Inumber,
		ino.Mode,
		ino.Uid,
		ino.Gid,
		ino.Links,
		ino.AccessTime,
		ino.ModTime,
		ino.ChangeTime,
		ino.Size,
		ino.BlockPointers,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	out := make([]byte, inodeRecordSize)
	copy(out, buf.Bytes())
	return out, nil
}

// UnmarshalBinary decodes an inode record previously produced by
// MarshalBinary. data must be at least inodeRecordSize bytes.
func (ino *Inode) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data[:inodeRecordSize])

	if err := binary.Read(r, binary.LittleEndian, &ino.Inumber); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Mode); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Uid); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Gid); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Links); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.AccessTime); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.ModTime); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.ChangeTime); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Size); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &ino.BlockPointers)
}

// IsDir reports whether the inode's mode has the directory bit set.
func (ino *Inode) IsDir() bool {
	return ino.Mode&ModeDir != 0
}

// inodeLocation maps an inumber to its (block, slot-within-block)
// location in the inode table, per §4.3's accessor rule.
func inodeLocation(inumber uint64) (block uint64, slot int) {
	idx := inumber - 1
	return idx/inodesPerBlock + 1, int(idx % inodesPerBlock)
}
