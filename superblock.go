package sfs

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"time"
)

// signature is the literal 16-byte magic stamped into block 0 of a
// formatted disk: "SFS_IS_THE_BEST\0".
const signature = "SFS_IS_THE_BEST\x00"

// inodeRecordSize is the fixed, on-disk size of one inode record (see
// Inode.MarshalBinary). inodesPerBlock follows from it.
const inodeRecordSize = 168

const inodesPerBlock = BlockSize / inodeRecordSize

// indexSlotsPerBlock is how many 8-byte slots fit in a free-block index
// node; slot 0 holds the next-node pointer, leaving indexSlotsPerBlock-1
// usable free-block slots.
const indexSlotsPerBlock = BlockSize / 8

// Superblock is the in-memory copy of block 0: on-disk layout, metadata
// counts, and the heads of the free-inode and free-block lists.
//
// Callers never read or write a Superblock directly; FS keeps one in
// memory and persists it after every mutation per the "write through on
// mutation" contract.
type Superblock struct {
	CreateTime       uint64
	BlockSize        uint64
	InodeTableBlocks uint64
	Inodes           uint64
	Blocks           uint64
	FreeBlocksHead   uint64
	FreeInodeHead    uint64
}

// superblockFields lists, via reflection, the integer fields that
// follow the 16-byte signature on disk, in declaration order.
func superblockFields(sb *Superblock) []*uint64 {
	v := reflect.ValueOf(sb).Elem()
	fields := make([]*uint64, v.NumField())
	for i := range fields {
		fields[i] = v.Field(i).Addr().Interface().(*uint64)
	}
	return fields
}

// MarshalBinary encodes the superblock into one disk block.
func (sb *Superblock) MarshalBinary() ([]byte, error) {
	buf := make([]byte, BlockSize)
	copy(buf, signature)

	w := bytes.NewBuffer(buf[16:16])
	for _, f := range superblockFields(sb) {
		if err := binary.Write(w, binary.LittleEndian, *f); err != nil {
			return nil, err
		}
	}
	copy(buf[16:], w.Bytes())
	return buf, nil
}

// UnmarshalBinary decodes a superblock from one disk block previously
// produced by MarshalBinary. It does not check the signature; callers
// check that separately before deciding whether to format.
func (sb *Superblock) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data[16:])
	for _, f := range superblockFields(sb) {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// hasValidSignature reports whether data (one full block) begins with the
// sfs magic.
func hasValidSignature(data []byte) bool {
	return len(data) >= 16 && string(data[:16]) == signature
}

// Validate checks the structural invariants from the on-disk layout
// section: the inode-table size is consistent with the inode count, and
// the free-list heads either point inside their valid ranges or are 0.
func (sb *Superblock) Validate() error {
	if sb.InodeTableBlocks < 1 {
		return ErrInvalidSuperblock
	}
	if sb.Inodes != sb.InodeTableBlocks*inodesPerBlock {
		return ErrInvalidSuperblock
	}
	if sb.FreeInodeHead > sb.Inodes {
		return ErrInvalidSuperblock
	}
	if sb.FreeBlocksHead != 0 && (sb.FreeBlocksHead <= sb.InodeTableBlocks || sb.FreeBlocksHead >= sb.Blocks) {
		return ErrInvalidSuperblock
	}
	return nil
}

func unixNow() uint64 {
	return uint64(time.Now().Unix())
}
