package sfs

import (
	"bytes"
	"encoding/binary"
)

// maxNameLen is the fixed width of a directory entry's name field,
// including its NUL terminator budget.
const maxNameLen = 256

// dirEntrySize is the fixed size of one directory entry record: an
// 8-byte inumber followed by the name field. At 512 bytes per block this
// leaves room for exactly one entry per block — the flat directory
// format trades space for the simplicity of "one block, one entry, no
// packing logic."
const dirEntrySize = 8 + maxNameLen

// entriesPerBlock is how many dirEntry records fit in one block.
const entriesPerBlock = BlockSize / dirEntrySize

// dirEntry is one flat-directory record. Inumber 0 marks a free (unused
// or unlinked) slot.
type dirEntry struct {
	Inumber uint64
	Name    [maxNameLen]byte
}

func (e *dirEntry) nameString() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

func (e *dirEntry) setName(name string) error {
	if len(name) >= maxNameLen {
		return ErrNameTooLong
	}
	var buf [maxNameLen]byte
	copy(buf[:], name)
	e.Name = buf
	return nil
}

func decodeDirEntry(block []byte, slot int) dirEntry {
	var e dirEntry
	off := slot * dirEntrySize
	e.Inumber = binary.LittleEndian.Uint64(block[off : off+8])
	copy(e.Name[:], block[off+8:off+dirEntrySize])
	return e
}

func encodeDirEntry(block []byte, slot int, e dirEntry) {
	off := slot * dirEntrySize
	binary.LittleEndian.PutUint64(block[off:off+8], e.Inumber)
	copy(block[off+8:off+dirEntrySize], e.Name[:])
}

// rootInode returns the root directory's inode.
func (fs *FS) rootInode() (*Inode, error) {
	return fs.readInode(RootInumber)
}

// dirIterator walks the entries of a directory inode, one physical
// block (and therefore one entry) at a time. It keeps the shape of a
// block-cached iterator even though entriesPerBlock is 1 here, so the
// logic generalizes if the entry format ever shrinks.
type dirIterator struct {
	fs  *FS
	dir *Inode

	iblock uint64
	slot   int

	cached      [BlockSize]byte
	cachedValid bool
}

// newDirIterator starts an iterator over directory's entries. Callers
// must hold fs.mu for the iterator's whole lifetime.
func (fs *FS) newDirIterator(directory *Inode) *dirIterator {
	return &dirIterator{fs: fs, dir: directory}
}

// next advances the iterator and returns the next occupied entry along
// with the inode it names. ok is false once iteration is exhausted.
func (it *dirIterator) next() (entry dirEntry, inode *Inode, ok bool, err error) {
	for {
		if it.iblock*BlockSize >= it.dir.Size {
			return dirEntry{}, nil, false, nil
		}

		if it.slot == 0 || !it.cachedValid {
			if err := it.fs.readInodeBlock(it.dir, it.iblock, it.cached[:]); err != nil {
				return dirEntry{}, nil, false, err
			}
			it.cachedValid = true

			it.dir.AccessTime = unixNow()
			if err := it.fs.writeInode(it.dir); err != nil {
				return dirEntry{}, nil, false, err
			}
		}

		for it.slot < entriesPerBlock {
			e := decodeDirEntry(it.cached[:], it.slot)
			if e.Inumber != 0 {
				ino, err := it.fs.readInode(e.Inumber)
				if err != nil {
					return dirEntry{}, nil, false, err
				}
				it.slot++
				return e, ino, true, nil
			}
			it.slot++
		}

		it.iblock++
		it.slot = 0
		it.cachedValid = false
	}
}

// unlink removes the entry most recently returned by next, decrementing
// the target inode's hard-link count. The inode is only deallocated once
// both the link count and the open-reference count reach zero — a file
// unlinked while still open stays on disk until its last handle closes.
// It must only be called once per entry returned by next.
func (it *dirIterator) unlink(entry dirEntry) error {
	target, err := it.fs.readInode(entry.Inumber)
	if err != nil {
		return err
	}

	target.Links--
	target.ChangeTime = unixNow()

	if target.Links == 0 && it.fs.openRefs[target.Inumber] == 0 {
		if err := it.fs.deallocateInode(target); err != nil {
			return err
		}
	} else {
		if err := it.fs.writeInode(target); err != nil {
			return err
		}
	}

	slot := it.slot - 1
	encodeDirEntry(it.cached[:], slot, dirEntry{})

	it.dir.ModTime = unixNow()
	if err := it.fs.writeInode(it.dir); err != nil {
		return err
	}

	return it.fs.writeInodeBlock(it.dir, it.iblock, it.cached[:])
}

// dirLink adds an entry mapping name to target within directory, reusing
// the first free slot if one exists or else growing the directory by one
// block. target's link count is incremented and its ctime bumped;
// directory's mtime is bumped.
func (fs *FS) dirLink(directory *Inode, name string, target *Inode) error {
	if len(name) >= maxNameLen {
		return ErrNameTooLong
	}

	buf := make([]byte, BlockSize)
	for i := uint64(0); i < directory.Size/BlockSize; i++ {
		if err := fs.readInodeBlock(directory, i, buf); err != nil {
			return err
		}
		for slot := 0; slot < entriesPerBlock; slot++ {
			e := decodeDirEntry(buf, slot)
			if e.Inumber == 0 {
				e.Inumber = target.Inumber
				if err := e.setName(name); err != nil {
					return err
				}
				encodeDirEntry(buf, slot, e)
				if err := fs.writeInodeBlock(directory, i, buf); err != nil {
					return err
				}
				return fs.finishLink(directory, target)
			}
		}
	}

	for i := range buf {
		buf[i] = 0
	}
	var e dirEntry
	e.Inumber = target.Inumber
	if err := e.setName(name); err != nil {
		return err
	}
	encodeDirEntry(buf, 0, e)

	newBlock := directory.Size / BlockSize
	if err := fs.writeInodeBlock(directory, newBlock, buf); err != nil {
		return err
	}
	directory.Size += BlockSize

	return fs.finishLink(directory, target)
}

func (fs *FS) finishLink(directory, target *Inode) error {
	now := unixNow()
	directory.ModTime = now
	target.ChangeTime = now
	target.Links++

	if err := fs.writeInode(directory); err != nil {
		return err
	}
	return fs.writeInode(target)
}
