package sfs

import "encoding/binary"

// Free data blocks are tracked by a chain of index nodes: the first free
// block is itself an index node, slot 0 of which points to the next index
// node (0 terminates the chain) and slots 1..indexSlotsPerBlock-1 each
// hold either a free block number or 0. Allocating pulls one non-zero
// slot out of the head node; when a node's slots are all empty, the node
// itself is handed out as the allocated block and the chain advances.

// allocateBlock pops one free block number off the free-block chain and
// returns it, zeroing nothing — callers that need a clean block must zero
// it themselves (the inode block map always writes a full block buffer,
// so stale contents never show through). Callers must hold fs.mu.
func (fs *FS) allocateBlock() (uint64, error) {
	node := fs.sb.FreeBlocksHead
	if node == 0 {
		return 0, ErrOutOfBlocks
	}

	index := make([]byte, BlockSize)
	if _, err := blockRead(fs.disk, node, index); err != nil {
		return 0, err
	}
	slots := decodeIndexSlots(index)

	for i := 1; i < indexSlotsPerBlock; i++ {
		if slots[i] != 0 {
			found := slots[i]
			slots[i] = 0
			encodeIndexSlots(index, slots)
			if err := blockWrite(fs.disk, node, index); err != nil {
				return 0, err
			}
			return found, nil
		}
	}

	// No free slot in this index node: the node itself becomes the
	// allocated block, and the chain head advances to whatever it
	// pointed at.
	fs.sb.FreeBlocksHead = slots[0]
	if err := fs.writeSuperblock(); err != nil {
		return 0, err
	}
	return node, nil
}

// freeBlock returns blockNum to the free-block chain: it is threaded into
// the first open slot found walking the chain from its head, or appended
// as a brand new tail node if the whole chain is full. Callers must hold
// fs.mu.
func (fs *FS) freeBlock(blockNum uint64) error {
	if fs.sb.FreeBlocksHead == 0 {
		zero := make([]byte, BlockSize)
		if err := blockWrite(fs.disk, blockNum, zero); err != nil {
			return err
		}
		fs.sb.FreeBlocksHead = blockNum
		return fs.writeSuperblock()
	}

	index := make([]byte, BlockSize)
	node := fs.sb.FreeBlocksHead
	var prevNode uint64

	for node != 0 {
		if _, err := blockRead(fs.disk, node, index); err != nil {
			return err
		}
		slots := decodeIndexSlots(index)

		for i := 1; i < indexSlotsPerBlock; i++ {
			if slots[i] == 0 {
				slots[i] = blockNum
				encodeIndexSlots(index, slots)
				return blockWrite(fs.disk, node, index)
			}
		}

		prevNode = node
		node = slots[0]
	}

	// Every node in the chain is full: append blockNum as a new tail node.
	slots := decodeIndexSlots(index)
	slots[0] = blockNum
	encodeIndexSlots(index, slots)
	if err := blockWrite(fs.disk, prevNode, index); err != nil {
		return err
	}

	zero := make([]byte, BlockSize)
	return blockWrite(fs.disk, blockNum, zero)
}

func decodeIndexSlots(block []byte) [indexSlotsPerBlock]uint64 {
	var slots [indexSlotsPerBlock]uint64
	for i := range slots {
		slots[i] = binary.LittleEndian.Uint64(block[i*8 : i*8+8])
	}
	return slots
}

func encodeIndexSlots(block []byte, slots [indexSlotsPerBlock]uint64) {
	for i, v := range slots {
		binary.LittleEndian.PutUint64(block[i*8:i*8+8], v)
	}
}
