package sfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperblockRoundTrip(t *testing.T) {
	sb := Superblock{
		CreateTime:       1234567890,
		BlockSize:        BlockSize,
		InodeTableBlocks: 7,
		Inodes:           7 * inodesPerBlock,
		Blocks:           4096,
		FreeBlocksHead:   9,
		FreeInodeHead:    2,
	}

	data, err := sb.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, BlockSize)
	assert.True(t, hasValidSignature(data))

	var got Superblock
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, sb, got)
}

func TestInodeRoundTrip(t *testing.T) {
	ino := Inode{
		Inumber:    42,
		Mode:       ModeReg | 0644,
		Uid:        1000,
		Gid:        1000,
		Links:      1,
		AccessTime: 100,
		ModTime:    200,
		ChangeTime: 300,
		Size:       1536,
	}
	ino.BlockPointers[0] = 9
	ino.BlockPointers[3] = 17

	data, err := ino.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, inodeRecordSize)

	var got Inode
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, ino, got)
}

func TestInodeLocation(t *testing.T) {
	block, slot := inodeLocation(RootInumber)
	assert.Equal(t, uint64(1), block)
	assert.Equal(t, 0, slot)

	block, slot = inodeLocation(4)
	assert.Equal(t, uint64(2), block)
	assert.Equal(t, 0, slot)

	block, slot = inodeLocation(inodesPerBlock + 1)
	assert.Equal(t, uint64(2), block)
	assert.Equal(t, 0, slot)
}

// formatted returns an FS formatted over a fresh sizeBytes-byte diskfile.
func formatted(t *testing.T, sizeBytes int64) *FS {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "sfs-internal-*")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, PreallocateDisk(f, sizeBytes))

	fsys, err := Format(f)
	require.NoError(t, err)
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func TestFormatOneMebibyte(t *testing.T) {
	fsys := formatted(t, 1<<20)

	sb := fsys.Superblock()
	wantBlocks := uint64(1 << 20 / BlockSize)
	assert.Equal(t, wantBlocks, sb.Blocks)
	assert.Equal(t, (wantBlocks-1)/16, sb.InodeTableBlocks)
	assert.Equal(t, sb.InodeTableBlocks*inodesPerBlock, sb.Inodes)
	assert.Equal(t, uint64(2), sb.FreeInodeHead)
	assert.Equal(t, 1+sb.InodeTableBlocks, sb.FreeBlocksHead)

	root, err := fsys.readInode(RootInumber)
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.EqualValues(t, 1, root.Links)
}

func TestFreeBlockAllocateFreeRoundTrip(t *testing.T) {
	fsys := formatted(t, 64*1024)

	var allocated []uint64
	for i := 0; i < 20; i++ {
		b, err := fsys.allocateBlock()
		require.NoError(t, err)
		assert.NotContains(t, allocated, b, "block handed out twice")
		allocated = append(allocated, b)
	}

	for _, b := range allocated {
		require.NoError(t, fsys.freeBlock(b))
	}

	var reallocated []uint64
	for i := 0; i < 20; i++ {
		b, err := fsys.allocateBlock()
		require.NoError(t, err)
		reallocated = append(reallocated, b)
	}

	assert.ElementsMatch(t, allocated, reallocated, "freeing and reallocating the same count should hand back the same set of blocks")
}

func TestFreeBlocksExhausted(t *testing.T) {
	fsys := formatted(t, 3*BlockSize+BlockSize) // minimal disk, almost no data blocks

	var n int
	for {
		_, err := fsys.allocateBlock()
		if err != nil {
			assert.ErrorIs(t, err, ErrOutOfBlocks)
			break
		}
		n++
		if n > 1000 {
			t.Fatal("allocateBlock never exhausted")
		}
	}
}

func TestFreeInodeAllocateDeallocateRoundTrip(t *testing.T) {
	fsys := formatted(t, 256*1024)

	var allocated []uint64
	for i := 0; i < 10; i++ {
		ino, err := fsys.allocateInode()
		require.NoError(t, err)
		allocated = append(allocated, ino.Inumber)
	}

	for _, inumber := range allocated {
		ino, err := fsys.readInode(inumber)
		require.NoError(t, err)
		require.NoError(t, fsys.deallocateInode(ino))
	}

	var reallocated []uint64
	for i := 0; i < 10; i++ {
		ino, err := fsys.allocateInode()
		require.NoError(t, err)
		reallocated = append(reallocated, ino.Inumber)
	}

	assert.ElementsMatch(t, allocated, reallocated)
}

func TestWriteInodeBlockSparseZeroFill(t *testing.T) {
	fsys := formatted(t, 256*1024)

	ino, err := fsys.allocateInode()
	require.NoError(t, err)
	ino.Mode = ModeReg | 0644
	require.NoError(t, fsys.writeInode(ino))

	// Never written: blockNumberFor returns the sparse-hole sentinel.
	blockNum, err := fsys.blockNumberFor(ino, 0)
	require.NoError(t, err)
	assert.Zero(t, blockNum)

	buf := make([]byte, BlockSize)
	require.NoError(t, fsys.readInodeBlock(ino, 0, buf))
	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestDirEntryNameRoundTrip(t *testing.T) {
	var e dirEntry
	require.NoError(t, e.setName("hello.txt"))
	assert.Equal(t, "hello.txt", e.nameString())

	block := make([]byte, BlockSize)
	encodeDirEntry(block, 0, e)
	got := decodeDirEntry(block, 0)
	assert.Equal(t, e, got)
}

func TestDirEntrySetNameTooLong(t *testing.T) {
	var e dirEntry
	long := make([]byte, maxNameLen)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, e.setName(string(long)), ErrNameTooLong)
}
