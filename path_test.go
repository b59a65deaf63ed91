package sfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatNameRoot(t *testing.T) {
	name, isRoot, err := flatName("/")
	assert.NoError(t, err)
	assert.True(t, isRoot)
	assert.Empty(t, name)
}

func TestFlatNameSimple(t *testing.T) {
	name, isRoot, err := flatName("/foo.txt")
	assert.NoError(t, err)
	assert.False(t, isRoot)
	assert.Equal(t, "foo.txt", name)
}

func TestFlatNameRejectsNested(t *testing.T) {
	_, _, err := flatName("/a/b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlatNameRejectsRelative(t *testing.T) {
	_, _, err := flatName("relative")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlatNameTooLong(t *testing.T) {
	_, _, err := flatName("/" + strings.Repeat("x", 256))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestSuperblockValidateRejectsBadInodeCount(t *testing.T) {
	sb := Superblock{InodeTableBlocks: 2, Inodes: 999, Blocks: 100}
	assert.ErrorIs(t, sb.Validate(), ErrInvalidSuperblock)
}

func TestSuperblockValidateAccepts(t *testing.T) {
	sb := Superblock{
		InodeTableBlocks: 2,
		Inodes:           2 * inodesPerBlock,
		Blocks:           100,
		FreeInodeHead:    2,
		FreeBlocksHead:   5,
	}
	assert.NoError(t, sb.Validate())
}
