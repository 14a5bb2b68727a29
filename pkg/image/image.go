package image

import "fmt"

// MakeEmpty synthesises a brand-new image with n inode slots and n data
// blocks. The two counts are always equal: the reference format ties one
// inode bitmap slot to one block bitmap slot, which is what keeps the
// on-disk size at exactly 59n + 4 bytes (two (n+2)-byte bitmaps, an
// n*4-byte inode table, and an n*53-byte block table). Slot 0 of every
// table is reserved for the root directory.
func MakeEmpty(n uint16) *FileSystem {
	return &FileSystem{
		InodeAlloc: NewBitmap(n),
		BlockAlloc: NewBitmap(n),
		Inodes:     NewInodes(n),
		Blocks:     NewBlocks(n),
	}
}

// Dump serialises the whole image to its on-disk byte form: the inode
// bitmap, then the inode table, then the block bitmap, then the block
// table, with no padding between or within any of them — the same order
// the reference implementation's write_manager/write_inodes/write_manager/
// write_memory_blocks calls dump the four sections in.
func (fs *FileSystem) Dump() []byte {
	var out []byte
	out = fs.InodeAlloc.Encode(out)
	out = fs.Inodes.Encode(out)
	out = fs.BlockAlloc.Encode(out)
	out = fs.Blocks.Encode(out)
	return out
}

// Load parses an image from its on-disk byte form, the inverse of Dump.
// It fails with Corrupt if the buffer is truncated or has trailing bytes,
// or if the two bitmaps disagree on slot count (they are always written
// with the same count, so a mismatch means the bytes are not a valid
// image for this format).
func Load(b []byte) (*FileSystem, error) {
	inodeAlloc, rest, err := DecodeBitmap(b)
	if err != nil {
		return nil, wrapErr(Corrupt, err, "decoding inode bitmap")
	}
	n := inodeAlloc.Size()

	inodes, rest, err := DecodeInodes(rest, n)
	if err != nil {
		return nil, wrapErr(Corrupt, err, "decoding inode table")
	}

	blockAlloc, rest, err := DecodeBitmap(rest)
	if err != nil {
		return nil, wrapErr(Corrupt, err, "decoding block bitmap")
	}
	if blockAlloc.Size() != n {
		return nil, newErr(Corrupt, "inode bitmap has %d slots but block bitmap has %d", n, blockAlloc.Size())
	}

	blocks, rest, err := DecodeBlocks(rest, n)
	if err != nil {
		return nil, wrapErr(Corrupt, err, "decoding block table")
	}
	if len(rest) != 0 {
		return nil, newErr(Corrupt, "image has %d trailing bytes", len(rest))
	}

	return &FileSystem{
		InodeAlloc: inodeAlloc,
		BlockAlloc: blockAlloc,
		Inodes:     inodes,
		Blocks:     blocks,
	}, nil
}

// Size returns the exact on-disk byte size of an image with n slots:
// 59n + 4, matching two (n+2)-byte bitmaps, an n*4-byte inode table, and
// an n*53-byte block table.
func Size(n uint16) int {
	return 59*int(n) + 4
}

func (fs *FileSystem) String() string {
	iTotal, iFree := fs.InodeAlloc.Info()
	bTotal, bFree := fs.BlockAlloc.Info()
	return fmt.Sprintf("image{inodes: %d/%d free, blocks: %d/%d free}", iFree, iTotal, bFree, bTotal)
}
