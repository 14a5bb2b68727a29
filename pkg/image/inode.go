package image

import "fmt"

const inodeSize = 1 + 1 + 2

// Inode is the fixed-size metadata record identifying a file or directory.
// The engine distinguishes files from directories solely by IsDir; there
// is no runtime polymorphism below the facade layer, so the table stays
// homogeneous and index lookups stay O(1).
type Inode struct {
	IsDir    bool
	RefCount uint8
	Head     uint16
}

// Inodes owns the fixed array of inode records.
type Inodes struct {
	nodes []Inode
}

// NewInodes allocates n zeroed inodes and marks inode 0 as the root
// directory, as produced by the empty-image synthesiser.
func NewInodes(n uint16) *Inodes {
	nodes := make([]Inode, n)
	if n > 0 {
		nodes[0] = Inode{IsDir: true, RefCount: 0, Head: 0}
	}
	return &Inodes{nodes: nodes}
}

// DecodeInodes reads n inodes from their on-disk form: is_dir, refcount,
// head_lo, head_hi, four bytes each.
func DecodeInodes(b []byte, n uint16) (*Inodes, []byte, error) {
	nodes := make([]Inode, n)
	for i := range nodes {
		if len(b) < inodeSize {
			return nil, nil, fmt.Errorf("decoding inode %d: need %d bytes, got %d", i, inodeSize, len(b))
		}
		nodes[i] = Inode{
			IsDir:    b[0] != 0,
			RefCount: b[1],
			Head:     decodeUint16(b[2], b[3]),
		}
		b = b[inodeSize:]
	}
	return &Inodes{nodes: nodes}, b, nil
}

// Encode appends every inode's on-disk form to dst in index order.
func (t *Inodes) Encode(dst []byte) []byte {
	for _, n := range t.nodes {
		var isDir byte
		if n.IsDir {
			isDir = 1
		}
		dst = append(dst, isDir, n.RefCount)
		dst = encodeUint16(n.Head, dst)
	}
	return dst
}

func (t *Inodes) at(i uint16) (*Inode, error) {
	if int(i) >= len(t.nodes) {
		return nil, newErr(Corrupt, "inode %d out of range", i)
	}
	return &t.nodes[i], nil
}

// Create publishes a brand-new inode at index i. Initial RefCount is 1 for
// files (the directory entry about to be recorded by the facade) and 0
// for directories — the facade must incref the new directory once, after
// it records the parent's entry, since directory creation publishes the
// inode before that entry exists.
func (t *Inodes) Create(i uint16, isDir bool, head uint16) error {
	n, err := t.at(i)
	if err != nil {
		return err
	}
	n.IsDir = isDir
	n.Head = head
	if isDir {
		n.RefCount = 0
	} else {
		n.RefCount = 1
	}
	return nil
}

// MemBlock returns the index of the head block of inode i's chain.
func (t *Inodes) MemBlock(i uint16) (uint16, error) {
	n, err := t.at(i)
	if err != nil {
		return 0, err
	}
	return n.Head, nil
}

// IsDir reports whether inode i is a directory.
func (t *Inodes) IsDir(i uint16) (bool, error) {
	n, err := t.at(i)
	if err != nil {
		return false, err
	}
	return n.IsDir, nil
}

// RefCount returns inode i's current reference count.
func (t *Inodes) RefCount(i uint16) (uint8, error) {
	n, err := t.at(i)
	if err != nil {
		return 0, err
	}
	return n.RefCount, nil
}

// Incref increments inode i's reference count.
func (t *Inodes) Incref(i uint16) error {
	n, err := t.at(i)
	if err != nil {
		return err
	}
	n.RefCount++
	return nil
}

// Decref decrements inode i's reference count. It fails with Corrupt if
// the count is already 0, which would indicate a double-free upstream.
func (t *Inodes) Decref(i uint16) error {
	n, err := t.at(i)
	if err != nil {
		return err
	}
	if n.RefCount == 0 {
		return newErr(Corrupt, "decref: inode %d already at refcount 0", i)
	}
	n.RefCount--
	return nil
}

// Reset clears inode i back to a freshly-freed state.
func (t *Inodes) Reset(i uint16) error {
	n, err := t.at(i)
	if err != nil {
		return err
	}
	*n = Inode{}
	return nil
}
