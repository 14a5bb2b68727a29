package image

import "fmt"

// RootIno and RootHead are the reserved slot-0 identities of the root
// directory. They are never allocated, never freed, and never targeted by
// a directory lookup from within another directory (0 doubles as the
// "not found" sentinel for exactly that reason).
const (
	RootIno  uint16 = 0
	RootHead uint16 = 0
)

// FileSystem is the facade: the only component that mutates more than one
// of the lower layers in a single operation. It exclusively owns the two
// allocators, the inode table, and the block store; callers never see
// those directly.
type FileSystem struct {
	InodeAlloc *Bitmap
	BlockAlloc *Bitmap
	Inodes     *Inodes
	Blocks     *Blocks
}

// dir is a value-typed snapshot of one directory: its own identity plus
// its decoded entries. It has no aliasing back into the store — every
// mutation is explicitly written back with writeDir.
type dir struct {
	ino     uint16
	head    uint16
	entries []DirEnt
}

func (fs *FileSystem) readDir(ino uint16) (*dir, error) {
	isDir, err := fs.Inodes.IsDir(ino)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, newErr(NotADirectory, "inode %d is not a directory", ino)
	}
	head, err := fs.Inodes.MemBlock(ino)
	if err != nil {
		return nil, err
	}
	payload, err := fs.Blocks.ReadChain(head)
	if err != nil {
		return nil, err
	}
	return &dir{ino: ino, head: head, entries: DecodeDirEntries(payload)}, nil
}

func (fs *FileSystem) writeDir(d *dir) error {
	return fs.reshapeAndFlush(d.head, EncodeDirEntries(d.entries))
}

// reshapeAndFlush grows or shrinks the chain at head to fit payload, then
// writes it. Growing allocates new tail blocks one at a time until the
// chain's capacity covers payload; shrinking pops whole trailing blocks
// that are pure waste. This is what guarantees invariant (6): a chain
// never carries more than one fully-unused trailing block.
//
// Growth is not transactional: if the block allocator is exhausted
// mid-extension, the chain is left partially grown and the caller sees
// OutOfBlocks. A future revision could snapshot the tail and roll back on
// failure instead of leaving the partial extension in place.
func (fs *FileSystem) reshapeAndFlush(head uint16, payload []byte) error {
	capacity, err := fs.Blocks.Capacity(head)
	if err != nil {
		return err
	}
	need := uint32(len(payload))
	for need > capacity {
		blk := fs.BlockAlloc.GetFree()
		if blk == 0 {
			return newErr(OutOfBlocks, "no free blocks remain to extend chain at %d", head)
		}
		if err := fs.BlockAlloc.MarkUsed(blk); err != nil {
			return err
		}
		if err := fs.Blocks.AppendBlock(head, blk); err != nil {
			return err
		}
		capacity += blockPayload
	}
	for need < capacity-blockPayload {
		freed, err := fs.Blocks.PopBlock(head)
		if err != nil {
			return err
		}
		if err := fs.BlockAlloc.Free(freed); err != nil {
			return err
		}
		capacity -= blockPayload
	}
	return fs.Blocks.WriteChain(head, payload)
}

// resolve is the path walker. Starting from the root, it follows segments
// one at a time; a missing segment is silently materialised as a new
// sub-directory (the auto-create contract every write-side operation
// relies on), and a segment that names a regular file is a fatal
// NotADirectory.
func (fs *FileSystem) resolve(segments []string) (*dir, error) {
	d, err := fs.readDir(RootIno)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		ino := LookupDirEntry(d.entries, seg)
		if ino == 0 {
			ino, err = fs.addNewFile(d, seg, true)
			if err != nil {
				return nil, err
			}
			if err := fs.writeDir(d); err != nil {
				return nil, err
			}
		}
		isDir, err := fs.Inodes.IsDir(ino)
		if err != nil {
			return nil, err
		}
		if !isDir {
			return nil, newErr(NotADirectory, "path component %q is a file", seg)
		}
		d, err = fs.readDir(ino)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// addNewFile allocates an inode index and a head block, marks both used,
// creates the inode, and records the new entry in d (in memory only — the
// caller persists d). The name-collision check happens before anything is
// allocated, so a duplicate name leaves allocator state untouched.
func (fs *FileSystem) addNewFile(d *dir, name string, isDir bool) (uint16, error) {
	if LookupDirEntry(d.entries, name) != 0 {
		return 0, newErr(AlreadyExists, "entry %q already exists", name)
	}

	inoIdx := fs.InodeAlloc.GetFree()
	if inoIdx == 0 {
		return 0, newErr(OutOfInodes, "no free inodes remain")
	}
	blkIdx := fs.BlockAlloc.GetFree()
	if blkIdx == 0 {
		return 0, newErr(OutOfBlocks, "no free blocks remain")
	}

	if err := fs.InodeAlloc.MarkUsed(inoIdx); err != nil {
		return 0, err
	}
	if err := fs.BlockAlloc.MarkUsed(blkIdx); err != nil {
		return 0, err
	}
	if err := fs.Inodes.Create(inoIdx, isDir, blkIdx); err != nil {
		return 0, err
	}

	entries, err := AddDirEntry(d.entries, name, inoIdx)
	if err != nil {
		return 0, err
	}
	d.entries = entries

	// The parent gained a child entry.
	if err := fs.Inodes.Incref(d.ino); err != nil {
		return 0, err
	}
	// A freshly-created directory's own refcount tracks (children + 1 for
	// the parent's link). It starts at 0 because the inode is published
	// before the parent's entry exists; this is the one place that debt
	// is paid back.
	if isDir {
		if err := fs.Inodes.Incref(inoIdx); err != nil {
			return 0, err
		}
	}
	return inoIdx, nil
}

// Touch creates an empty regular file named name inside parent, auto-
// creating any missing intermediate directories.
func (fs *FileSystem) Touch(parent []string, name string) error {
	d, err := fs.resolve(parent)
	if err != nil {
		return err
	}
	if _, err := fs.addNewFile(d, name, false); err != nil {
		return err
	}
	return fs.writeDir(d)
}

// Mkdir creates an empty directory named name inside parent, auto-creating
// any missing intermediate directories.
func (fs *FileSystem) Mkdir(parent []string, name string) error {
	d, err := fs.resolve(parent)
	if err != nil {
		return err
	}
	if _, err := fs.addNewFile(d, name, true); err != nil {
		return err
	}
	return fs.writeDir(d)
}

// lookupFile resolves parent, looks up name, and fails unless the entry
// exists and is a regular file.
func (fs *FileSystem) lookupFile(parent []string, name string) (*dir, uint16, uint16, error) {
	d, err := fs.resolve(parent)
	if err != nil {
		return nil, 0, 0, err
	}
	ino := LookupDirEntry(d.entries, name)
	if ino == 0 {
		return nil, 0, 0, newErr(NotFound, "%q not found in %s", name, JoinPath(parent))
	}
	isDir, err := fs.Inodes.IsDir(ino)
	if err != nil {
		return nil, 0, 0, err
	}
	if isDir {
		return nil, 0, 0, newErr(IsADirectory, "%q is a directory", name)
	}
	head, err := fs.Inodes.MemBlock(ino)
	if err != nil {
		return nil, 0, 0, err
	}
	return d, ino, head, nil
}

// Write appends data to the end of the file named name inside parent.
func (fs *FileSystem) Write(parent []string, name string, data []byte) error {
	_, _, head, err := fs.lookupFile(parent, name)
	if err != nil {
		return err
	}
	payload, err := fs.Blocks.ReadChain(head)
	if err != nil {
		return err
	}
	payload = append(payload, data...)
	return fs.reshapeAndFlush(head, payload)
}

// Cut drops the trailing n bytes of the file named name inside parent. If
// n is at least the file's length, the payload becomes empty.
func (fs *FileSystem) Cut(parent []string, name string, n uint32) error {
	_, _, head, err := fs.lookupFile(parent, name)
	if err != nil {
		return err
	}
	payload, err := fs.Blocks.ReadChain(head)
	if err != nil {
		return err
	}
	if n >= uint32(len(payload)) {
		payload = payload[:0]
	} else {
		payload = payload[:uint32(len(payload))-n]
	}
	return fs.reshapeAndFlush(head, payload)
}

// Get returns the raw payload bytes of the file named name inside parent.
func (fs *FileSystem) Get(parent []string, name string) ([]byte, error) {
	_, _, head, err := fs.lookupFile(parent, name)
	if err != nil {
		return nil, err
	}
	return fs.Blocks.ReadChain(head)
}

// Erase removes the entry named name from parent. A non-empty directory
// cannot be erased. Whichever kind the target is, erasing it always
// removes exactly one incoming reference (the entry about to be deleted);
// for a file that is one of its hard links, for a directory it is the
// parent's own link — upholding the refcount invariant for both kinds
// rather than letting directories drift, as the reference C++
// implementation did.
func (fs *FileSystem) Erase(parent []string, name string) error {
	d, err := fs.resolve(parent)
	if err != nil {
		return err
	}
	ino := LookupDirEntry(d.entries, name)
	if ino == 0 {
		return newErr(NotFound, "%q not found in %s", name, JoinPath(parent))
	}

	isDir, err := fs.Inodes.IsDir(ino)
	if err != nil {
		return err
	}
	if isDir {
		target, err := fs.readDir(ino)
		if err != nil {
			return err
		}
		if len(target.entries) > 0 {
			return newErr(NotEmpty, "directory %q is not empty", name)
		}
	}

	if err := fs.Inodes.Decref(ino); err != nil {
		return err
	}
	rc, err := fs.Inodes.RefCount(ino)
	if err != nil {
		return err
	}
	if rc == 0 {
		head, err := fs.Inodes.MemBlock(ino)
		if err != nil {
			return err
		}
		freed, err := fs.Blocks.FreeChain(head)
		if err != nil {
			return err
		}
		for _, b := range freed {
			if err := fs.BlockAlloc.Free(b); err != nil {
				return err
			}
		}
		if err := fs.InodeAlloc.Free(ino); err != nil {
			return err
		}
		if err := fs.Inodes.Reset(ino); err != nil {
			return err
		}
	}

	entries, err := RemoveDirEntry(d.entries, name)
	if err != nil {
		return err
	}
	d.entries = entries
	if err := fs.writeDir(d); err != nil {
		return err
	}
	return fs.Inodes.Decref(d.ino)
}

// Link creates a new hard link dstName inside dstParent pointing at the
// regular file srcName inside srcParent. Hard-linking a directory is
// rejected.
func (fs *FileSystem) Link(srcParent []string, srcName string, dstParent []string, dstName string) error {
	srcDir, err := fs.resolve(srcParent)
	if err != nil {
		return err
	}
	srcIno := LookupDirEntry(srcDir.entries, srcName)
	if srcIno == 0 {
		return newErr(NotFound, "%q not found in %s", srcName, JoinPath(srcParent))
	}
	isDir, err := fs.Inodes.IsDir(srcIno)
	if err != nil {
		return err
	}
	if isDir {
		return newErr(IsADirectory, "cannot hard-link directory %q", srcName)
	}

	dstDir, err := fs.resolve(dstParent)
	if err != nil {
		return err
	}
	entries, err := AddDirEntry(dstDir.entries, dstName, srcIno)
	if err != nil {
		return err
	}
	dstDir.entries = entries

	if err := fs.Inodes.Incref(dstDir.ino); err != nil {
		return err
	}
	if err := fs.Inodes.Incref(srcIno); err != nil {
		return err
	}
	return fs.writeDir(dstDir)
}

// AllocatorInfo reports the total/free counts for both bitmap allocators.
func (fs *FileSystem) AllocatorInfo() *AllocatorReport {
	iTotal, iFree := fs.InodeAlloc.Info()
	bTotal, bFree := fs.BlockAlloc.Info()
	return &AllocatorReport{
		Inodes: AllocStat{Total: iTotal, Free: iFree},
		Blocks: AllocStat{Total: bTotal, Free: bFree},
	}
}

// dirTotalSize mirrors the reference implementation's recursive directory
// size: the directory's own encoded entry bytes, plus, for every child,
// either the child file's payload length or the child directory's own
// total size.
func (fs *FileSystem) dirTotalSize(ino uint16) (uint64, error) {
	d, err := fs.readDir(ino)
	if err != nil {
		return 0, err
	}
	size := uint64(len(EncodeDirEntries(d.entries)))
	for _, e := range d.entries {
		isDir, err := fs.Inodes.IsDir(e.Ino)
		if err != nil {
			return 0, err
		}
		if isDir {
			sub, err := fs.dirTotalSize(e.Ino)
			if err != nil {
				return 0, err
			}
			size += sub
		} else {
			head, err := fs.Inodes.MemBlock(e.Ino)
			if err != nil {
				return 0, err
			}
			content, err := fs.Blocks.ReadChain(head)
			if err != nil {
				return 0, err
			}
			size += uint64(len(content))
		}
	}
	return size, nil
}

// Info resolves parent and, if name is non-empty, looks it up inside it;
// an empty name targets parent itself (used for reporting on the root).
// It returns sizes and, for directories, one entry per immediate child.
func (fs *FileSystem) Info(parent []string, name string) (*Report, error) {
	d, err := fs.resolve(parent)
	if err != nil {
		return nil, err
	}
	ino := d.ino
	path := JoinPath(parent)
	if name != "" {
		ino = LookupDirEntry(d.entries, name)
		if ino == 0 {
			return nil, newErr(NotFound, "%q not found in %s", name, path)
		}
		path = JoinPath(append(append([]string{}, parent...), name))
	}

	isDir, err := fs.Inodes.IsDir(ino)
	if err != nil {
		return nil, err
	}
	if !isDir {
		head, err := fs.Inodes.MemBlock(ino)
		if err != nil {
			return nil, err
		}
		content, err := fs.Blocks.ReadChain(head)
		if err != nil {
			return nil, err
		}
		return &Report{Path: path, IsDir: false, SizeBytes: uint64(len(content))}, nil
	}

	target, err := fs.readDir(ino)
	if err != nil {
		return nil, err
	}
	size, err := fs.dirTotalSize(ino)
	if err != nil {
		return nil, err
	}
	report := &Report{Path: path, IsDir: true, SizeBytes: size}
	for _, e := range target.entries {
		childIsDir, err := fs.Inodes.IsDir(e.Ino)
		if err != nil {
			return nil, err
		}
		var childSize uint64
		if childIsDir {
			childSize, err = fs.dirTotalSize(e.Ino)
		} else {
			var head uint16
			head, err = fs.Inodes.MemBlock(e.Ino)
			if err == nil {
				var content []byte
				content, err = fs.Blocks.ReadChain(head)
				childSize = uint64(len(content))
			}
		}
		if err != nil {
			return nil, err
		}
		report.Children = append(report.Children, ChildReport{
			Name:      e.Name,
			IsDir:     childIsDir,
			SizeBytes: childSize,
		})
	}
	return report, nil
}

// Cat renders a file's content as text, or a directory's immediate child
// names, one per line — matching the reference dispatcher's "cat" command,
// which prints file content verbatim and directory listings name-by-name.
func (fs *FileSystem) Cat(parent []string, name string) (string, error) {
	d, err := fs.resolve(parent)
	if err != nil {
		return "", err
	}
	ino := d.ino
	if name != "" {
		ino = LookupDirEntry(d.entries, name)
		if ino == 0 {
			return "", newErr(NotFound, "%q not found in %s", name, JoinPath(parent))
		}
	}
	isDir, err := fs.Inodes.IsDir(ino)
	if err != nil {
		return "", err
	}
	if !isDir {
		head, err := fs.Inodes.MemBlock(ino)
		if err != nil {
			return "", err
		}
		content, err := fs.Blocks.ReadChain(head)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	target, err := fs.readDir(ino)
	if err != nil {
		return "", err
	}
	var out string
	for _, e := range target.entries {
		out += e.Name + "\n"
	}
	return out, nil
}

// checkInvariants is a debugging aid exercised by the test suite: it walks
// the tree from the root and fails if any block is reachable from more than
// one chain. It does not check refcounts and does not compare the reachable
// blocks or inodes against the allocators' used sets. It never mutates
// state.
func (fs *FileSystem) checkInvariants() error {
	var walk func(ino uint16) error
	seenBlocks := map[uint16]bool{}
	seenFileInodes := map[uint16]bool{}
	walk = func(ino uint16) error {
		d, err := fs.readDir(ino)
		if err != nil {
			return err
		}
		head, err := fs.Inodes.MemBlock(ino)
		if err != nil {
			return err
		}
		if err := fs.markChain(head, seenBlocks); err != nil {
			return err
		}
		for _, e := range d.entries {
			isDir, err := fs.Inodes.IsDir(e.Ino)
			if err != nil {
				return err
			}
			if isDir {
				if err := walk(e.Ino); err != nil {
					return err
				}
				continue
			}
			// A file inode legitimately has more than one directory entry
			// pointing at it (hard links), so its chain is only marked the
			// first time it is reached.
			if seenFileInodes[e.Ino] {
				continue
			}
			seenFileInodes[e.Ino] = true
			fhead, err := fs.Inodes.MemBlock(e.Ino)
			if err != nil {
				return err
			}
			if err := fs.markChain(fhead, seenBlocks); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(RootIno)
}

func (fs *FileSystem) markChain(head uint16, seen map[uint16]bool) error {
	cur := head
	for {
		if seen[cur] {
			return fmt.Errorf("block %d reachable from more than one chain", cur)
		}
		seen[cur] = true
		blk, err := fs.Blocks.at(cur)
		if err != nil {
			return err
		}
		if blk.Next == 0 {
			return nil
		}
		cur = blk.Next
	}
}
