package image

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"time"
)

// FS adapts a FileSystem into the standard library's io/fs interfaces, so
// an image can be walked, read, and statted with fs.WalkDir, fs.ReadFile,
// and fs.Glob without exposing the facade's inode/block machinery. Unlike
// every facade operation, FS never auto-creates a missing path component:
// a lookup miss is always ErrNotExist.
type FS struct {
	fs *FileSystem
}

// NewFS wraps fsys for read-only access through io/fs.
func NewFS(fsys *FileSystem) *FS {
	return &FS{fs: fsys}
}

var (
	_ fs.FS        = (*FS)(nil)
	_ fs.ReadDirFS = (*FS)(nil)
	_ fs.StatFS    = (*FS)(nil)
)

// resolveReadOnly is resolve's sibling for the adapter: it walks segments
// from the root but fails NotFound on a missing component instead of
// materialising one.
func (a *FS) resolveReadOnly(segments []string) (*dir, error) {
	d, err := a.fs.readDir(RootIno)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		ino := LookupDirEntry(d.entries, seg)
		if ino == 0 {
			return nil, newErr(NotFound, "%q not found", seg)
		}
		isDir, err := a.fs.Inodes.IsDir(ino)
		if err != nil {
			return nil, err
		}
		if !isDir {
			return nil, newErr(NotADirectory, "path component %q is a file", seg)
		}
		d, err = a.fs.readDir(ino)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func toFSErr(err error) error {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	}
	if e == nil {
		return err
	}
	switch e.Kind {
	case NotFound:
		return fs.ErrNotExist
	case NotADirectory, IsADirectory:
		return fs.ErrInvalid
	default:
		return err
	}
}

// locate finds the inode and directory-ness of name, which must already
// be a valid io/fs path ("." or a clean slash-separated relative path).
func (a *FS) locate(name string) (ino uint16, isDir bool, err error) {
	if name == "." {
		return RootIno, true, nil
	}
	segments := strings.Split(name, "/")
	parent, leaf := segments[:len(segments)-1], segments[len(segments)-1]
	d, derr := a.resolveReadOnly(parent)
	if derr != nil {
		return 0, false, derr
	}
	childIno := LookupDirEntry(d.entries, leaf)
	if childIno == 0 {
		return 0, false, newErr(NotFound, "%q not found", leaf)
	}
	isDirChild, ierr := a.fs.Inodes.IsDir(childIno)
	if ierr != nil {
		return 0, false, ierr
	}
	return childIno, isDirChild, nil
}

// Open implements fs.FS.
func (a *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	ino, isDir, err := a.locate(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: toFSErr(err)}
	}
	if isDir {
		d, derr := a.fs.readDir(ino)
		if derr != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: toFSErr(derr)}
		}
		entries, eerr := a.dirEntries(d)
		if eerr != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: toFSErr(eerr)}
		}
		return &openDir{info: a.fileInfoFor(baseName(name), ino, true), entries: entries}, nil
	}
	head, herr := a.fs.Inodes.MemBlock(ino)
	if herr != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: toFSErr(herr)}
	}
	content, cerr := a.fs.Blocks.ReadChain(head)
	if cerr != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: toFSErr(cerr)}
	}
	return &openFile{info: a.fileInfoFor(baseName(name), ino, false), r: bytes.NewReader(content)}, nil
}

// Stat implements fs.StatFS.
func (a *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	ino, isDir, err := a.locate(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: toFSErr(err)}
	}
	return a.fileInfoFor(baseName(name), ino, isDir), nil
}

// ReadDir implements fs.ReadDirFS.
func (a *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	ino, isDir, err := a.locate(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: toFSErr(err)}
	}
	if !isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	d, derr := a.fs.readDir(ino)
	if derr != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: toFSErr(derr)}
	}
	return a.dirEntries(d)
}

func (a *FS) dirEntries(d *dir) ([]fs.DirEntry, error) {
	out := make([]fs.DirEntry, 0, len(d.entries))
	for _, e := range d.entries {
		isDir, err := a.fs.Inodes.IsDir(e.Ino)
		if err != nil {
			return nil, err
		}
		out = append(out, dirEntry{info: a.fileInfoFor(e.Name, e.Ino, isDir)})
	}
	return out, nil
}

func (a *FS) fileInfoFor(name string, ino uint16, isDir bool) fileInfo {
	var size int64
	if isDir {
		if total, err := a.fs.dirTotalSize(ino); err == nil {
			size = int64(total)
		}
	} else if head, err := a.fs.Inodes.MemBlock(ino); err == nil {
		if content, err := a.fs.Blocks.ReadChain(head); err == nil {
			size = int64(len(content))
		}
	}
	return fileInfo{name: name, size: size, isDir: isDir}
}

func baseName(name string) string {
	if name == "." {
		return "."
	}
	i := strings.LastIndexByte(name, '/')
	return name[i+1:]
}

// fileInfo implements fs.FileInfo. The image format has no timestamps, so
// ModTime always reports the zero time.
type fileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return i.isDir }
func (i fileInfo) Sys() interface{}   { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0555
	}
	return 0444
}

// dirEntry implements fs.DirEntry atop fileInfo.
type dirEntry struct {
	info fileInfo
}

func (e dirEntry) Name() string               { return e.info.Name() }
func (e dirEntry) IsDir() bool                { return e.info.IsDir() }
func (e dirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e dirEntry) Info() (fs.FileInfo, error) { return e.info, nil }

// openFile implements fs.File for a regular file.
type openFile struct {
	info fileInfo
	r    *bytes.Reader
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *openFile) Close() error               { return nil }

// openDir implements fs.ReadDirFile for a directory.
type openDir struct {
	info    fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *openDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *openDir) Close() error               { return nil }

func (d *openDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := len(d.entries) - d.offset
	if n <= 0 {
		out := d.entries[d.offset:]
		d.offset = len(d.entries)
		return out, nil
	}
	if remaining == 0 {
		return nil, io.EOF
	}
	if n > remaining {
		n = remaining
	}
	out := d.entries[d.offset : d.offset+n]
	d.offset += n
	return out, nil
}
