package image

// DirEnt is one decoded directory entry: a child name paired with the
// inode index it points to.
type DirEnt struct {
	Name string
	Ino  uint16
}

// DecodeDirEntries decodes a directory's raw payload into an ordered list
// of entries. Each record is a NUL-terminated name followed by a
// little-endian inode index. The reference C++ source stores
// "(char) inodes[i] >> 8" for the high byte, which is the low byte again
// by operator-precedence accident for any index >= 256; this decoder reads
// the intended little-endian value, and Encode below writes it correctly.
func DecodeDirEntries(payload []byte) []DirEnt {
	var entries []DirEnt
	i := 0
	for i < len(payload) {
		start := i
		for payload[i] != 0 {
			i++
		}
		name := string(payload[start:i])
		i++ // skip NUL
		ino := decodeUint16(payload[i], payload[i+1])
		i += 2
		entries = append(entries, DirEnt{Name: name, Ino: ino})
	}
	return entries
}

// EncodeDirEntries is the inverse of DecodeDirEntries.
func EncodeDirEntries(entries []DirEnt) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, []byte(e.Name)...)
		out = append(out, 0)
		out = encodeUint16(e.Ino, out)
	}
	return out
}

// LookupDirEntry returns the inode index of the first entry named name, or
// 0 if absent. 0 is safe as the "not found" sentinel because the root is
// never the target of a lookup from within any directory.
func LookupDirEntry(entries []DirEnt, name string) uint16 {
	for _, e := range entries {
		if e.Name == name {
			return e.Ino
		}
	}
	return 0
}

// AddDirEntry appends a new (name, inode) entry. It fails with
// AlreadyExists if name is already present.
func AddDirEntry(entries []DirEnt, name string, ino uint16) ([]DirEnt, error) {
	if LookupDirEntry(entries, name) != 0 {
		return nil, newErr(AlreadyExists, "entry %q already exists", name)
	}
	return append(entries, DirEnt{Name: name, Ino: ino}), nil
}

// RemoveDirEntry removes the entry named name. It fails with NotFound if
// absent.
func RemoveDirEntry(entries []DirEnt, name string) ([]DirEnt, error) {
	for i, e := range entries {
		if e.Name == name {
			out := make([]DirEnt, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			out = append(out, entries[i+1:]...)
			return out, nil
		}
	}
	return nil, newErr(NotFound, "entry %q not found", name)
}
