package image

import "fmt"

// blockPayload is the number of usable payload bytes in a single data
// block. It is the one size constant the whole image format is built
// around.
const blockPayload = 50

// statusFree and statusUsed are the on-disk byte values for a bitmap slot.
// They are stored as their ASCII character, not as a packed bit, matching
// the image's byte-per-slot allocator bitmap.
const (
	statusFree byte = '1'
	statusUsed byte = '0'
)

// Bitmap is a free-slot tracker shared by the inode and block allocators.
// Status byte 0 corresponds to slot 0, and so on; slot 0 is always reserved for the
// root and is never handed out by GetFree.
type Bitmap struct {
	status    []byte
	firstFree uint16
}

// NewBitmap builds a bitmap of n slots with slot 0 reserved (used) and
// every other slot free, as produced by the empty-image synthesiser.
func NewBitmap(n uint16) *Bitmap {
	status := make([]byte, n)
	for i := range status {
		status[i] = statusFree
	}
	if n > 0 {
		status[0] = statusUsed
	}
	return &Bitmap{status: status, firstFree: 1}
}

// DecodeBitmap reads a bitmap from its on-disk form: a 16-bit little-endian
// slot count followed by that many status bytes.
func DecodeBitmap(b []byte) (*Bitmap, []byte, error) {
	if len(b) < 2 {
		return nil, nil, fmt.Errorf("decoding bitmap: need 2 bytes for size, got %d", len(b))
	}
	n := decodeUint16(b[0], b[1])
	b = b[2:]
	if len(b) < int(n) {
		return nil, nil, fmt.Errorf("decoding bitmap: need %d status bytes, got %d", n, len(b))
	}
	status := make([]byte, n)
	copy(status, b[:n])
	bm := &Bitmap{status: status}
	bm.firstFree = bm.scanFrom(0)
	return bm, b[n:], nil
}

// Encode appends the bitmap's on-disk form to dst and returns the result.
func (bm *Bitmap) Encode(dst []byte) []byte {
	dst = encodeUint16(uint16(len(bm.status)), dst)
	return append(dst, bm.status...)
}

// Size returns the total number of slots tracked by the bitmap.
func (bm *Bitmap) Size() uint16 {
	return uint16(len(bm.status))
}

// scanFrom returns the lowest free slot at or after i, or len(status) if
// none remain.
func (bm *Bitmap) scanFrom(i uint16) uint16 {
	for ; int(i) < len(bm.status); i++ {
		if bm.status[i] == statusFree {
			return i
		}
	}
	return uint16(len(bm.status))
}

// GetFree advances the allocator's hint past any used slots and returns the
// first free slot it finds, or 0 if the bitmap is exhausted. It does not
// mark the slot used — callers must confirm the allocation with MarkUsed.
func (bm *Bitmap) GetFree() uint16 {
	bm.firstFree = bm.scanFrom(bm.firstFree)
	if int(bm.firstFree) >= len(bm.status) {
		return 0
	}
	return bm.firstFree
}

// MarkUsed marks slot i used. It fails if the slot is already used, which
// protects against double allocation of the same slot.
func (bm *Bitmap) MarkUsed(i uint16) error {
	if int(i) >= len(bm.status) {
		return &Error{Kind: Corrupt, Msg: fmt.Sprintf("mark used: slot %d out of range", i)}
	}
	if bm.status[i] == statusUsed {
		return &Error{Kind: Corrupt, Msg: fmt.Sprintf("mark used: slot %d already used", i)}
	}
	bm.status[i] = statusUsed
	return nil
}

// Free marks slot i free. It fails for slot 0 (permanently reserved for the
// root), for an out-of-range slot, or for a slot that is already free.
func (bm *Bitmap) Free(i uint16) error {
	if i == 0 || int(i) >= len(bm.status) {
		return &Error{Kind: Corrupt, Msg: fmt.Sprintf("free: slot %d unavailable", i)}
	}
	if bm.status[i] == statusFree {
		return &Error{Kind: Corrupt, Msg: fmt.Sprintf("free: slot %d already free", i)}
	}
	bm.status[i] = statusFree
	if i < bm.firstFree {
		bm.firstFree = i
	}
	return nil
}

// Info reports the total slot count and the number of free slots.
func (bm *Bitmap) Info() (total, free uint16) {
	for _, s := range bm.status {
		if s == statusFree {
			free++
		}
	}
	return uint16(len(bm.status)), free
}
