package image

import "fmt"

// Block is a single fixed-size payload cell plus the link to the next
// block in its chain. Payload is always exactly blockPayload bytes; only
// the first Occupied of them are valid.
type Block struct {
	Next     uint16
	Occupied uint8
	Payload  [blockPayload]byte
}

const blockSize = 2 + 1 + blockPayload

// clear zeroes a block back to the state a freshly-freed block must have,
// so that image dumps contain zero-padding for unused capacity and
// round-trip stably.
func (b *Block) clear() {
	b.Next = 0
	b.Occupied = 0
	for i := range b.Payload {
		b.Payload[i] = 0
	}
}

// Blocks owns the fixed array of data blocks and the singly-linked chains
// threaded through them via Next.
type Blocks struct {
	blocks []Block
}

// NewBlocks allocates n zeroed blocks, as produced by the empty-image
// synthesiser.
func NewBlocks(n uint16) *Blocks {
	return &Blocks{blocks: make([]Block, n)}
}

// DecodeBlocks reads n blocks from their on-disk form.
func DecodeBlocks(b []byte, n uint16) (*Blocks, []byte, error) {
	blocks := make([]Block, n)
	for i := range blocks {
		if len(b) < blockSize {
			return nil, nil, fmt.Errorf("decoding block %d: need %d bytes, got %d", i, blockSize, len(b))
		}
		blocks[i].Next = decodeUint16(b[0], b[1])
		blocks[i].Occupied = b[2]
		copy(blocks[i].Payload[:], b[3:3+blockPayload])
		b = b[blockSize:]
	}
	return &Blocks{blocks: blocks}, b, nil
}

// Encode appends every block's on-disk form to dst in index order.
func (s *Blocks) Encode(dst []byte) []byte {
	for i := range s.blocks {
		blk := &s.blocks[i]
		dst = encodeUint16(blk.Next, dst)
		dst = append(dst, byte(blk.Occupied))
		dst = append(dst, blk.Payload[:]...)
	}
	return dst
}

func (s *Blocks) at(i uint16) (*Block, error) {
	if int(i) >= len(s.blocks) {
		return nil, newErr(Corrupt, "block %d out of range", i)
	}
	return &s.blocks[i], nil
}

// ReadChain walks the chain starting at head and returns the concatenation
// of every block's valid payload bytes, in chain order.
func (s *Blocks) ReadChain(head uint16) ([]byte, error) {
	var out []byte
	cur := head
	for {
		blk, err := s.at(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, blk.Payload[:blk.Occupied]...)
		if blk.Next == 0 {
			return out, nil
		}
		cur = blk.Next
	}
}

// Capacity returns the total payload capacity (chain length × blockPayload)
// of the chain starting at head.
func (s *Blocks) Capacity(head uint16) (uint32, error) {
	var total uint32
	cur := head
	for {
		blk, err := s.at(cur)
		if err != nil {
			return 0, err
		}
		total += blockPayload
		if blk.Next == 0 {
			return total, nil
		}
		cur = blk.Next
	}
}

// Length returns the number of blocks in the chain starting at head.
func (s *Blocks) Length(head uint16) (uint32, error) {
	var n uint32
	cur := head
	for {
		blk, err := s.at(cur)
		if err != nil {
			return 0, err
		}
		n++
		if blk.Next == 0 {
			return n, nil
		}
		cur = blk.Next
	}
}

// WriteChain fills the chain starting at head with payload, assuming the
// chain's capacity has already been reshaped to fit. Every intermediate
// block gets Occupied = blockPayload; the final block gets the remainder,
// which is 0 for an empty payload.
func (s *Blocks) WriteChain(head uint16, payload []byte) error {
	cur := head
	off := 0
	for {
		blk, err := s.at(cur)
		if err != nil {
			return err
		}
		n := len(payload) - off
		if n > blockPayload {
			n = blockPayload
		}
		if n < 0 {
			n = 0
		}
		copy(blk.Payload[:], payload[off:off+n])
		for i := n; i < blockPayload; i++ {
			blk.Payload[i] = 0
		}
		blk.Occupied = uint8(n)
		off += n
		if blk.Next == 0 {
			return nil
		}
		cur = blk.Next
	}
}

// AppendBlock walks to the tail of the chain starting at head and links
// newBlock after it. newBlock is zeroed first.
func (s *Blocks) AppendBlock(head, newBlock uint16) error {
	tail, err := s.at(head)
	if err != nil {
		return err
	}
	for tail.Next != 0 {
		tail, err = s.at(tail.Next)
		if err != nil {
			return err
		}
	}
	nb, err := s.at(newBlock)
	if err != nil {
		return err
	}
	nb.clear()
	tail.Next = newBlock
	return nil
}

// PopBlock removes and returns the index of the tail block of the chain
// starting at head. It fails with Corrupt if the chain has length 1,
// since the head block can never be removed.
func (s *Blocks) PopBlock(head uint16) (uint16, error) {
	prev, err := s.at(head)
	if err != nil {
		return 0, err
	}
	if prev.Next == 0 {
		return 0, newErr(Corrupt, "cannot shrink a length-1 chain at head %d", head)
	}
	cur := prev.Next
	for {
		blk, err := s.at(cur)
		if err != nil {
			return 0, err
		}
		if blk.Next == 0 {
			prev.Next = 0
			blk.clear()
			return cur, nil
		}
		prev, cur = blk, blk.Next
	}
}

// FreeChain zeroes every block in the chain starting at head and returns
// every freed index, including head itself.
func (s *Blocks) FreeChain(head uint16) ([]uint16, error) {
	var freed []uint16
	cur := head
	for {
		blk, err := s.at(cur)
		if err != nil {
			return nil, err
		}
		next := blk.Next
		freed = append(freed, cur)
		blk.clear()
		if next == 0 {
			return freed, nil
		}
		cur = next
	}
}
