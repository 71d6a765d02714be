// Package buffer implements the message pool of spec §4.2: a fixed-count
// block allocator, chained small buffers with offset-based read/write
// cursors, and FIFO queues with single-owner membership. Every layer of the
// stack passes data between itself and its neighbors as a *Message pulled
// from a single shared Pool sized at boot (§5: "All allocation is from
// fixed-size, bounded pools... No dynamic growth.").
//
// Per the arena re-architecture note in spec §9, blocks live in one
// contiguous slice and are addressed by index rather than pointer, so the
// pool can be scanned, sized, and reset without per-block heap traffic.
package buffer

import "github.com/openthread-go/threadcore/internal/threaderr"

// BlockPayloadSize is the usable byte capacity of one pool block, matching
// the "~128 bytes each" sizing in spec §3.
const BlockPayloadSize = 128

const noBlock int32 = -1

type blockSlot struct {
	data [BlockPayloadSize]byte
	next int32 // next block in a Message's chain, or next free slot
}

// Pool is the fixed-size arena every Message's storage is drawn from.
type Pool struct {
	blocks   []blockSlot
	freeHead int32
	free     int
}

// NewPool allocates a pool with room for exactly capacity blocks. Capacity
// is fixed at construction time and never grows, per §5.
func NewPool(capacity int) *Pool {
	p := &Pool{blocks: make([]blockSlot, capacity)}
	for i := range p.blocks {
		if i == len(p.blocks)-1 {
			p.blocks[i].next = noBlock
		} else {
			p.blocks[i].next = int32(i + 1)
		}
	}
	if capacity == 0 {
		p.freeHead = noBlock
	}
	p.free = capacity
	return p
}

// Capacity returns the total number of blocks the pool was built with.
func (p *Pool) Capacity() int { return len(p.blocks) }

// FreeBlocks returns the number of currently unallocated blocks.
func (p *Pool) FreeBlocks() int { return p.free }

func (p *Pool) allocBlock() (int32, threaderr.Error) {
	if p.freeHead == noBlock {
		return noBlock, threaderr.NoBufs
	}
	idx := p.freeHead
	p.freeHead = p.blocks[idx].next
	p.blocks[idx].next = noBlock
	p.free--
	return idx, threaderr.None
}

func (p *Pool) freeBlock(idx int32) {
	p.blocks[idx].data = [BlockPayloadSize]byte{}
	p.blocks[idx].next = p.freeHead
	p.freeHead = idx
	p.free++
}

// freeChain releases every block starting at head back to the pool.
func (p *Pool) freeChain(head int32) {
	for head != noBlock {
		next := p.blocks[head].next
		p.freeBlock(head)
		head = next
	}
}
