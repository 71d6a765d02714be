// Package mesh implements the MeshForwarder of §4.5: per-destination send
// queues over the MAC, compression and fragmentation of outgoing IPv6
// datagrams, reassembly and decompression of incoming ones, and indirect
// (poll-driven) delivery to sleepy children. Its forwarding-decision shape
// is grounded on the teacher's digipeater: a single dispatch point that
// decides, for every unit of traffic, whether to deliver it locally,
// re-enqueue it outbound, or drop it with a logged reason.
package mesh

import (
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/log"
	"github.com/openthread-go/threadcore/internal/lowpan"
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

var logger = log.ForRegion("mesh")

// maxFramePayload approximates the 802.15.4 MAC payload budget left for a
// 6LoWPAN datagram after worst-case addressing and security headers
// (§4.5's "~81 bytes payload typical").
const maxFramePayload = 81

// retryBudget bounds how many times a transiently failed direct send is
// requeued before it is dropped, per §4.5.
const retryBudget = 2

// NextHopResolver is consulted for every direct send to find the RLOC16 to
// hand the frame to. The MLE router implements this; mesh depends only on
// this interface to stay free of an import on mle.
type NextHopResolver interface {
	GetNextHop(destRLOC16 mac.ShortAddress) (nextHop mac.ShortAddress, ok bool)
	ResolveLinkAddress(rloc16 mac.ShortAddress) (mac.ExtAddress, bool)
}

// NeighborTable is touched on every successful send/receive to keep
// link-liveness state current.
type NeighborTable interface {
	Touch(ext mac.ExtAddress, nowMs uint32)
}

// LocalAddressChecker decides whether a decompressed datagram's destination
// belongs to this node (the stack package implements it over the node's
// mesh-local address and its multicast subscriptions).
type LocalAddressChecker interface {
	IsLocalUnicast(addr ip6.Address) bool
	IsSubscribedMulticast(addr ip6.Address) bool
}

// Deliverer receives datagrams the forwarder has decided are for local
// consumption (ip6 core's input dispatch).
type Deliverer interface {
	DeliverLocal(pkt *lowpan.Packet)
}

type outboundFrame struct {
	compressed []byte
	destRLOC16 mac.ShortAddress
	destExt    mac.ExtAddress
	indirect   bool
	ackRequest bool
	retries    int
	done       func(threaderr.Error)
}

// Forwarder is the single mesh-forwarding dispatch point bound to one MAC
// and one radio's worth of state. Exactly one exists per Stack.
type Forwarder struct {
	mac      *mac.MAC
	contexts lowpan.ContextTable
	reasm    *lowpan.Reassembler

	nextHop   NextHopResolver
	neighbors NeighborTable
	localAddr LocalAddressChecker
	deliver   Deliverer

	selfExt   mac.ExtAddress
	selfShort mac.ShortAddress

	outQueue      []*outboundFrame
	indirectQueue map[mac.ExtAddress][]*outboundFrame
	sending       *outboundFrame
	nextTag       uint16

	now func() uint32
}

// New constructs a Forwarder. now supplies the millisecond clock used for
// neighbor liveness and fragment reassembly deadlines.
func New(m *mac.MAC, contexts lowpan.ContextTable, nextHop NextHopResolver, neighbors NeighborTable, localAddr LocalAddressChecker, deliver Deliverer, now func() uint32) *Forwarder {
	f := &Forwarder{
		mac:           m,
		contexts:      contexts,
		reasm:         lowpan.NewReassembler(),
		nextHop:       nextHop,
		neighbors:     neighbors,
		localAddr:     localAddr,
		deliver:       deliver,
		indirectQueue: make(map[mac.ExtAddress][]*outboundFrame),
		now:           now,
	}
	m.SetReceiveHandler(f.handleReceive)
	return f
}

// SetIdentity records this node's own addressing, used to derive the
// link-layer address IPHC elides against for locally-originated datagrams.
func (f *Forwarder) SetIdentity(ext mac.ExtAddress, short mac.ShortAddress) {
	f.selfExt = ext
	f.selfShort = short
}

// SendDatagram compresses and, if necessary, fragments pkt and enqueues it
// toward destRLOC16, which the caller must already have resolved to the
// next hop on the path (via NextHopResolver.GetNextHop for a relayed
// datagram, or the router's own next-hop table for one it originated) —
// SendDatagram itself only resolves that RLOC16's link-layer address, it
// does not re-walk the route. When indirect is true the datagram is held
// in childExt's queue for poll-driven delivery instead of sent immediately
// (§4.5).
func (f *Forwarder) SendDatagram(pkt *lowpan.Packet, destRLOC16 mac.ShortAddress, childExt mac.ExtAddress, indirect bool, done func(threaderr.Error)) threaderr.Error {
	destLink, err := f.linkAddrFor(destRLOC16, childExt, indirect)
	if err != threaderr.None {
		return err
	}
	srcLink := lowpan.LinkAddr{HasExt: true, Ext: f.selfExt}
	compressed := lowpan.Compress(pkt, srcLink, destLink, f.contexts)

	frames := f.fragmentIfNeeded(compressed)
	for i, raw := range frames {
		of := &outboundFrame{compressed: raw, destRLOC16: destRLOC16, destExt: childExt, indirect: indirect, ackRequest: true}
		if i == len(frames)-1 {
			of.done = done
		}
		f.enqueue(of)
	}
	return threaderr.None
}

func (f *Forwarder) linkAddrFor(destRLOC16 mac.ShortAddress, childExt mac.ExtAddress, indirect bool) (lowpan.LinkAddr, threaderr.Error) {
	if indirect {
		return lowpan.LinkAddr{HasExt: true, Ext: childExt}, threaderr.None
	}
	if ext, ok := f.nextHop.ResolveLinkAddress(destRLOC16); ok {
		return lowpan.LinkAddr{HasExt: true, Ext: ext}, threaderr.None
	}
	return lowpan.LinkAddr{HasShort: true, Short: uint16(destRLOC16)}, threaderr.None
}

func (f *Forwarder) fragmentIfNeeded(compressed []byte) [][]byte {
	if len(compressed) <= maxFramePayload {
		return [][]byte{compressed}
	}
	tag := f.nextTag
	f.nextTag++
	size := uint16(len(compressed))

	firstChunk := (maxFramePayload - 4) &^ 7 // offsets are in 8-byte units
	frames := [][]byte{lowpan.EncodeFirstFragment(size, tag, compressed[:firstChunk])}

	offsetBytes := firstChunk
	subChunk := (maxFramePayload - 5) &^ 7 // offsets are in 8-byte units
	for offsetBytes < len(compressed) {
		end := offsetBytes + subChunk
		if end > len(compressed) {
			end = len(compressed)
		}
		frames = append(frames, lowpan.EncodeSubsequentFragment(size, tag, uint8(offsetBytes/8), compressed[offsetBytes:end]))
		offsetBytes = end
	}
	return frames
}

func (f *Forwarder) enqueue(of *outboundFrame) {
	if of.indirect {
		f.indirectQueue[of.destExt] = append(f.indirectQueue[of.destExt], of)
		return
	}
	f.outQueue = append(f.outQueue, of)
	f.pumpDirect()
}

// pumpDirect dequeues and transmits the next direct frame if the MAC is
// free. §5 allows only one outstanding transmission at a time.
func (f *Forwarder) pumpDirect() {
	if f.sending != nil || len(f.outQueue) == 0 {
		return
	}
	of := f.outQueue[0]
	f.outQueue = f.outQueue[1:]
	f.sending = of

	dst := mac.Address{Mode: mac.AddrModeShort, Short: of.destRLOC16}
	err := f.mac.SendData(dst, of.compressed, of.ackRequest, mac.SecurityEncMIC32, f.onSendDone)
	if err != threaderr.None {
		f.completeSend(err)
	}
}

func (f *Forwarder) onSendDone(result threaderr.Error) {
	f.completeSend(result)
}

func (f *Forwarder) completeSend(result threaderr.Error) {
	of := f.sending
	f.sending = nil
	if of == nil {
		return
	}

	switch result {
	case threaderr.None:
		if f.neighbors != nil {
			f.neighbors.Touch(of.destExt, f.now())
		}
	case threaderr.ChannelAccessFailure, threaderr.NoAck:
		if of.retries < retryBudget {
			of.retries++
			f.outQueue = append([]*outboundFrame{of}, f.outQueue...)
			logger.Debug("requeuing after transient failure", "dest", of.destRLOC16, "reason", result, "attempt", of.retries)
			f.pumpDirect()
			return
		}
		logger.Debug("dropping frame after exhausting retries", "dest", of.destRLOC16, "reason", result)
	default:
		logger.Debug("dropping frame", "dest", of.destRLOC16, "reason", result)
	}

	if of.done != nil {
		of.done(result)
	}
	f.pumpDirect()
}

// SendLinkLocalMulticast compresses pkt and sends it as link-layer
// broadcast frames (destination short address 0xffff), one frame unless it
// has to be fragmented, the delivery primitive MPL flooding uses to reach
// every neighbor at once instead of one unicast per neighbor (§4.6).
func (f *Forwarder) SendLinkLocalMulticast(pkt *lowpan.Packet, done func(threaderr.Error)) threaderr.Error {
	srcLink := lowpan.LinkAddr{HasExt: true, Ext: f.selfExt}
	dstLink := lowpan.LinkAddr{HasShort: true, Short: uint16(mac.BroadcastShortAddress)}
	compressed := lowpan.Compress(pkt, srcLink, dstLink, f.contexts)

	frames := f.fragmentIfNeeded(compressed)
	for i, raw := range frames {
		of := &outboundFrame{compressed: raw, destRLOC16: mac.BroadcastShortAddress}
		if i == len(frames)-1 {
			of.done = done
		}
		f.enqueueBroadcast(of)
	}
	return threaderr.None
}

func (f *Forwarder) enqueueBroadcast(of *outboundFrame) {
	f.outQueue = append(f.outQueue, of)
	f.pumpDirect()
}

// PollForChild releases the oldest indirectly-queued frame for a sleepy
// child that has just polled with a Data Request, per §4.5.
func (f *Forwarder) PollForChild(childExt mac.ExtAddress) threaderr.Error {
	q := f.indirectQueue[childExt]
	if len(q) == 0 {
		return threaderr.NotReceiving
	}
	of := q[0]
	f.indirectQueue[childExt] = q[1:]
	f.outQueue = append([]*outboundFrame{of}, f.outQueue...)
	f.pumpDirect()
	return threaderr.None
}

func (f *Forwarder) handleReceive(frame *mac.Frame, rssi int8) {
	if frame.Type == mac.FrameTypeCmd && mac.IsDataRequest(frame.Payload) && frame.SrcAddr.Mode == mac.AddrModeExt {
		_ = f.PollForChild(frame.SrcAddr.Ext)
		return
	}
	if frame.Type != mac.FrameTypeData {
		return
	}

	raw := frame.Payload
	srcExt, dstShort := frame.SrcAddr.Ext, f.selfShort

	if lowpan.IsFragment(raw) {
		var srcKey, dstKey ip6.Address
		copy(srcKey[8:16], srcExt[:])
		dstKey[15] = byte(dstShort)
		complete, err := f.reasm.Add(srcKey, dstKey, raw, f.now())
		if err != nil {
			logger.Debug("dropping malformed fragment", "err", err)
			return
		}
		if complete == nil {
			return
		}
		raw = complete
	}

	srcLink := lowpan.LinkAddr{HasExt: true, Ext: srcExt}
	dstLink := lowpan.LinkAddr{HasExt: true, Ext: f.selfExt}
	pkt, err := lowpan.Decompress(raw, srcLink, dstLink, f.contexts)
	if err != nil {
		logger.Debug("dropping undecodable datagram", "err", err)
		return
	}

	if f.neighbors != nil {
		f.neighbors.Touch(srcExt, f.now())
	}

	f.dispatch(pkt)
}

// dispatch delivers pkt locally when its destination matches this node, or
// forwards it toward its next hop otherwise. Multicast dissemination (MPL
// flooding) is the ip6 core's job, not the mesh forwarder's: a multicast
// datagram is delivered locally when subscribed and otherwise left alone
// here, since MPL decides independently which neighbors to re-send it to.
func (f *Forwarder) dispatch(pkt *lowpan.Packet) {
	if pkt.Header.Dst.IsMulticast() {
		if f.deliver != nil && (f.localAddr == nil || f.localAddr.IsSubscribedMulticast(pkt.Header.Dst)) {
			f.deliver.DeliverLocal(pkt)
		}
		return
	}
	if f.localAddr == nil || f.localAddr.IsLocalUnicast(pkt.Header.Dst) {
		if f.deliver != nil {
			f.deliver.DeliverLocal(pkt)
		}
		return
	}
	f.forward(pkt)
}

func (f *Forwarder) forward(pkt *lowpan.Packet) {
	if pkt.Header.HopLimit <= 1 {
		logger.Debug("dropping datagram: hop limit exceeded")
		return
	}
	pkt.Header.HopLimit--

	destRLOC16, ok := f.resolveDestRLOC16(pkt.Header.Dst)
	if !ok {
		logger.Debug("dropping datagram: no route", "dst", pkt.Header.Dst)
		return
	}
	_ = f.SendDatagram(pkt, destRLOC16, mac.ExtAddress{}, false, nil)
}

// resolveDestRLOC16 extracts an RLOC16 from a mesh-local IID when present
// (the common case once address resolution has mapped an EID to its
// RLOC16) and returns the next hop toward it. Any other destination, or an
// RLOC16 with no next hop, yields no route, and forward drops the datagram.
func (f *Forwarder) resolveDestRLOC16(dst ip6.Address) (mac.ShortAddress, bool) {
	if dst[11] == 0xff && dst[12] == 0xfe {
		rloc := mac.ShortAddress(uint16(dst[14])<<8 | uint16(dst[15]))
		if next, ok := f.nextHop.GetNextHop(rloc); ok {
			return next, true
		}
	}
	return 0, false
}
