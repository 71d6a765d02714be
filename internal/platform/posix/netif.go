package posix

import (
	"fmt"
	"net"
	"os"
	"unsafe"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const (
	ifNameSize = 16
	tunDevPath = "/dev/net/tun"
)

type ifReq struct {
	Name  [ifNameSize]byte
	Flags uint16
	pad   [22]byte
}

// TUN is the host-facing IPv6 interface a border router exposes the mesh
// through: on-mesh prefixes get host routes pointed at it, the way a
// border router bridges Thread to a host's IPv6 network stack.
type TUN struct {
	file *os.File
	name string
	link netlink.Link
}

// OpenTUN creates (or attaches to) a TUN interface named name via
// /dev/net/tun's TUNSETIFF ioctl, the standard Linux way to hand a raw
// IPv6 packet interface to a userspace process.
func OpenTUN(name string) (*TUN, error) {
	f, err := os.OpenFile(tunDevPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("posix: open %s: %w", tunDevPath, err)
	}

	var req ifReq
	copy(req.Name[:], name)
	req.Flags = unix.IFF_TUN | unix.IFF_NO_PI

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(unix.TUNSETIFF), uintptr(unsafe.Pointer(&req))); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("posix: TUNSETIFF: %w", errno)
	}

	link, err := netlink.LinkByName(name)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("posix: link lookup after TUNSETIFF: %w", err)
	}

	return &TUN{file: f, name: name, link: link}, nil
}

// Up brings the interface up and assigns it addr/prefixLen as an IPv6
// address (typically the node's mesh-local or RLOC address), the
// host-side counterpart of this node joining the mesh.
func (t *TUN) Up(addr net.IP, prefixLen int) error {
	if err := netlink.LinkSetUp(t.link); err != nil {
		return err
	}
	a := &netlink.Addr{IPNet: &net.IPNet{IP: addr, Mask: net.CIDRMask(prefixLen, 128)}}
	return netlink.AddrAdd(t.link, a)
}

// AddRoute programs a host route for an on-mesh prefix this border router
// advertises, directing matching traffic out through the TUN interface.
func (t *TUN) AddRoute(prefix *net.IPNet) error {
	return netlink.RouteAdd(&netlink.Route{
		LinkIndex: t.link.Attrs().Index,
		Dst:       prefix,
	})
}

// RemoveRoute withdraws a previously added on-mesh prefix route, e.g. when
// Network Data stops advertising it.
func (t *TUN) RemoveRoute(prefix *net.IPNet) error {
	return netlink.RouteDel(&netlink.Route{
		LinkIndex: t.link.Attrs().Index,
		Dst:       prefix,
	})
}

// Read returns one raw IPv6 packet written by the kernel for delivery into
// the mesh (host-originated traffic destined on-mesh).
func (t *TUN) Read(buf []byte) (int, error) { return t.file.Read(buf) }

// Write injects a raw IPv6 packet (received from the mesh) into the host
// network stack via the TUN device.
func (t *TUN) Write(pkt []byte) (int, error) { return t.file.Write(pkt) }

// Close releases the TUN file descriptor.
func (t *TUN) Close() error { return t.file.Close() }
