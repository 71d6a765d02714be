package posix

import (
	"io"
	"sync"

	"github.com/pkg/term"

	"github.com/openthread-go/threadcore/internal/log"
)

var logger = log.ForRegion("platform/posix")

// Serial implements platform.Serial over a termios-configured serial
// device, grounded on the teacher's kissserial.go (opens the port with
// github.com/pkg/term, runs a dedicated read-loop goroutine that hands
// completed bytes back to the core rather than blocking it).
type Serial struct {
	mu   sync.Mutex
	port *term.Term
	path string
	baud int

	onReceive func([]byte)
	onSendDone func()

	stopRead chan struct{}
}

// NewSerial constructs a Serial bound to path at baud bits/second. The
// device is not opened until Enable.
func NewSerial(path string, baud int) *Serial {
	return &Serial{path: path, baud: baud}
}

func (s *Serial) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	p, err := term.Open(s.path, term.Speed(s.baud), term.RawMode)
	if err != nil {
		return err
	}
	s.port = p
	s.stopRead = make(chan struct{})
	go s.readLoop(p, s.stopRead)
	return nil
}

func (s *Serial) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	close(s.stopRead)
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) Send(buf []byte) error {
	s.mu.Lock()
	p := s.port
	s.mu.Unlock()
	if p == nil {
		return io.ErrClosedPipe
	}
	_, err := p.Write(buf)
	if s.onSendDone != nil {
		s.onSendDone()
	}
	return err
}

func (s *Serial) SetReceiveCallback(cb func([]byte))  { s.onReceive = cb }
func (s *Serial) SetSendDoneCallback(cb func())       { s.onSendDone = cb }

// readLoop runs on its own goroutine for the lifetime of an open port,
// handing every byte read to onReceive; the core's own processing stays
// on the cooperative scheduler's goroutine (§5's "handlers post, they
// don't run protocol code" boundary applies at this callback).
func (s *Serial) readLoop(p *term.Term, stop chan struct{}) {
	buf := make([]byte, 256)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := p.Read(buf)
		if err != nil {
			return
		}
		if n > 0 && s.onReceive != nil {
			s.onReceive(append([]byte{}, buf[:n]...))
		}
	}
}
