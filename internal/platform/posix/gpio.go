package posix

import "github.com/warthog618/go-gpiocdev"

// RadioReset drives a GPIO line low then high to power-cycle the 802.15.4
// radio chip on boot, grounded on the teacher's ptt.go GPIO line control
// for keying a transmitter (same "open a line, drive it, close it" shape,
// applied to a reset pulse instead of a PTT hold).
type RadioReset struct {
	chip string
	line int
}

// NewRadioReset names the gpiochip device and line offset the radio's
// reset pin is wired to.
func NewRadioReset(chip string, line int) *RadioReset {
	return &RadioReset{chip: chip, line: line}
}

// Pulse drives the line low, then releases it high, resetting the radio.
// The two writes are issued back to back, with no delay between them.
func (r *RadioReset) Pulse() error {
	l, err := gpiocdev.RequestLine(r.chip, r.line, gpiocdev.AsOutput(0))
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.SetValue(0); err != nil {
		return err
	}
	if err := l.SetValue(1); err != nil {
		return err
	}
	return nil
}
