package posix

import "github.com/jochenvg/go-udev"

// DiscoverRadioDevices enumerates attached serial devices that look like
// an 802.15.4 radio co-processor, so a node can find its radio by udev
// subsystem match instead of a hardcoded /dev path. Every tty device node
// is returned; there is no vendor/product filter. This is the same
// shape as a TNC auto-detecting its serial port, grounded on the teacher's
// device-independent approach to serial enumeration.
func DiscoverRadioDevices() ([]string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return nil, err
	}
	devices, err := enum.Devices()
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, d := range devices {
		node := d.Devnode()
		if node == "" {
			continue
		}
		paths = append(paths, node)
	}
	return paths, nil
}
