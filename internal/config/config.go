// Package config loads threadnode's startup configuration: a YAML file
// for the bulk of it, with command-line flags able to override individual
// fields, the same two-layer shape as the teacher's config.go (file) plus
// cmd/direwolf's pflag definitions (CLI overrides) — collapsed here into a
// single small struct instead of the teacher's few thousand lines, since
// this stack has no audio/modem/digipeater surface to configure.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the full set of startup parameters a threadnode process needs.
// There is no persisted runtime state (§6): every field here is read once
// at startup and never written back.
type Config struct {
	NetworkName  string   `yaml:"network_name"`
	MasterKey    HexBytes `yaml:"master_key"`
	Channel      uint8    `yaml:"channel"`
	PANID        uint16   `yaml:"pan_id"`
	ExtPANID     HexBytes `yaml:"ext_pan_id"`
	Mode         string   `yaml:"mode"` // e.g. "rsdn"
	RadioDevice  string   `yaml:"radio_device"`
	TunInterface string   `yaml:"tun_interface"`
	Whitelist    []string `yaml:"whitelist"` // extended addresses, hex

	BorderRouterPrefixes []string `yaml:"border_router_prefixes"`

	DiagnosticSocket string `yaml:"diagnostic_socket"`
	CaptureLogDir    string `yaml:"capture_log_dir"` // empty disables capture
}

// HexBytes unmarshals a YAML hex string ("0011223344556677...") into bytes.
type HexBytes []byte

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	b, err := decodeHex(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*h = b
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var v int
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &v); err != nil {
			return nil, fmt.Errorf("bad hex byte %q: %w", s[2*i:2*i+2], err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Default returns a Config with the conventional Thread test-network
// values, overridden by whatever the loaded file/flags supply.
func Default() Config {
	return Config{
		NetworkName: "OpenThread",
		Channel:     15,
		PANID:       0xface,
		Mode:        "rsdn",
		RadioDevice: "/dev/ttyACM0",
		TunInterface: "thread0",
	}
}

// Load reads path as YAML into a Config seeded from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Flags registers the CLI override flags onto fs, returning a closure that
// applies whichever flags the user actually set on top of cfg. Mirrors the
// teacher's "file supplies defaults, flags override" layering in
// cmd/direwolf/main.go. The caller registers and parses --config-file
// separately (it must be known before Load runs).
func Flags(fs *pflag.FlagSet) func(cfg *Config) {
	channel := fs.Uint8P("channel", "C", 0, "802.15.4 channel (11-26). 0 keeps the config file value.")
	radioDevice := fs.StringP("radio-device", "r", "", "Radio serial device path. Empty keeps the config file value.")
	networkName := fs.StringP("network-name", "n", "", "Thread network name. Empty keeps the config file value.")

	return func(cfg *Config) {
		if *channel != 0 {
			cfg.Channel = *channel
		}
		if *radioDevice != "" {
			cfg.RadioDevice = *radioDevice
		}
		if *networkName != "" {
			cfg.NetworkName = *networkName
		}
	}
}

// ConfigFilePath registers and returns just the --config-file flag, parsed
// ahead of the rest so Load can run before the rest of Flags' defaults
// matter.
func ConfigFilePath(fs *pflag.FlagSet) *string {
	return fs.StringP("config-file", "c", "threadnode.yaml", "Configuration file path.")
}
