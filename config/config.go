package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where LoadConfig looks when no path is given.
const DefaultPath = "hdlclink.toml"

// Duration is a time.Duration read from a TOML string such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration
type Config struct {
	Link LinkConfig `toml:"link"`
	Log  LogConfig  `toml:"log"`
}

// LinkConfig describes the transport under the framing link and how the
// link polls it.
type LinkConfig struct {
	// Device is a serial device path (/dev/ttyUSB0, COM3) or a TCP
	// host:port for serial-over-IP servers.
	Device   string  `toml:"device"`
	Baud     int     `toml:"baud"`
	DataBits int     `toml:"data_bits"`
	Parity   string  `toml:"parity"`
	StopBits float64 `toml:"stop_bits"`

	ReadTimeout  Duration `toml:"read_timeout"`
	DialTimeout  Duration `toml:"dial_timeout"`
	PollInterval Duration `toml:"poll_interval"`
	ResetOnOpen  bool     `toml:"reset_on_open"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Link: LinkConfig{
			Device:       "/dev/ttyUSB0",
			Baud:         115200,
			DataBits:     8,
			Parity:       "none",
			StopBits:     1,
			ReadTimeout:  Duration{100 * time.Millisecond},
			DialTimeout:  Duration{10 * time.Second},
			PollInterval: Duration{time.Millisecond},
			ResetOnOpen:  true,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// IsTCP reports whether Device names a network address rather than a
// serial device. Absolute paths are always serial, even when they contain
// colons as /dev/serial/by-path names do.
func (c LinkConfig) IsTCP() bool {
	if strings.HasPrefix(c.Device, "/") {
		return false
	}
	_, port, err := net.SplitHostPort(c.Device)
	return err == nil && port != ""
}

// Validate checks the values a transport cannot recover from.
func (c Config) Validate() error {
	l := c.Link
	if l.Device == "" {
		return fmt.Errorf("link.device is empty")
	}
	if l.Baud <= 0 {
		return fmt.Errorf("link.baud must be positive, got %d", l.Baud)
	}
	if l.DataBits < 5 || l.DataBits > 8 {
		return fmt.Errorf("link.data_bits must be 5..8, got %d", l.DataBits)
	}
	switch strings.ToLower(l.Parity) {
	case "none", "odd", "even", "mark", "space":
	default:
		return fmt.Errorf("unknown link.parity %q", l.Parity)
	}
	switch l.StopBits {
	case 1, 1.5, 2:
	default:
		return fmt.Errorf("link.stop_bits must be 1, 1.5 or 2, got %v", l.StopBits)
	}
	if l.PollInterval.Duration <= 0 {
		return fmt.Errorf("link.poll_interval must be positive")
	}
	return nil
}

// LoadConfig reads the configuration from path, falling back to
// DefaultPath. A missing file yields the defaults. The result is not
// validated; callers apply their overrides first and then call Validate.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	conf := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return conf, nil
	}
	if err != nil {
		return conf, err
	}

	return Parse(data)
}

// Parse decodes TOML over the defaults.
func Parse(data []byte) (Config, error) {
	conf := Default()

	md, err := toml.Decode(string(data), &conf)
	if err != nil {
		return conf, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return conf, fmt.Errorf("unknown config keys: %v", undecoded)
	}

	return conf, nil
}
