package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

const DFLT_BUFFER_LENGTH = 25000

type LED struct {
	ClockPin string `yaml:"clock_pin"` // e.g. GPIO24
	DataPin  string `yaml:"data_pin"`
	Mirror   Mirror `yaml:"mirror"`
}

// Mirror optionally repeats the progress LEDs on an NRZ strip.
type Mirror struct {
	Enabled bool   `yaml:"enabled"`
	SPI     string `yaml:"spi"`      // "" picks the first port
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Codec struct {
	I2CBus      string `yaml:"i2c_bus"`
	I2CHz       int    `yaml:"i2c_hz"`  // e.g. 16000
	Address     uint16 `yaml:"address"` // 7-bit, e.g. 0x1a
	SampleRate  int    `yaml:"sample_rate"`
	InputVolume uint16 `yaml:"input_volume"` // 0x17 is 0 dB
	Input       string `yaml:"input"`        // "line" | "mic"
	MicBoost    bool   `yaml:"mic_boost"`
}

type Channel struct {
	Driver  string `yaml:"driver"` // "spi" | "sim"
	SPI     string `yaml:"spi"`
	SpeedHz int    `yaml:"speed_hz"`
	ToneHz  int    `yaml:"tone_hz"` // sim capture tone
}

type Buttons struct {
	Capture string `yaml:"capture"`
	Play    string `yaml:"play"`
	Echo    string `yaml:"echo"`
	PollMs  int    `yaml:"poll_ms"`
}

type Echo struct {
	Saturate bool `yaml:"saturate"`
}

type Metrics struct {
	Addr string `yaml:"addr"` // "" disables the endpoint
}

type Config struct {
	BufferLength int    `yaml:"buffer_length"`
	LogLevel     string `yaml:"log_level"`

	LED     LED     `yaml:"led"`
	Codec   Codec   `yaml:"codec"`
	Channel Channel `yaml:"channel"`
	Buttons Buttons `yaml:"buttons"`
	Echo    Echo    `yaml:"echo"`
	Metrics Metrics `yaml:"metrics,omitempty"`
}

// Default is the reference board: 25000 samples (about three seconds at
// 8 kHz), LEDs on GPIO24/25 and the codec at 0x1a.
func Default() *Config {
	return &Config{
		BufferLength: DFLT_BUFFER_LENGTH,
		LogLevel:     "info",
		LED: LED{
			ClockPin: "GPIO24",
			DataPin:  "GPIO25",
			Mirror:   Mirror{FreqKHz: 2500},
		},
		Codec: Codec{
			I2CHz:       16000,
			Address:     0x1a,
			SampleRate:  8000,
			InputVolume: 0x17,
			Input:       "line",
		},
		Channel: Channel{
			Driver:  "spi",
			SpeedHz: 1000000,
			ToneHz:  440,
		},
		Buttons: Buttons{
			Capture: "GPIO5",
			Play:    "GPIO6",
			Echo:    "GPIO13",
			PollMs:  20,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var ErrInvalid = errors.New("invalid config")

func invalid(field string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if c.BufferLength < 8 || c.BufferLength%8 != 0 {
		return invalid("buffer_length", "%d is not a positive multiple of 8", c.BufferLength)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level", "%q", c.LogLevel)
	}
	if err := c.LED.Validate(); err != nil {
		return err
	}
	if err := c.Codec.Validate(); err != nil {
		return err
	}
	if err := c.Channel.Validate(); err != nil {
		return err
	}
	return c.Buttons.Validate()
}

func (l *LED) Validate() error {
	if l.ClockPin == "" || l.DataPin == "" {
		return invalid("led", "clock_pin and data_pin are required")
	}
	if l.ClockPin == l.DataPin {
		return invalid("led", "clock and data share pin %s", l.ClockPin)
	}
	if l.Mirror.FreqKHz < 0 {
		return invalid("led.mirror.freq_khz", "%d", l.Mirror.FreqKHz)
	}
	return nil
}

func (c *Codec) Validate() error {
	if c.Address == 0 || c.Address > 0x7f {
		return invalid("codec.address", "0x%x is not a 7-bit address", c.Address)
	}
	if c.I2CHz < 0 {
		return invalid("codec.i2c_hz", "%d", c.I2CHz)
	}
	if c.SampleRate <= 0 {
		return invalid("codec.sample_rate", "%d", c.SampleRate)
	}
	if c.InputVolume > 0x1f {
		return invalid("codec.input_volume", "0x%x exceeds 0x1f", c.InputVolume)
	}
	switch strings.ToLower(c.Input) {
	case "line", "mic":
	default:
		return invalid("codec.input", "%q (want line or mic)", c.Input)
	}
	return nil
}

func (c *Channel) Validate() error {
	switch c.Driver {
	case "spi":
		if c.SpeedHz <= 0 {
			return invalid("channel.speed_hz", "%d", c.SpeedHz)
		}
	case "sim":
	default:
		return invalid("channel.driver", "%q (want spi or sim)", c.Driver)
	}
	return nil
}

func (b *Buttons) Validate() error {
	if b.PollMs <= 0 {
		return invalid("buttons.poll_ms", "%d", b.PollMs)
	}
	return nil
}

func (c *Codec) Rate() physic.Frequency {
	return physic.Frequency(c.SampleRate) * physic.Hertz
}

func (c *Channel) Speed() physic.Frequency {
	return physic.Frequency(c.SpeedHz) * physic.Hertz
}

func (b *Buttons) PollInterval() time.Duration {
	return time.Duration(b.PollMs) * time.Millisecond
}

func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
