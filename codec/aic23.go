// Package codec configures a TLV320AIC23-style audio codec over I2C.
//
// Every register write is a two byte message: the top 7 bits carry the
// register address and the remaining 9 bits the value.
package codec

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const DefaultAddr uint16 = 0x1A

type Register uint8

const (
	RegLeftLineIn    Register = 0x00
	RegRightLineIn   Register = 0x01
	RegLeftPhones    Register = 0x02
	RegRightPhones   Register = 0x03
	RegAnalogPath    Register = 0x04
	RegDigitalPath   Register = 0x05
	RegPower         Register = 0x06
	RegDigitalFormat Register = 0x07
	RegSampleRate    Register = 0x08
	RegDigitalActive Register = 0x09
	RegReset         Register = 0x0F
)

var registerNames = map[Register]string{
	RegLeftLineIn:    "left line in",
	RegRightLineIn:   "right line in",
	RegLeftPhones:    "left headphone",
	RegRightPhones:   "right headphone",
	RegAnalogPath:    "analog path",
	RegDigitalPath:   "digital path",
	RegPower:         "power",
	RegDigitalFormat: "digital format",
	RegSampleRate:    "sample rate",
	RegDigitalActive: "digital interface",
	RegReset:         "reset",
}

func (r Register) String() string {
	if n, ok := registerNames[r]; ok {
		return n
	}
	return fmt.Sprintf("reg 0x%02x", uint8(r))
}

// Register bits.
const (
	VALUE_MASK uint16 = 0x1FF

	LineInBoth    uint16 = 1 << 8 // load both channels at once
	LineInMute    uint16 = 1 << 7
	LineInVolMask uint16 = 0x1F
	LineIn0dB     uint16 = 0x17

	PathMicBoost uint16 = 1 << 0
	PathMicMute  uint16 = 1 << 1
	PathMicInput uint16 = 1 << 2
	PathBypass   uint16 = 1 << 3
	PathDAC      uint16 = 1 << 4

	DigitalSoftMute uint16 = 1 << 3

	FormatMaster uint16 = 1 << 6
	FormatI2S    uint16 = 0x2
	Format16Bit  uint16 = 0x0

	RateUSB  uint16 = 1 << 0
	RateBOSR uint16 = 1 << 1
	RateSR0  uint16 = 1 << 2
	RateSR1  uint16 = 1 << 3
	RateSR2  uint16 = 1 << 4
	RateSR3  uint16 = 1 << 5

	Activate uint16 = 1 << 0
)

var ErrSampleRate = errors.New("codec: unsupported sample rate")

// USB mode (12 MHz master clock) rate selections, ADC and DAC equal.
var sampleRates = map[physic.Frequency]uint16{
	8 * physic.KiloHertz:   RateUSB | RateSR1 | RateSR0,
	32 * physic.KiloHertz:  RateUSB | RateSR2 | RateSR1,
	44100 * physic.Hertz:   RateUSB | RateBOSR | RateSR3,
	48 * physic.KiloHertz:  RateUSB,
	96 * physic.KiloHertz:  RateUSB | RateSR2 | RateSR1 | RateSR0,
}

// SampleRateBits returns the sample rate register value for f.
func SampleRateBits(f physic.Frequency) (uint16, error) {
	if v, ok := sampleRates[f]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrSampleRate, f)
}

type Input int

const (
	LineInput Input = iota
	MicInput
)

// Settings is what the board needs before streaming starts.
type Settings struct {
	SampleRate physic.Frequency
	// InputVolume is the 5-bit line input gain, 0x17 being 0 dB.
	InputVolume uint16
	Input       Input
	MicBoost    bool
}

func DefaultSettings() Settings {
	return Settings{
		SampleRate:  8 * physic.KiloHertz,
		InputVolume: LineIn0dB,
		Input:       LineInput,
	}
}

// Write is one register write of the startup sequence.
type Write struct {
	Reg   Register
	Value uint16
}

// Sequence lists the register writes Configure performs, in order.
func (s Settings) Sequence() ([]Write, error) {
	rate, err := SampleRateBits(s.SampleRate)
	if err != nil {
		return nil, err
	}
	path := PathDAC
	if s.Input == MicInput {
		path |= PathMicInput
		if s.MicBoost {
			path |= PathMicBoost
		}
	} else {
		path |= PathMicMute
	}
	vol := LineInBoth | (s.InputVolume & LineInVolMask)
	return []Write{
		{RegReset, 0},
		{RegPower, 0},
		{RegLeftLineIn, vol},
		{RegRightLineIn, vol},
		{RegSampleRate, rate},
		{RegAnalogPath, path},
		{RegDigitalPath, 0},
		{RegDigitalFormat, FormatMaster | FormatI2S | Format16Bit},
		{RegDigitalActive, Activate},
	}, nil
}

// Codec writes registers to the chip at Addr on Bus.
type Codec struct {
	dev *i2c.Dev
}

func New(bus i2c.Bus, addr uint16) *Codec {
	if addr == 0 {
		addr = DefaultAddr
	}
	return &Codec{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Message is the two byte encoding of a register write.
func Message(reg Register, value uint16) [2]byte {
	return [2]byte{
		byte(reg)<<1 | byte((value>>8)&0x01),
		byte(value & 0xFF),
	}
}

func (c *Codec) WriteRegister(reg Register, value uint16) error {
	msg := Message(reg, value&VALUE_MASK)
	if err := c.dev.Tx(msg[:], nil); err != nil {
		return fmt.Errorf("codec: write %s: %w", reg, err)
	}
	return nil
}

// Configure runs the startup sequence and stops at the first failed write.
func (c *Codec) Configure(s Settings) error {
	seq, err := s.Sequence()
	if err != nil {
		return err
	}
	for _, w := range seq {
		if err := c.WriteRegister(w.Reg, w.Value); err != nil {
			return err
		}
	}
	return nil
}
