package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var TestRegisterWriteIsExpectedMessage = []struct {
	Reg    Register
	Value  uint16
	Expect [2]byte
}{
	{RegReset, 0x000, [2]byte{0x1E, 0x00}},
	{RegLeftLineIn, 0x117, [2]byte{0x01, 0x17}},
	{RegRightLineIn, 0x117, [2]byte{0x03, 0x17}},
	{RegSampleRate, 0x00D, [2]byte{0x10, 0x0D}},
	{RegDigitalFormat, 0x042, [2]byte{0x0E, 0x42}},
	{RegDigitalActive, 0x001, [2]byte{0x12, 0x01}},
	{RegAnalogPath, 0x1FF, [2]byte{0x09, 0xFF}},
}

func TestMessage(t *testing.T) {
	for _, v := range TestRegisterWriteIsExpectedMessage {
		assert.Equal(t, v.Expect, Message(v.Reg, v.Value), "register %s", v.Reg)
	}
}

func TestWriteRegisterMasksValue(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddr, W: []byte{0x0B, 0x34}},
	}, DontPanic: true}
	require.NoError(t, New(bus, 0).WriteRegister(RegDigitalPath, 0xFF34))
	assert.NoError(t, bus.Close())
}

func TestConfigureDefaultSequence(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1A, W: []byte{0x1E, 0x00}}, // reset
		{Addr: 0x1A, W: []byte{0x0C, 0x00}}, // power everything on
		{Addr: 0x1A, W: []byte{0x01, 0x17}}, // left line in, 0 dB, both
		{Addr: 0x1A, W: []byte{0x03, 0x17}}, // right line in
		{Addr: 0x1A, W: []byte{0x10, 0x0D}}, // 8 kHz, USB mode
		{Addr: 0x1A, W: []byte{0x08, 0x12}}, // DAC, line input, mic muted
		{Addr: 0x1A, W: []byte{0x0A, 0x00}}, // soft mute off
		{Addr: 0x1A, W: []byte{0x0E, 0x42}}, // master, I2S
		{Addr: 0x1A, W: []byte{0x12, 0x01}}, // activate
	}, DontPanic: true}
	require.NoError(t, New(bus, DefaultAddr).Configure(DefaultSettings()))
	assert.NoError(t, bus.Close())
}

func TestConfigureMicInput(t *testing.T) {
	s := DefaultSettings()
	s.Input = MicInput
	s.MicBoost = true
	seq, err := s.Sequence()
	require.NoError(t, err)
	assert.Equal(t, Write{RegAnalogPath, PathDAC | PathMicInput | PathMicBoost}, seq[5])
}

func TestSampleRateBits(t *testing.T) {
	v, err := SampleRateBits(48 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, RateUSB, v)
	v, err = SampleRateBits(44100 * physic.Hertz)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x23), v)

	_, err = SampleRateBits(11025 * physic.Hertz)
	assert.ErrorIs(t, err, ErrSampleRate)

	s := DefaultSettings()
	s.SampleRate = 22 * physic.KiloHertz
	err = New(&i2ctest.Playback{DontPanic: true}, 0).Configure(s)
	assert.ErrorIs(t, err, ErrSampleRate)
}

func TestConfigureStopsAtFirstFailure(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1A, W: []byte{0x1E, 0x00}},
	}, DontPanic: true}
	err := New(bus, 0).Configure(DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write power")
}
