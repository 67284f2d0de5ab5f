package led_test

import (
	"errors"
	"testing"

	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// shiftRegister behaves like the display's receiver: it samples the data
// line on each rising clock edge.
type shiftRegister struct {
	clock, data bool
	reg         uint16
	pulses      int
	afterClear  uint16
}

func (s *shiftRegister) SetClock(active bool) error {
	if active && !s.clock {
		s.reg <<= 1
		if s.data {
			s.reg |= 1
		}
		s.pulses++
		if s.pulses == model.PATTERN_BITS {
			s.afterClear = s.reg
		}
	}
	s.clock = active
	return nil
}

func (s *shiftRegister) SetData(active bool) error {
	s.data = active
	return nil
}

func (s *shiftRegister) shown() model.ColorVector {
	return model.Decode(model.ShiftPattern(s.reg))
}

func TestTransmitShiftsPatternMSBFirst(t *testing.T) {
	for _, p := range []model.ShiftPattern{0x0000, 0xFFFF, 0x8001, 0x1234, 0xC0DE} {
		sr := &shiftRegister{reg: 0xFFFF}
		require.NoError(t, led.NewDriver(sr).Transmit(p))
		assert.Equal(t, uint16(p), sr.reg)
		assert.Equal(t, 2*model.PATTERN_BITS, sr.pulses)
		assert.Equal(t, uint16(0), sr.afterClear, "clear phase must shift in zeros")
		assert.False(t, sr.clock, "clock should idle inactive")
	}
}

func TestSetAll(t *testing.T) {
	sr := &shiftRegister{}
	v := model.ColorVector{model.Red, model.Green, model.Orange, 6: model.Green, 7: model.Colour(9)}
	require.NoError(t, led.NewDriver(sr).SetAll(v))
	assert.Equal(t, v.Clamped(), sr.shown())
}

func TestSetOneIsNotAdditive(t *testing.T) {
	sr := &shiftRegister{}
	d := led.NewDriver(sr)
	require.NoError(t, d.SetAll(model.ColorVector{5: model.Green}))
	require.NoError(t, d.SetOne(2, model.Red))
	assert.Equal(t, model.ColorVector{2: model.Red}, sr.shown())
	assert.Equal(t, uint16(model.Red)<<4, sr.reg)
}

func TestSetOneOutOfRangeBlanks(t *testing.T) {
	sr := &shiftRegister{}
	d := led.NewDriver(sr)
	require.NoError(t, d.SetAll(model.ColorVector{model.Orange, model.Orange}))
	require.NoError(t, d.SetOne(8, model.Red))
	assert.Equal(t, uint16(0), sr.reg)
	require.NoError(t, d.SetOne(1, model.Colour(-1)))
	assert.Equal(t, uint16(0), sr.reg)
}

type recPin struct {
	gpiotest.Pin
	levels []gpio.Level
}

func (p *recPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

func TestPinLinkLevels(t *testing.T) {
	clk := &recPin{Pin: gpiotest.Pin{N: "CLK"}}
	dat := &recPin{Pin: gpiotest.Pin{N: "DAT"}}
	d := led.NewDriver(&led.PinLink{Clock: clk, Data: dat})
	require.NoError(t, d.Transmit(0x8001))

	require.Len(t, clk.levels, 1+4*model.PATTERN_BITS)
	assert.Equal(t, gpio.Low, clk.levels[0])
	for i := 1; i < len(clk.levels); i += 2 {
		assert.Equal(t, gpio.High, clk.levels[i])
		assert.Equal(t, gpio.Low, clk.levels[i+1])
	}

	// inactive during the clear, then one level per bit
	require.Len(t, dat.levels, 1+model.PATTERN_BITS)
	assert.Equal(t, gpio.High, dat.levels[0])
	assert.Equal(t, gpio.Low, dat.levels[1], "bit 15 set drives data low")
	for i := 2; i < model.PATTERN_BITS; i++ {
		assert.Equal(t, gpio.High, dat.levels[i], "bit %d", model.PATTERN_BITS-i)
	}
	assert.Equal(t, gpio.Low, dat.levels[model.PATTERN_BITS], "bit 0 set drives data low")
	assert.Equal(t, gpio.Low, clk.Pin.L)
}

type failingLink struct {
	left int
}

var errPin = errors.New("pin stuck")

func (f *failingLink) SetClock(bool) error { return f.step() }
func (f *failingLink) SetData(bool) error  { return f.step() }

func (f *failingLink) step() error {
	if f.left == 0 {
		return errPin
	}
	f.left--
	return nil
}

func TestTransmitStopsOnLinkError(t *testing.T) {
	for _, n := range []int{0, 1, 5, 40, 65} {
		err := led.NewDriver(&failingLink{left: n}).Transmit(0xFFFF)
		assert.ErrorIs(t, err, errPin, "failing after %d calls", n)
	}
	assert.NoError(t, led.NewDriver(&failingLink{left: 2 + 2*16 + 3*16}).Transmit(0xFFFF))
}

type countingDisplay struct {
	last  model.ColorVector
	shows int
	err   error
}

func (c *countingDisplay) Show(v model.ColorVector) error {
	c.last = v
	c.shows++
	return c.err
}

func TestDisplaysShowsOnEveryDisplay(t *testing.T) {
	a := &countingDisplay{err: errPin}
	b := &countingDisplay{}
	v := model.ColorVector{model.Red, model.Red}
	err := led.Displays{a, b}.Show(v)
	assert.ErrorIs(t, err, errPin)
	assert.Equal(t, 1, b.shows)
	assert.Equal(t, v, b.last)
	assert.NoError(t, led.Displays{b}.Show(v))
}

func TestRecorderKeepsLastVector(t *testing.T) {
	d := &countingDisplay{err: errPin}
	r := &led.Recorder{Display: d}
	v := model.Single(3, model.Orange)
	assert.ErrorIs(t, r.Show(v), errPin)
	last, n := r.Last()
	assert.Equal(t, v, last, "recorded even when the display fails")
	assert.Equal(t, 1, n)

	require.NoError(t, (&led.Recorder{}).Show(v))
}
