package led_test

import (
	"bytes"
	"testing"

	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"
)

func TestStripShowWritesFrame(t *testing.T) {
	buf := bytes.Buffer{}
	o := nrzled.Opts{NumPixels: model.SLOT_COUNT, Channels: 3, Freq: led.DFLT_STRIP_FREQ}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &o)
	require.NoError(t, err)
	s := led.NewStrip(d)

	buf.Reset()
	require.NoError(t, s.Show(model.ColorVector{}))
	dark := append([]byte(nil), buf.Bytes()...)
	require.NotEmpty(t, dark)

	buf.Reset()
	require.NoError(t, s.Show(model.ColorVector{model.Red, model.Red, model.Orange}))
	lit := append([]byte(nil), buf.Bytes()...)
	assert.Len(t, lit, len(dark))
	assert.NotEqual(t, dark, lit)

	assert.False(t, s.Hardware)
	assert.NoError(t, s.Close())
}

func TestStripInDisplays(t *testing.T) {
	buf := bytes.Buffer{}
	o := nrzled.Opts{NumPixels: model.SLOT_COUNT, Channels: 3, Freq: led.DFLT_STRIP_FREQ}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &o)
	require.NoError(t, err)

	sr := &shiftRegister{}
	ds := led.Displays{led.NewDriver(sr), led.NewStrip(d)}
	buf.Reset()
	require.NoError(t, ds.Show(model.ColorVector{model.Red}))
	assert.Equal(t, uint16(model.Red), sr.reg)
	assert.NotZero(t, buf.Len())
}
