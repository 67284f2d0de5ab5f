package audio

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

var TestMixIsExpectedSample = []struct {
	Dry      int16
	Delayed  int16
	Wrap     int16
	Saturate int16
}{
	{0, 0, 0, 0},
	{100, 100, 180, 180},
	{-300, -100, -380, -380},
	{0, 7, 5, 5},
	{0, -7, -5, -5},
	{0, 1, 0, 0},
	{0, 32767, 26213, 26213},
	{0, -32768, -26214, -26214},
	{30000, 10000, -27536, 32767},
	{-30000, -10000, 27536, -32768},
}

func TestMix(t *testing.T) {
	for k, v := range TestMixIsExpectedSample {
		t.Run("Given pair "+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Wrap, EchoConfig{Enabled: true}.Mix(v.Dry, v.Delayed))
			assert.Equal(t, v.Saturate, EchoConfig{Enabled: true, Saturate: true}.Mix(v.Dry, v.Delayed))
		})
	}
}

func TestSampleDryHalfAndDisabled(t *testing.T) {
	buf := []int16{1, 2, 3, 4, 50, 60, 70, 80}
	on := EchoConfig{Enabled: true}
	off := EchoConfig{}
	for frame := 0; frame < 2*len(buf); frame += 2 {
		assert.Equal(t, buf[frame/2], off.Sample(buf, frame))
		assert.False(t, off.Echoed(len(buf), frame))
		if frame < len(buf) {
			assert.Equal(t, buf[frame/2], on.Sample(buf, frame))
			assert.False(t, on.Echoed(len(buf), frame))
		} else {
			assert.True(t, on.Echoed(len(buf), frame))
		}
	}
	assert.Equal(t, int16(50+0), on.Sample(buf, 8))
	assert.Equal(t, int16(80+3), on.Sample(buf, 14))
}
