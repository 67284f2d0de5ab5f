package audio

import "math"

// ATTENUATION scales the delayed copy before it is mixed back in. It is a
// float32 so the product truncates exactly as the board's single precision
// multiply does.
const ATTENUATION float32 = 0.8

// EchoConfig selects how playback treats the second half of the buffer.
type EchoConfig struct {
	Enabled bool
	// Saturate clamps the mixed sample to the int16 range. When false the
	// sum wraps around like native 16-bit arithmetic.
	Saturate bool
}

// Mix adds the attenuated delayed sample to dry. The attenuated value is
// truncated toward zero before the addition.
func (e EchoConfig) Mix(dry, delayed int16) int16 {
	wet := int16(ATTENUATION * float32(delayed))
	if !e.Saturate {
		return dry + wet
	}
	sum := int32(dry) + int32(wet)
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}
	if sum < math.MinInt16 {
		return math.MinInt16
	}
	return int16(sum)
}

// Sample is the value sent in the even frame slot frame of a playback of
// buf. The first len(buf) frames always play dry; after that, with the echo
// enabled, each sample carries the one len(buf)/2 samples before it.
func (e EchoConfig) Sample(buf []int16, frame int) int16 {
	s := frame / SLOTS_PER_SAMPLE
	if !e.Enabled || frame < len(buf) {
		return buf[s]
	}
	return e.Mix(buf[s], buf[s-len(buf)/2])
}

// Echoed reports whether the even frame slot frame gets the echo mixed in.
func (e EchoConfig) Echoed(n, frame int) bool {
	return e.Enabled && frame%SLOTS_PER_SAMPLE == 0 && frame >= n
}
