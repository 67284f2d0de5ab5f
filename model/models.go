package model

import (
	"fmt"
	"image"
)

const (
	SLOT_COUNT   = 8
	PATTERN_BITS = 16
)

// ShiftPattern is the packed form of a ColorVector as it is clocked out to
// the display: slot i lives in bits [2i+1:2i], slot 0 least significant.
type ShiftPattern uint16

func (p ShiftPattern) String() string {
	return fmt.Sprintf("0x%04x", uint16(p))
}

// Slot returns the colour packed at slot i. Out of range slots read as Off.
func (p ShiftPattern) Slot(i int) Colour {
	if i < 0 || i >= SLOT_COUNT {
		return Off
	}
	return getslot(uint16(p), uint8(i))
}

// ColorVector holds one colour per LED; index 0 is LED 1.
type ColorVector [SLOT_COUNT]Colour

// Single builds a vector that is Off everywhere except led. An index or
// colour out of range yields an all-Off vector.
func Single(led int, c Colour) ColorVector {
	var v ColorVector
	if led >= 0 && led < SLOT_COUNT && c.Valid() {
		v[led] = c
	}
	return v
}

// Decode unpacks a pattern. Decode(v.Encode()) equals v with every slot
// clamped.
func Decode(p ShiftPattern) ColorVector {
	var v ColorVector
	for i := range v {
		v[i] = p.Slot(i)
	}
	return v
}

// Encode packs the vector, walking slots from 7 down to 0 so that slot 0
// ends up in the low bits. Invalid codes are packed as Off.
func (v ColorVector) Encode() ShiftPattern {
	var p uint16
	for i := SLOT_COUNT - 1; i >= 0; i-- {
		p = (p << COLOUR_BITS) | uint16(v[i].Clamp())
	}
	return ShiftPattern(p)
}

// Set writes the clamped colour at slot i; out of range slots are ignored.
func (v *ColorVector) Set(i int, c Colour) {
	if i < 0 || i >= SLOT_COUNT {
		return
	}
	v[i] = c.Clamp()
}

// Reset turns every slot off in place.
func (v *ColorVector) Reset() {
	for i := range v {
		v[i] = Off
	}
}

// AdvanceNext lights the first Off slot, scanning from slot 0. A full vector
// is left untouched; it never wraps.
func (v *ColorVector) AdvanceNext() {
	for i := range v {
		if v[i] == Off {
			v[i] = Red
			return
		}
	}
}

// Lit counts the slots that are not Off.
func (v ColorVector) Lit() int {
	n := 0
	for _, c := range v {
		if c.Clamp() != Off {
			n++
		}
	}
	return n
}

func (v ColorVector) Clamped() ColorVector {
	var out ColorVector
	for i, c := range v {
		out[i] = c.Clamp()
	}
	return out
}

func (v ColorVector) String() string {
	s := "["
	for i, c := range v {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s + "]"
}

// Image renders the vector as an 8x1 strip, LED 1 leftmost.
func (v ColorVector) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, SLOT_COUNT, 1))
	for x := 0; x < im.Rect.Max.X; x++ {
		im.SetNRGBA(x, 0, v[x].ToRGB())
	}
	return im
}
