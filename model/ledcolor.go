package model

import (
	"image/color"
)

// Colour is the 2-bit code a single LED slot displays. Values outside
// [Off, Orange] are representable so that callers can pass anything; they
// display as Off.
type Colour int

const (
	Off Colour = iota
	Red
	Green
	Orange
)

const (
	COLOUR_BITS uint8  = 2
	COLOUR_MASK uint16 = 0x3
	MAX_COLOUR         = Orange
)

var colourNames = map[Colour]string{
	Off:    "off",
	Red:    "red",
	Green:  "green",
	Orange: "orange",
}

// Valid reports whether c is one of the four displayable codes.
func (c Colour) Valid() bool {
	return c >= Off && c <= MAX_COLOUR
}

// Clamp returns c when valid, Off otherwise.
func (c Colour) Clamp() Colour {
	if !c.Valid() {
		return Off
	}
	return c
}

func (c Colour) String() string {
	if n, ok := colourNames[c]; ok {
		return n
	}
	return "invalid"
}

// ParseColour maps a colour name (or its numeric code) to a Colour. Unknown
// names come back as Off with ok=false.
func ParseColour(s string) (Colour, bool) {
	for c, n := range colourNames {
		if n == s {
			return c, true
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '3' {
		return Colour(s[0] - '0'), true
	}
	return Off, false
}

// ToRGB is the colour a bicolour red/green LED shows for c, used when the
// progress vector is mirrored on an RGB strip.
func (c Colour) ToRGB() color.NRGBA {
	switch c.Clamp() {
	case Red:
		return color.NRGBA{R: 255, A: 255}
	case Green:
		return color.NRGBA{G: 255, A: 255}
	case Orange:
		return color.NRGBA{R: 255, G: 140, A: 255}
	default:
		return color.NRGBA{A: 255}
	}
}

func getslot(p uint16, slot uint8) Colour {
	off := slot * COLOUR_BITS
	var mask uint16 = COLOUR_MASK << off
	return Colour((p & mask) >> off)
}
