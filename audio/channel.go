package audio

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// SLOTS_PER_SAMPLE is the number of channel slots carrying one mono sample.
// The first slot holds the sample; the second is discarded on receive and
// sent as silence on transmit.
const SLOTS_PER_SAMPLE = 2

// Channel is the polled, full-duplex sample interface of the codec. The
// ready calls never block; the engine spins on them.
type Channel interface {
	ReceiveReady() bool
	ReceiveSample() (int16, error)
	TransmitReady() bool
	TransmitSample(s int16) error
}

// Framed is implemented by channels that buffer slots between calls. The
// engine calls Begin before a stream so nothing carries over from an earlier
// one, and End after the last slot to deliver what is pending and report
// any error the ready calls could not.
type Framed interface {
	Begin()
	End() error
}

// SimChannel is always ready. Received slots come from Source and
// transmitted slots go to Sink; either may be nil.
type SimChannel struct {
	Source func(slot int) int16
	Sink   func(slot int, s int16)

	rx, tx int
}

// NewToneChannel returns a SimChannel whose first slot carries a sine tone
// and whose second slot carries the same tone inverted.
func NewToneChannel(tone, rate physic.Frequency, amplitude int16) *SimChannel {
	step := 2 * math.Pi * float64(tone) / float64(rate)
	return &SimChannel{
		Source: func(slot int) int16 {
			v := int16(float64(amplitude) * math.Sin(step*float64(slot/SLOTS_PER_SAMPLE)))
			if slot%SLOTS_PER_SAMPLE == 1 {
				return -v
			}
			return v
		},
	}
}

func (c *SimChannel) ReceiveReady() bool  { return true }
func (c *SimChannel) TransmitReady() bool { return true }

func (c *SimChannel) ReceiveSample() (int16, error) {
	var s int16
	if c.Source != nil {
		s = c.Source(c.rx)
	}
	c.rx++
	return s, nil
}

func (c *SimChannel) TransmitSample(s int16) error {
	if c.Sink != nil {
		c.Sink(c.tx, s)
	}
	c.tx++
	return nil
}

// Slots returns how many slots have been received and transmitted.
func (c *SimChannel) Slots() (rx, tx int) {
	return c.rx, c.tx
}
