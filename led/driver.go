package led

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coreman2200/funtimes-echobox/model"
	"periph.io/x/conn/v3/gpio"
)

// Link is the two-wire bit-banged connection to the display's shift
// register. Both calls are idempotent and take effect immediately.
type Link interface {
	SetClock(active bool) error
	SetData(active bool) error
}

// Display is anything that can show a progress vector.
type Display interface {
	Show(v model.ColorVector) error
}

// PinLink drives the link through two GPIO outputs. The clock idles low and
// is active high; the data line is active low.
type PinLink struct {
	Clock gpio.PinOut
	Data  gpio.PinOut
}

func (l *PinLink) SetClock(active bool) error {
	if err := l.Clock.Out(gpio.Level(active)); err != nil {
		return fmt.Errorf("led: clock %s: %w", l.Clock, err)
	}
	return nil
}

func (l *PinLink) SetData(active bool) error {
	if err := l.Data.Out(gpio.Level(!active)); err != nil {
		return fmt.Errorf("led: data %s: %w", l.Data, err)
	}
	return nil
}

// Driver serializes colour vectors onto a Link.
type Driver struct {
	link Link
}

func NewDriver(l Link) *Driver {
	return &Driver{link: l}
}

// Transmit flushes the receiving register with 16 idle clocks and then
// shifts p out MSB first. A set bit drives the data line active. There is
// no latch: the receiver shows whatever has been shifted in.
func (d *Driver) Transmit(p model.ShiftPattern) error {
	if err := d.link.SetClock(false); err != nil {
		return err
	}
	if err := d.link.SetData(false); err != nil {
		return err
	}
	for i := 0; i < model.PATTERN_BITS; i++ {
		if err := d.pulse(); err != nil {
			return err
		}
	}

	bits := uint16(p)
	for i := 0; i < model.PATTERN_BITS; i++ {
		if err := d.link.SetData(bits&0x8000 != 0); err != nil {
			return err
		}
		if err := d.pulse(); err != nil {
			return err
		}
		bits <<= 1
	}
	return nil
}

func (d *Driver) pulse() error {
	if err := d.link.SetClock(true); err != nil {
		return err
	}
	return d.link.SetClock(false)
}

// SetAll shows the whole vector.
func (d *Driver) SetAll(v model.ColorVector) error {
	return d.Transmit(v.Encode())
}

// SetOne lights a single LED and clears every other one. Bad input blanks
// the display.
func (d *Driver) SetOne(led int, c model.Colour) error {
	return d.SetAll(model.Single(led, c))
}

func (d *Driver) Show(v model.ColorVector) error {
	return d.SetAll(v)
}

// Displays shows a vector on each display in turn. Every display is tried;
// the errors are joined.
type Displays []Display

func (ds Displays) Show(v model.ColorVector) error {
	var errs []error
	for _, d := range ds {
		if err := d.Show(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder passes vectors on to Display and remembers the last one shown.
type Recorder struct {
	Display Display

	mu    sync.Mutex
	last  model.ColorVector
	shown int
}

func (r *Recorder) Show(v model.ColorVector) error {
	r.mu.Lock()
	r.last = v
	r.shown++
	r.mu.Unlock()
	if r.Display == nil {
		return nil
	}
	return r.Display.Show(v)
}

// Last returns the last vector shown and how many vectors have been shown.
func (r *Recorder) Last() (model.ColorVector, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.shown
}
