package led

import (
	"fmt"
	"image"

	"github.com/coreman2200/funtimes-echobox/model"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

const DFLT_STRIP_FREQ = 2500 * physic.KiloHertz

// Strip mirrors the progress vector on an 8 pixel NRZ strip, or on the
// console when there is no SPI port to drive one.
type Strip struct {
	drawer   display.Drawer
	port     spi.PortCloser
	Hardware bool
}

func NewStrip(d display.Drawer) *Strip {
	return &Strip{drawer: d}
}

func OpenStrip(name string, freq physic.Frequency, logger zerolog.Logger) (*Strip, error) {
	if freq == 0 {
		freq = DFLT_STRIP_FREQ
	}
	p, err := spireg.Open(name)
	if err != nil {
		logger.Warn().Err(err).Str("spi", name).Msg("no SPI port for the LED strip, mirroring on the console")
		return &Strip{drawer: screen.New(model.SLOT_COUNT)}, nil
	}

	opts := nrzled.Opts{
		NumPixels: model.SLOT_COUNT,
		Channels:  3,
		Freq:      freq,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("led: strip on %q: %w", name, err)
	}
	if err := d.Halt(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("led: strip halt: %w", err)
	}
	return &Strip{drawer: d, port: p, Hardware: true}, nil
}

func (s *Strip) Show(v model.ColorVector) error {
	if err := s.drawer.Draw(s.drawer.Bounds(), v.Image(), image.Point{}); err != nil {
		return fmt.Errorf("led: strip draw: %w", err)
	}
	return nil
}

func (s *Strip) Close() error {
	err := s.drawer.Halt()
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
