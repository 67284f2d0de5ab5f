package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-echobox/audio"
	"github.com/coreman2200/funtimes-echobox/codec"
	"github.com/coreman2200/funtimes-echobox/config"
	"github.com/coreman2200/funtimes-echobox/dispatch"
	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/model"
)

// board is everything opened from the config, hardware or simulated.
type board struct {
	display led.Displays
	channel audio.Channel
	buttons dispatch.Buttons
	closers []io.Closer
}

func (b *board) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i].Close()
	}
}

func openBoard(cfg *config.Config, sim bool, logger zerolog.Logger) (*board, error) {
	b := &board{}
	if err := b.openDisplay(cfg, sim, logger); err != nil {
		b.Close()
		return nil, err
	}
	if !sim {
		if err := configureCodec(cfg, logger); err != nil {
			b.Close()
			return nil, err
		}
	}
	if err := b.openChannel(cfg, logger); err != nil {
		b.Close()
		return nil, err
	}
	if !sim {
		if err := b.openButtons(cfg); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no gpio pin %q", name)
	}
	return p, nil
}

func (b *board) openDisplay(cfg *config.Config, sim bool, logger zerolog.Logger) error {
	if sim {
		b.display = append(b.display, led.NewStrip(screen.New(model.SLOT_COUNT)))
		return nil
	}
	clk, err := pin(cfg.LED.ClockPin)
	if err != nil {
		return fmt.Errorf("led clock: %w", err)
	}
	data, err := pin(cfg.LED.DataPin)
	if err != nil {
		return fmt.Errorf("led data: %w", err)
	}
	drv := led.NewDriver(&led.PinLink{Clock: clk, Data: data})
	if err := drv.SetAll(model.ColorVector{}); err != nil {
		return err
	}
	b.display = append(b.display, drv)
	logger.Info().Str("clock", clk.Name()).Str("data", data.Name()).Msg("leds ready")

	if cfg.LED.Mirror.Enabled {
		s, err := led.OpenStrip(cfg.LED.Mirror.SPI, physic.Frequency(cfg.LED.Mirror.FreqKHz)*physic.KiloHertz, logger)
		if err != nil {
			return err
		}
		b.display = append(b.display, s)
		b.closers = append(b.closers, s)
		logger.Info().Bool("hardware", s.Hardware).Msg("led mirror ready")
	}
	return nil
}

func configureCodec(cfg *config.Config, logger zerolog.Logger) error {
	bus, err := i2creg.Open(cfg.Codec.I2CBus)
	if err != nil {
		return fmt.Errorf("codec bus: %w", err)
	}
	defer bus.Close()
	if cfg.Codec.I2CHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(cfg.Codec.I2CHz) * physic.Hertz); err != nil {
			logger.Warn().Err(err).Int("hz", cfg.Codec.I2CHz).Msg("cannot set i2c speed")
		}
	}

	s := codec.DefaultSettings()
	s.SampleRate = cfg.Codec.Rate()
	s.InputVolume = cfg.Codec.InputVolume
	s.MicBoost = cfg.Codec.MicBoost
	if strings.EqualFold(cfg.Codec.Input, "mic") {
		s.Input = codec.MicInput
	}
	if err := codec.New(bus, cfg.Codec.Address).Configure(s); err != nil {
		return err
	}
	logger.Info().Str("bus", bus.String()).Int("rate", cfg.Codec.SampleRate).Str("input", cfg.Codec.Input).Msg("codec configured")
	return nil
}

func (b *board) openChannel(cfg *config.Config, logger zerolog.Logger) error {
	switch cfg.Channel.Driver {
	case "sim":
		tone := physic.Frequency(cfg.Channel.ToneHz) * physic.Hertz
		b.channel = audio.NewToneChannel(tone, cfg.Codec.Rate(), 8000)
		logger.Info().Str("tone", tone.String()).Msg("simulated sample channel")
	default:
		ch, port, err := audio.OpenSPIChannel(cfg.Channel.SPI, cfg.Channel.Speed())
		if err != nil {
			return err
		}
		b.channel = ch
		b.closers = append(b.closers, port)
		logger.Info().Str("spi", port.String()).Str("speed", cfg.Channel.Speed().String()).Msg("sample channel ready")
	}
	return nil
}

func (b *board) openButtons(cfg *config.Config) error {
	open := func(name string) (dispatch.Button, error) {
		if name == "" {
			return nil, nil
		}
		p, err := pin(name)
		if err != nil {
			return nil, err
		}
		return dispatch.NewPinButton(p)
	}
	var err error
	if b.buttons.Capture, err = open(cfg.Buttons.Capture); err != nil {
		return fmt.Errorf("capture button: %w", err)
	}
	if b.buttons.Play, err = open(cfg.Buttons.Play); err != nil {
		return fmt.Errorf("play button: %w", err)
	}
	if b.buttons.Echo, err = open(cfg.Buttons.Echo); err != nil {
		return fmt.Errorf("echo button: %w", err)
	}
	return nil
}
