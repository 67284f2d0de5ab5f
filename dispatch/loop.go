package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

const DFLT_POLL_INTERVAL = 20 * time.Millisecond

type Button interface {
	Pressed() bool
}

// PinButton is a push button wired to ground with the pin pulled up, so a
// press reads Low.
type PinButton struct {
	Pin gpio.PinIn
}

func NewPinButton(p gpio.PinIn) (*PinButton, error) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("dispatch: button %s: %w", p, err)
	}
	return &PinButton{Pin: p}, nil
}

func (b *PinButton) Pressed() bool {
	return b.Pin.Read() == gpio.Low
}

// Buttons are polled in field order; a nil button is never pressed.
type Buttons struct {
	Capture Button
	Play    Button
	Echo    Button
}

// Poll returns the highest priority pressed button's action.
func (b Buttons) Poll() Action {
	switch {
	case pressed(b.Capture):
		return Capture
	case pressed(b.Play):
		return Play
	case pressed(b.Echo):
		return Echo
	}
	return None
}

func pressed(b Button) bool {
	return b != nil && b.Pressed()
}

// Looper polls the buttons and runs the chosen action until stopped, its
// context ends or the process is interrupted.
type Looper struct {
	buttons  Buttons
	session  *Session
	interval time.Duration
	log      zerolog.Logger

	quit     chan bool
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	c        chan os.Signal
}

func NewLooper(b Buttons, s *Session, interval time.Duration, logger zerolog.Logger) *Looper {
	if interval <= 0 {
		interval = DFLT_POLL_INTERVAL
	}
	return &Looper{
		buttons:  b,
		session:  s,
		interval: interval,
		log:      logger,
		quit:     make(chan bool),
	}
}

func (l *Looper) poll() {
	ticker := time.NewTicker(l.interval)
	defer func() {
		ticker.Stop()
		l.wg.Done()
	}()

	for {
		select {
		case <-ticker.C:
			a := l.buttons.Poll()
			if a == None {
				continue
			}
			l.log.Debug().Stringer("action", a).Msg("button")
			// a stream can outlast several ticks; the session logs failures
			if err := l.session.Run(l.ctx, a); err != nil && l.ctx.Err() != nil {
				l.log.Debug().Stringer("action", a).Msg("stream cut short by shutdown")
			}
			ticker.Reset(l.interval)

		case <-l.ctx.Done():
			return
		}
	}
}

// trap cancels the loop context on Stop or an interrupt, so a running
// stream is cut short too.
func (l *Looper) trap() {
	select {
	case <-l.quit:
	case sig := <-l.c:
		l.log.Warn().Stringer("signal", sig).Msg("aborting")
	case <-l.ctx.Done():
	}
	l.cancel()
}

// Start blocks until the loop ends.
func (l *Looper) Start(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.wg = &sync.WaitGroup{}
	l.wg.Add(1)

	l.c = make(chan os.Signal, 1)
	signal.Notify(l.c, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(l.c)
		l.cancel()
	}()

	l.log.Info().Dur("poll", l.interval).Msg("waiting for buttons")
	go l.trap()
	go l.poll()

	l.wg.Wait()
}

func (l *Looper) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}
