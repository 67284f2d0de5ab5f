package audio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/metrics"
	"github.com/coreman2200/funtimes-echobox/model"
	"github.com/rs/zerolog"
)

// ErrBufferLength is returned before any I/O when the buffer cannot be
// split into eight progress steps.
var ErrBufferLength = errors.New("audio: buffer length must be a positive multiple of 8")

const (
	OP_CAPTURE  = "capture"
	OP_PLAYBACK = "playback"
	OP_ECHO     = "echo"
)

// ValidateLength checks that n samples give a whole, non-zero progress step.
func ValidateLength(n int) error {
	if n < model.SLOT_COUNT || n%model.SLOT_COUNT != 0 {
		return fmt.Errorf("%w: got %d", ErrBufferLength, n)
	}
	return nil
}

// Engine moves samples between a caller-owned buffer and a Channel, lighting
// one more LED on the display every eighth of the run. It is not safe for
// concurrent use.
type Engine struct {
	ch       Channel
	display  led.Display
	saturate bool
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSaturation makes echo mixing clamp instead of wrap.
func WithSaturation(on bool) Option {
	return func(e *Engine) { e.saturate = on }
}

func NewEngine(ch Channel, d led.Display, opts ...Option) *Engine {
	e := &Engine{
		ch:      ch,
		display: d,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Capture fills buf with the first slot of each received sample pair. It
// returns once len(buf) samples are stored; on error the buffer contents
// are not reliable.
func (e *Engine) Capture(ctx context.Context, buf []int16) (err error) {
	n := len(buf)
	if err := ValidateLength(n); err != nil {
		return err
	}
	start := time.Now()
	defer func() { e.finish(OP_CAPTURE, n, start, err) }()

	e.begin()
	var progress model.ColorVector
	if err := e.clear(&progress); err != nil {
		return err
	}

	step := n / model.SLOT_COUNT
	var pair [SLOTS_PER_SAMPLE]int16
	for i := 0; i < n; i++ {
		for j := range pair {
			if err := e.wait(ctx, e.ch.ReceiveReady, "receive", i); err != nil {
				return err
			}
			s, err := e.ch.ReceiveSample()
			if err != nil {
				return fmt.Errorf("audio: receive sample %d: %w", i, err)
			}
			pair[j] = s
		}
		buf[i] = pair[0]

		if i%step == 0 {
			if err := e.advance(&progress); err != nil {
				return err
			}
		}
	}
	if err := e.end(); err != nil {
		return err
	}
	e.metrics.RecordCaptured(n)
	return nil
}

// Playback sends buf as 2*len(buf) slots, silence in every odd slot. With
// echo set the second half of the run carries the attenuated first half.
func (e *Engine) Playback(ctx context.Context, buf []int16, echo bool) (err error) {
	n := len(buf)
	if err := ValidateLength(n); err != nil {
		return err
	}
	op := OP_PLAYBACK
	if echo {
		op = OP_ECHO
	}
	start := time.Now()
	defer func() { e.finish(op, n, start, err) }()

	e.begin()
	var progress model.ColorVector
	if err := e.clear(&progress); err != nil {
		return err
	}

	mix := EchoConfig{Enabled: echo, Saturate: e.saturate}
	frames := SLOTS_PER_SAMPLE * n
	step := frames / model.SLOT_COUNT
	echoed := 0
	for i := 0; i < frames; i++ {
		var s int16
		if i%SLOTS_PER_SAMPLE == 0 {
			s = mix.Sample(buf, i)
			if mix.Echoed(n, i) {
				echoed++
			}
		}
		if err := e.ch.TransmitSample(s); err != nil {
			return fmt.Errorf("audio: transmit slot %d: %w", i, err)
		}

		if i%step == 0 {
			if err := e.advance(&progress); err != nil {
				return err
			}
		}

		if err := e.wait(ctx, e.ch.TransmitReady, "transmit", i); err != nil {
			return err
		}
	}
	if err := e.end(); err != nil {
		return err
	}
	e.metrics.RecordPlayed(n, echoed)
	return nil
}

func (e *Engine) begin() {
	if f, ok := e.ch.(Framed); ok {
		f.Begin()
	}
}

func (e *Engine) end() error {
	f, ok := e.ch.(Framed)
	if !ok {
		return nil
	}
	if err := f.End(); err != nil {
		return fmt.Errorf("audio: end of stream: %w", err)
	}
	return nil
}

func (e *Engine) clear(v *model.ColorVector) error {
	v.Reset()
	return e.show(*v)
}

func (e *Engine) advance(v *model.ColorVector) error {
	v.AdvanceNext()
	return e.show(*v)
}

func (e *Engine) show(v model.ColorVector) error {
	if err := e.display.Show(v); err != nil {
		return fmt.Errorf("audio: progress display: %w", err)
	}
	e.metrics.RecordLEDFrame()
	return nil
}

// wait spins until ready reports true or ctx ends.
func (e *Engine) wait(ctx context.Context, ready func() bool, slot string, i int) error {
	done := ctx.Done()
	for {
		select {
		case <-done:
			e.metrics.RecordStall(slot)
			return fmt.Errorf("audio: waiting for %s slot %d: %w", slot, i, ctx.Err())
		default:
		}
		if ready() {
			return nil
		}
		runtime.Gosched()
	}
}

func (e *Engine) finish(op string, n int, start time.Time, err error) {
	elapsed := time.Since(start)
	e.metrics.RecordRun(op, elapsed, err)
	if err != nil {
		e.log.Warn().Err(err).Str("op", op).Int("samples", n).Dur("elapsed", elapsed).Msg("stream aborted")
		return
	}
	e.log.Info().Str("op", op).Int("samples", n).Dur("elapsed", elapsed).Msg("stream done")
}
