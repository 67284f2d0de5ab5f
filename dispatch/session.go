package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreman2200/funtimes-echobox/audio"
	"github.com/rs/zerolog"
)

type Action int

const (
	None Action = iota
	Capture
	Play
	Echo
)

var actionNames = [...]string{"none", "capture", "play", "echo"}

func (a Action) String() string {
	if a < None || a > Echo {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Streamer is the part of audio.Engine a Session drives.
type Streamer interface {
	Capture(ctx context.Context, buf []int16) error
	Playback(ctx context.Context, buf []int16, echo bool) error
}

// Status is a snapshot of what a Session has done so far.
type Status struct {
	Runs     map[Action]int
	Failures int
	Last     Action
	LastErr  error
	Level    *audio.LevelReport // of the last successful capture
}

// Session owns the sample buffer shared by capture and playback. Playing
// before anything was captured sends the zeroed buffer.
type Session struct {
	mu       sync.Mutex
	engine   Streamer
	buf      []int16
	log      zerolog.Logger
	runs     map[Action]int
	failures int
	last     Action
	lastErr  error
	level    *audio.LevelReport
}

func NewSession(e Streamer, samples int, logger zerolog.Logger) (*Session, error) {
	if err := audio.ValidateLength(samples); err != nil {
		return nil, err
	}
	return &Session{
		engine: e,
		buf:    make([]int16, samples),
		log:    logger,
		runs:   make(map[Action]int),
	}, nil
}

// Run performs a, blocking until the stream ends or ctx is done.
func (s *Session) Run(ctx context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch a {
	case None:
		return nil
	case Capture:
		err = s.engine.Capture(ctx, s.buf)
		if err == nil {
			lv := audio.Level(s.buf)
			s.level = &lv
			s.log.Info().
				Float64("peak_db", lv.PeakDB).
				Float64("rms_db", lv.RMSDB).
				Float64("dc", lv.DC).
				Int("clipped", lv.Clipped).
				Msg("captured")
		}
	case Play:
		err = s.engine.Playback(ctx, s.buf, false)
	case Echo:
		err = s.engine.Playback(ctx, s.buf, true)
	default:
		return fmt.Errorf("dispatch: unknown %s", a)
	}

	s.runs[a]++
	s.last, s.lastErr = a, err
	if err != nil {
		s.failures++
		s.log.Error().Err(err).Stringer("action", a).Msg("run failed")
	}
	return err
}

// Len is the buffer length in samples.
func (s *Session) Len() int {
	return len(s.buf)
}

// Samples returns a copy of the buffer.
func (s *Session) Samples() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int16, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := make(map[Action]int, len(s.runs))
	for k, v := range s.runs {
		runs[k] = v
	}
	return Status{
		Runs:     runs,
		Failures: s.failures,
		Last:     s.last,
		LastErr:  s.lastErr,
		Level:    s.level,
	}
}
