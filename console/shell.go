// Package console is an interactive shell over a dispatch session and the
// progress display, for bench work without the buttons.
package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/coreman2200/funtimes-echobox/audio"
	"github.com/coreman2200/funtimes-echobox/dispatch"
	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/model"
	"github.com/rs/zerolog"
)

const (
	consoleKey = "$console"
	prompt     = "echobox > "
)

var ErrUsage = errors.New("usage")

// Console provides the ishell backed shell.
type Console struct {
	Shell *ishell.Shell

	session *dispatch.Session
	display *led.Recorder
	log     zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

var commands = []*ishell.Cmd{
	&CaptureCmd,
	&PlayCmd,
	&EchoCmd,
	&LEDCmd,
	&ClearCmd,
	&PatternCmd,
	&LevelCmd,
	&StatusCmd,
}

// New creates a console. display should be the recorder the session's
// engine shows progress on, so pattern can report the last vector.
func New(s *dispatch.Session, display *led.Recorder, logger zerolog.Logger) *Console {
	c := &Console{
		Shell:   ishell.New(),
		session: s,
		display: display,
		log:     logger,
	}
	c.Shell.Set(consoleKey, c)
	c.Shell.SetPrompt(prompt)
	c.Shell.Interrupt(func(ic *ishell.Context, count int, input string) {
		if c.Interrupt() {
			return
		}
		if count >= 2 {
			ic.Stop()
			return
		}
		ic.Println("Input Ctrl-c once more to exit")
	})
	for _, cmd := range commands {
		c.Shell.AddCmd(cmd)
	}
	return c
}

// From gets the Console from an ishell context.
func From(c *ishell.Context) *Console {
	return c.Get(consoleKey).(*Console)
}

// Run runs args as a single command, or the interactive shell without.
func (c *Console) Run(args ...string) error {
	if len(args) > 0 {
		return c.Shell.Process(args...)
	}
	c.Shell.Println("echobox console, type help")
	c.Shell.Run()
	return nil
}

// Interrupt cancels the running stream, if any.
func (c *Console) Interrupt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Stream runs a on the session. An optional duration argument bounds it.
// The shell does not read input while a command runs, so Ctrl-C arrives as
// SIGINT; it is trapped for the length of the stream and cancels it.
func (c *Console) Stream(a dispatch.Action, args []string) (string, error) {
	parent := context.Background()
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %s [timeout]: %v", ErrUsage, a, err)
		}
		var stop context.CancelFunc
		parent, stop = context.WithTimeout(parent, d)
		defer stop()
	}
	parent, stopTrap := signal.NotifyContext(parent, os.Interrupt)
	defer stopTrap()
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	c.log.Debug().Stringer("action", a).Strs("args", args).Msg("console stream")
	start := time.Now()
	if err := c.session.Run(ctx, a); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s done in %s", a, time.Since(start).Round(time.Millisecond)), nil
}

// SetLED lights one LED, all others off: led <index 0-7> <colour>.
func (c *Console) SetLED(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w: led <index 0-7> <colour>", ErrUsage)
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= model.SLOT_COUNT {
		return "", fmt.Errorf("%w: led index %q not in 0-7", ErrUsage, args[0])
	}
	col, ok := model.ParseColour(args[1])
	if !ok {
		return "", fmt.Errorf("%w: unknown colour %q", ErrUsage, args[1])
	}
	v := model.Single(i, col)
	if err := c.display.Show(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s", v, v.Encode()), nil
}

func (c *Console) Clear() (string, error) {
	var v model.ColorVector
	if err := c.display.Show(v); err != nil {
		return "", err
	}
	return v.Encode().String(), nil
}

// Pattern encodes the given colours, or the last vector shown.
func (c *Console) Pattern(args []string) (string, error) {
	if len(args) > model.SLOT_COUNT {
		return "", fmt.Errorf("%w: pattern [colour ...] (at most 8)", ErrUsage)
	}
	var v model.ColorVector
	if len(args) == 0 {
		v, _ = c.display.Last()
	}
	for i, a := range args {
		col, ok := model.ParseColour(a)
		if !ok {
			return "", fmt.Errorf("%w: unknown colour %q", ErrUsage, a)
		}
		v[i] = col
	}
	p := v.Encode()
	return fmt.Sprintf("%s %s %016b", v, p, uint16(p)), nil
}

func (c *Console) Level() string {
	lv := audio.Level(c.session.Samples())
	return fmt.Sprintf("peak %.1f dBFS, rms %.1f dBFS, dc %.4f, %d zero crossings, %d clipped",
		lv.PeakDB, lv.RMSDB, lv.DC, lv.ZeroCrossings, lv.Clipped)
}

func (c *Console) Status() string {
	st := c.session.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "buffer %d samples\n", c.session.Len())
	actions := make([]dispatch.Action, 0, len(st.Runs))
	for a := range st.Runs {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	for _, a := range actions {
		fmt.Fprintf(&b, "%s: %d runs\n", a, st.Runs[a])
	}
	fmt.Fprintf(&b, "failures: %d", st.Failures)
	if st.Last != dispatch.None {
		fmt.Fprintf(&b, "\nlast: %s", st.Last)
		if st.LastErr != nil {
			fmt.Fprintf(&b, " (%v)", st.LastErr)
		}
	}
	v, n := c.display.Last()
	fmt.Fprintf(&b, "\nleds: %s after %d frames", v, n)
	return b.String()
}

func reply(c *ishell.Context, out string, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

func streamCmd(name string, a dispatch.Action, help string) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			out, err := From(c).Stream(a, c.Args)
			reply(c, out, err)
		},
	}
}

var (
	// CaptureCmd records into the session buffer.
	CaptureCmd = streamCmd("capture", dispatch.Capture, "[timeout] record the buffer")

	// PlayCmd plays the buffer back.
	PlayCmd = streamCmd("play", dispatch.Play, "[timeout] play the buffer")

	// EchoCmd plays the buffer back with the echo mixed in.
	EchoCmd = streamCmd("echo", dispatch.Echo, "[timeout] play the buffer with echo")

	LEDCmd = ishell.Cmd{
		Name: "led",
		Help: "INDEX COLOUR light one led (off, red, green, orange)",
		Func: func(c *ishell.Context) {
			out, err := From(c).SetLED(c.Args)
			reply(c, out, err)
		},
	}

	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "turn all leds off",
		Func: func(c *ishell.Context) {
			out, err := From(c).Clear()
			reply(c, out, err)
		},
	}

	PatternCmd = ishell.Cmd{
		Name: "pattern",
		Help: "[COLOUR ...] shift pattern of the colours or of the leds",
		Func: func(c *ishell.Context) {
			out, err := From(c).Pattern(c.Args)
			reply(c, out, err)
		},
	}

	LevelCmd = ishell.Cmd{
		Name: "level",
		Help: "level of the buffer",
		Func: func(c *ishell.Context) {
			c.Println(From(c).Level())
		},
	}

	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "runs so far",
		Func: func(c *ishell.Context) {
			c.Println(From(c).Status())
		},
	}
)
