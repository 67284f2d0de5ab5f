package audio

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// FRAME_BYTES is one full-duplex exchange: two 16-bit slots, MSB first.
const FRAME_BYTES = 2 * SLOTS_PER_SAMPLE

// SPIChannel runs the sample channel over a full-duplex SPI connection. At
// most one frame is held in each direction. Asking for a receive slot when
// none is buffered exchanges a frame, sending any pending transmit slots
// padded with silence; a full transmit frame is exchanged when the next
// slot is requested.
//
// A transport error is latched and returned by the next ReceiveSample,
// TransmitSample or End; the ready calls keep reporting true so the engine
// gets there instead of spinning.
type SPIChannel struct {
	conn spi.Conn

	rx     [SLOTS_PER_SAMPLE]int16
	rxPos  int
	rxLen  int
	tx     [SLOTS_PER_SAMPLE]int16
	txLen  int
	err    error
	w, r   [FRAME_BYTES]byte
	frames int
}

func NewSPIChannel(c spi.Conn) *SPIChannel {
	return &SPIChannel{conn: c}
}

// OpenSPIChannel opens the named SPI port in mode 0 with 8-bit words. The
// port is returned so the caller can close it.
func OpenSPIChannel(name string, freq physic.Frequency) (*SPIChannel, spi.PortCloser, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: open spi %q: %w", name, err)
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("audio: connect spi %q: %w", name, err)
	}
	return NewSPIChannel(c), p, nil
}

func (c *SPIChannel) exchange() {
	for i := 0; i < SLOTS_PER_SAMPLE; i++ {
		var s int16
		if i < c.txLen {
			s = c.tx[i]
		}
		binary.BigEndian.PutUint16(c.w[2*i:], uint16(s))
	}
	c.txLen = 0
	c.rxPos, c.rxLen = 0, 0
	if err := c.conn.Tx(c.w[:], c.r[:]); err != nil {
		c.err = fmt.Errorf("audio: spi frame %d: %w", c.frames, err)
		return
	}
	c.frames++
	for i := range c.rx {
		c.rx[i] = int16(binary.BigEndian.Uint16(c.r[2*i:]))
	}
	c.rxLen = SLOTS_PER_SAMPLE
}

func (c *SPIChannel) takeErr() error {
	err := c.err
	c.err = nil
	return err
}

func (c *SPIChannel) ReceiveReady() bool {
	if c.err == nil && c.rxPos >= c.rxLen {
		c.exchange()
	}
	return true
}

func (c *SPIChannel) ReceiveSample() (int16, error) {
	if c.err == nil && c.rxPos >= c.rxLen {
		c.exchange()
	}
	if err := c.takeErr(); err != nil {
		return 0, err
	}
	s := c.rx[c.rxPos]
	c.rxPos++
	return s, nil
}

func (c *SPIChannel) TransmitReady() bool {
	if c.err == nil && c.txLen == SLOTS_PER_SAMPLE {
		c.exchange()
	}
	return true
}

func (c *SPIChannel) TransmitSample(s int16) error {
	if c.err == nil && c.txLen == SLOTS_PER_SAMPLE {
		c.exchange()
	}
	if err := c.takeErr(); err != nil {
		return err
	}
	c.tx[c.txLen] = s
	c.txLen++
	return nil
}

// Begin drops any slots and error left by an earlier stream.
func (c *SPIChannel) Begin() {
	c.rxPos, c.rxLen = 0, 0
	c.txLen = 0
	c.err = nil
}

// End sends a partly filled transmit frame and returns the latched error,
// including one from the final exchange.
func (c *SPIChannel) End() error {
	if c.err == nil && c.txLen > 0 {
		c.exchange()
	}
	return c.takeErr()
}

// Frames is the number of frames exchanged successfully.
func (c *SPIChannel) Frames() int {
	return c.frames
}
