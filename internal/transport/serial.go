package transport

import (
	"sync"
	"time"

	"go.bug.st/serial"

	"mpboard/internal/errors"
	"mpboard/internal/metrics"
)

// Conn is an open serial connection to a board.  It implements
// [Channel] and io.Reader (raw passthrough for the console relay).
//
// A Conn is owned by exactly one session at a time; ownership
// arbitration happens above this layer.
type Conn struct {
	name    string
	baud    int
	timeout time.Duration
	port    serial.Port

	closeOnce sync.Once
	closed    chan struct{}

	collector *metrics.Collector // nil-safe
}

// Open opens the named serial port with 8N1 framing and the given
// settings.  Failures are reported as ConnectionError, with port-busy
// detection for the classic "close the Arduino IDE first" case.
func Open(name string, st Settings) (*Conn, error) {
	mode := &serial.Mode{
		BaudRate: st.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.WrapConn(name, err)
	}
	timeout := st.ReadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, errors.WrapConn(name, err)
	}
	return newConn(name, st.Baud, timeout, p, st.Collector), nil
}

func newConn(name string, baud int, timeout time.Duration, p serial.Port, m *metrics.Collector) *Conn {
	m.ConnectionOpened()
	return &Conn{
		name:      name,
		baud:      baud,
		timeout:   timeout,
		port:      p,
		closed:    make(chan struct{}),
		collector: m,
	}
}

// Port returns the port name, e.g. "/dev/ttyUSB0".
func (c *Conn) Port() string { return c.name }

// Baud returns the line speed the port was opened with.
func (c *Conn) Baud() int { return c.baud }

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Write sends p to the device.
func (c *Conn) Write(p []byte) (int, error) {
	if c.IsClosed() {
		return 0, errors.WrapIO("write", c.name, errors.ErrNotConnected)
	}
	n, err := c.port.Write(p)
	c.collector.BytesSent(int64(n))
	if err != nil {
		return n, errors.WrapIO("write", c.name, err)
	}
	return n, nil
}

// Read implements io.Reader for the console relay.  A timeout expiry
// surfaces as (0, nil), which copy loops treat as "try again".
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	c.collector.BytesReceived(int64(n))
	return n, err
}

// ReadByte returns the next byte from the device, waiting at most the
// configured read timeout.
func (c *Conn) ReadByte() (byte, error) {
	if c.IsClosed() {
		return 0, errors.WrapIO("read", c.name, errors.ErrNotConnected)
	}
	var b [1]byte
	n, err := c.port.Read(b[:])
	if err != nil {
		return 0, errors.WrapIO("read", c.name, err)
	}
	if n == 0 {
		// go.bug.st signals an expired read timeout as (0, nil).
		return 0, errors.WrapIO("read", c.name, errors.ErrTimeout)
	}
	c.collector.BytesReceived(1)
	return b[0], nil
}

// ReadLine accumulates bytes until LF, bounded by one read-timeout
// window overall.  The trailing LF (and a CR before it) is stripped.
func (c *Conn) ReadLine() ([]byte, error) {
	if c.IsClosed() {
		return nil, errors.WrapIO("read-line", c.name, errors.ErrNotConnected)
	}
	deadline := time.Now().Add(c.timeout)
	var line []byte
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		if err != nil {
			return line, errors.WrapIO("read-line", c.name, err)
		}
		if n == 0 {
			break
		}
		c.collector.BytesReceived(1)
		if buf[0] == '\n' {
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return line, nil
		}
		line = append(line, buf[0])
	}
	return line, errors.WrapIO("read-line", c.name, errors.ErrTimeout)
}

// FlushInput discards any unread device output.
func (c *Conn) FlushInput() error {
	if c.IsClosed() {
		return nil
	}
	if err := c.port.ResetInputBuffer(); err != nil {
		return errors.WrapIO("flush", c.name, err)
	}
	return nil
}

// Close releases the port.  Idempotent; a second call returns nil.
// Closing unblocks a pending Read.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.port.Close()
		c.collector.ConnectionClosed()
	})
	return err
}
