// Package files implements the remote filesystem operations: list,
// get, put, and delete against the board's flat on-device storage.
//
// There is no dedicated filesystem protocol on these boards.  Each
// operation is a raw-mode exchange: a short MicroPython snippet goes
// out through the repl session, and the snippet's printed output comes
// back framed by the interpreter.  After the execute byte the device
// answers "OK", streams the snippet's stdout, terminates it with
// CTRL-D, streams any traceback, and terminates that with CTRL-D as
// well.  File payloads travel hex-encoded (ubinascii on the device
// side) so binary content survives the text channel.
package files

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mpboard/internal/board"
	"mpboard/internal/errors"
	"mpboard/internal/metrics"
	"mpboard/internal/repl"
	"mpboard/internal/transport"
	"mpboard/util"
)

// eot terminates each output stream of a raw-mode exchange.
const eot = 0x04

// Client performs remote filesystem operations over one channel.  It
// owns the channel for the duration of each call; operations are
// synchronous and must not overlap (the Manager serializes them).
type Client struct {
	ch        transport.Channel
	sess      *repl.Session
	family    *board.Family
	log       *util.Logger
	collector *metrics.Collector
}

// NewClient builds a filesystem client on ch for the given family.
func NewClient(ch transport.Channel, fam *board.Family, logger *util.Logger, m *metrics.Collector) *Client {
	return &Client{
		ch:        ch,
		sess:      repl.New(ch, fam, logger, m),
		family:    fam,
		log:       logger,
		collector: m,
	}
}

// List returns the device's filenames in the order the firmware
// reports them.
func (c *Client) List() ([]string, error) {
	resp, err := c.exec("import os; print('\\n'.join(os.listdir()))")
	if err != nil {
		return nil, errors.ListError(err)
	}
	if len(resp.err) > 0 {
		return nil, errors.ListError(remoteError(resp.err))
	}
	names := parseLines(resp.out)
	c.log.Verbose("device lists %d files", len(names))
	c.collector.FileOpCompleted()
	return names, nil
}

// Get copies the named remote file to localDest (defaulting to the
// remote name in the current directory) and returns the remote name.
func (c *Client) Get(name, localDest string) (string, error) {
	snippet := fmt.Sprintf(
		"import ubinascii; f = open(%s, 'rb'); print(ubinascii.hexlify(f.read()).decode()); f.close()",
		pyQuote(name))
	resp, err := c.exec(snippet)
	if err != nil {
		return "", errors.GetError(name, err)
	}
	if len(resp.err) > 0 {
		return "", errors.GetError(name, remoteError(resp.err))
	}
	data, err := hex.DecodeString(strings.TrimSpace(string(resp.out)))
	if err != nil {
		return "", errors.GetError(name, fmt.Errorf("transfer corrupted: %w", err))
	}
	if localDest == "" {
		localDest = name
	}
	if err := os.WriteFile(localDest, data, 0o644); err != nil {
		return "", errors.GetError(name, err)
	}
	c.log.Verbose("fetched %s (%d bytes) to %s", name, len(data), localDest)
	c.collector.FileOpCompleted()
	return name, nil
}

// Put stores localSrc on the device under its basename and returns
// the remote name.  Names that shadow firmware modules are refused
// before anything reaches the device.
//
// The whole payload goes out as one exchange, so the practical size
// limit is the device's raw-mode input buffer; there is no flow
// control on this path.
func (c *Client) Put(localSrc string) (string, error) {
	name := filepath.Base(localSrc)
	if c.family.IsReserved(name) {
		return "", errors.PutError(localSrc,
			fmt.Errorf("%q shadows a module built into the firmware; pick another filename", name))
	}
	data, err := os.ReadFile(localSrc)
	if err != nil {
		return "", errors.PutError(localSrc, err)
	}
	snippet := fmt.Sprintf(
		"import ubinascii; f = open(%s, 'wb'); f.write(ubinascii.unhexlify(%s)); f.close()",
		pyQuote(name), pyQuote(hex.EncodeToString(data)))
	resp, err := c.exec(snippet)
	if err != nil {
		return "", errors.PutError(localSrc, err)
	}
	if len(resp.err) > 0 {
		return "", errors.PutError(localSrc, remoteError(resp.err))
	}
	c.log.Verbose("stored %s as %s (%d bytes)", localSrc, name, len(data))
	c.collector.FileOpCompleted()
	return name, nil
}

// Delete removes the named remote file and returns its name.
func (c *Client) Delete(name string) (string, error) {
	resp, err := c.exec(fmt.Sprintf("import os; os.remove(%s)", pyQuote(name)))
	if err != nil {
		return "", errors.DeleteError(name, err)
	}
	if len(resp.err) > 0 {
		return "", errors.DeleteError(name, remoteError(resp.err))
	}
	c.log.Verbose("deleted %s", name)
	c.collector.FileOpCompleted()
	return name, nil
}

// response is the framed result of one raw-mode exchange.
type response struct {
	out []byte // snippet stdout
	err []byte // device-side traceback, empty on success
}

// exec runs one snippet through a full raw-mode exchange.  The
// session is returned to the friendly prompt whatever happens, so a
// failed exchange does not poison the next one.
func (c *Client) exec(snippet string) (*response, error) {
	if err := c.ch.FlushInput(); err != nil {
		return nil, err
	}
	if err := c.sess.EnterRaw(); err != nil {
		return nil, err
	}
	resp, err := c.exchange(snippet)
	if exitErr := c.sess.ExitRaw(); err == nil && exitErr != nil {
		err = exitErr
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) exchange(snippet string) (*response, error) {
	// The raw-mode banner arrived after CTRL-A; drop it so the
	// response parse starts clean.
	if err := c.ch.FlushInput(); err != nil {
		return nil, err
	}
	if err := c.sess.Send([]byte(snippet)); err != nil {
		return nil, err
	}
	if err := c.sess.Execute(); err != nil {
		return nil, err
	}
	if err := c.waitOK(); err != nil {
		return nil, err
	}
	out, err := c.readUntilEOT()
	if err != nil {
		return nil, err
	}
	remote, err := c.readUntilEOT()
	if err != nil {
		return nil, err
	}
	return &response{out: out, err: remote}, nil
}

// waitOK consumes bytes until the interpreter's "OK" acknowledgement,
// tolerating any banner residue the flush raced with.
func (c *Client) waitOK() error {
	var prev byte
	for {
		b, err := c.ch.ReadByte()
		if err != nil {
			return fmt.Errorf("waiting for acknowledgement: %w", err)
		}
		if prev == 'O' && b == 'K' {
			return nil
		}
		prev = b
	}
}

func (c *Client) readUntilEOT() ([]byte, error) {
	var buf []byte
	for {
		b, err := c.ch.ReadByte()
		if err != nil {
			return buf, err
		}
		if b == eot {
			return buf, nil
		}
		buf = append(buf, b)
	}
}

// pyQuote renders s as a single-quoted MicroPython string literal.
func pyQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// parseLines splits device output into lines, dropping CRs and
// blanks.  Order is preserved.
func parseLines(out []byte) []string {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

// remoteError condenses a device traceback to its final line, the one
// naming the exception.
func remoteError(trace []byte) error {
	lines := parseLines(trace)
	if len(lines) == 0 {
		return errors.New("device reported an error")
	}
	return fmt.Errorf("device: %s", strings.TrimSpace(lines[len(lines)-1]))
}
