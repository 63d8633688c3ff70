// Package repl implements the raw-mode remote execution protocol
// spoken by MicroPython-class firmwares.
//
// Raw mode turns the interactive prompt into a batch target: CTRL-A
// switches the interpreter to raw mode, the whole program is written
// as one buffer, CTRL-D executes it, and an exit sequence returns the
// board to the friendly prompt.  Control-byte timing and the exit
// sequence differ per board family, so a Session takes its parameters
// from a board.Family record instead of hard-coding any one firmware's
// expectations.
package repl

import (
	"fmt"
	"time"

	"mpboard/internal/board"
	"mpboard/internal/errors"
	"mpboard/internal/metrics"
	"mpboard/internal/transport"
	"mpboard/util"
)

// Control bytes of the raw-mode protocol.
const (
	ctrlA = 0x01 // enter raw mode
	ctrlB = 0x02 // back to the friendly prompt
	ctrlC = 0x03 // keyboard interrupt
	ctrlD = 0x04 // execute the buffered code
)

// State identifies where a session is in the raw-mode cycle.
type State int

const (
	Idle State = iota
	Entering
	Ready
	Executing
	Exiting
)

var stateNames = [...]string{"idle", "entering", "ready", "executing", "exiting"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session drives one serial channel through raw-mode execution.  It
// is not safe for concurrent use: the channel's single owner makes
// all calls.  Program bytes reach the wire only from the Ready state,
// and any failed step resets the session to Idle so the next attempt
// starts clean.
type Session struct {
	ch        transport.Channel
	family    *board.Family
	log       *util.Logger
	collector *metrics.Collector

	state State
	sleep func(time.Duration)
}

// New wraps ch in a raw-mode session parameterized by the board
// family.  The collector may be nil.
func New(ch transport.Channel, fam *board.Family, logger *util.Logger, m *metrics.Collector) *Session {
	return &Session{
		ch:        ch,
		family:    fam,
		log:       logger,
		collector: m,
		sleep:     time.Sleep,
	}
}

// State returns the current protocol state.
func (s *Session) State() State { return s.state }

// Run executes code on the board: enter raw mode, send the buffer,
// execute, exit.  The steps are strictly sequential and nothing else
// may write to the channel until Run returns.  A failure at any step
// comes back as a RunError naming the step.
//
// Success is write-only: raw mode does not acknowledge, so Run never
// reads from the channel.
func (s *Session) Run(code []byte) error {
	if err := checkASCII(code); err != nil {
		return err
	}
	s.log.Verbose("running %d bytes on %s", len(code), s.ch.Port())
	if err := s.EnterRaw(); err != nil {
		return s.fail("enter-raw", err)
	}
	if err := s.Send(code); err != nil {
		return s.fail("send", err)
	}
	if err := s.Execute(); err != nil {
		return s.fail("execute", err)
	}
	if err := s.ExitRaw(); err != nil {
		return s.fail("exit-raw", err)
	}
	s.collector.RunCompleted()
	return nil
}

func (s *Session) fail(step string, err error) error {
	s.state = Idle
	s.log.Debug("run failed at %s: %v", step, err)
	return &errors.RunError{Step: step, Err: err}
}

// EnterRaw switches the interpreter to raw mode with CTRL-A, then
// waits the family's settle delay.  The delay is load-bearing on
// slower boards: without it the prompt handler drops the bytes that
// follow.
func (s *Session) EnterRaw() error {
	if s.state != Idle {
		return fmt.Errorf("enter raw mode: session is %s, want %s", s.state, Idle)
	}
	s.state = Entering
	if _, err := s.ch.Write([]byte{ctrlA}); err != nil {
		s.state = Idle
		return err
	}
	s.settle()
	s.state = Ready
	return nil
}

// Send writes the whole program buffer as a single write.  The caller
// guarantees the buffer fits the device's input buffer; the raw-mode
// path has no flow control.
func (s *Session) Send(code []byte) error {
	if err := checkASCII(code); err != nil {
		return err
	}
	if s.state != Ready {
		return fmt.Errorf("send: session is %s, want %s", s.state, Ready)
	}
	if _, err := s.ch.Write(code); err != nil {
		s.state = Idle
		return err
	}
	return nil
}

// Execute triggers the buffered code with CTRL-D, then settles.
func (s *Session) Execute() error {
	if s.state != Ready {
		return fmt.Errorf("execute: session is %s, want %s", s.state, Ready)
	}
	s.state = Executing
	if _, err := s.ch.Write([]byte{ctrlD}); err != nil {
		s.state = Idle
		return err
	}
	s.settle()
	return nil
}

// ExitRaw returns the board to the friendly prompt.  The byte
// sequence is the family's, written one byte per write with the
// settle delay after each.
func (s *Session) ExitRaw() error {
	if s.state != Ready && s.state != Executing {
		return fmt.Errorf("exit raw mode: session is %s", s.state)
	}
	s.state = Exiting
	for _, b := range s.family.ExitSequence() {
		if _, err := s.ch.Write([]byte{b}); err != nil {
			s.state = Idle
			return err
		}
		s.settle()
	}
	s.state = Idle
	return nil
}

// Interrupt asks the board to abort running user code with a single
// CTRL-C, whatever state the session is in.  Families with interrupts
// disabled get nothing on the wire and ErrInterruptDisabled back, so
// the caller can tell the user instead of silently doing nothing.
func (s *Session) Interrupt() error {
	if !s.family.ForceInterrupt {
		return errors.ErrInterruptDisabled
	}
	if _, err := s.ch.Write([]byte{ctrlC}); err != nil {
		return err
	}
	s.collector.InterruptSent()
	return nil
}

// Stop interrupts whatever the board is doing and drops it back to
// the friendly prompt: a carriage return plus a double CTRL-C, then
// CTRL-B.  Unlike Interrupt it also clears a stuck raw-mode session.
// Honors the same interrupt capability flag.
func (s *Session) Stop() error {
	if !s.family.ForceInterrupt {
		return errors.ErrInterruptDisabled
	}
	if _, err := s.ch.Write([]byte{'\r', ctrlC, ctrlC}); err != nil {
		s.state = Idle
		return err
	}
	s.settle()
	if _, err := s.ch.Write([]byte{ctrlB}); err != nil {
		s.state = Idle
		return err
	}
	s.settle()
	s.state = Idle
	s.collector.InterruptSent()
	return nil
}

func (s *Session) settle() {
	if d := s.family.SettleDelay; d > 0 {
		s.sleep(d)
	}
}

// checkASCII rejects buffers the device-side decoder would corrupt.
// The first offending byte is reported before anything is written.
func checkASCII(code []byte) error {
	for i, b := range code {
		if b > 0x7f {
			return &errors.EncodingError{Offset: i, Byte: b}
		}
	}
	return nil
}
