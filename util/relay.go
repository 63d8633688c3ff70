package util

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Relay shuffles bytes between an open serial device and a terminal
// reader/writer pair (typically raw-mode stdin/stdout) until the quit
// byte appears on the input, the device side fails, or the context is
// cancelled.  Bytes preceding the quit byte are still delivered to
// the device.
//
// Relay closes dev on the way out to unblock its own pending device
// read; callers treat the device as closed afterwards.  A read
// blocked on the terminal cannot be interrupted, so that goroutine is
// abandoned on cancellation — it exits on the next keystroke.
func Relay(ctx context.Context, dev io.ReadWriteCloser, in io.Reader, out io.Writer, quit byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	// device → terminal
	var devSide sync.WaitGroup
	devSide.Add(1)
	go func() {
		defer devSide.Done()
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(out, dev, *buf)
		errCh <- err
		cancel()
	}()

	// terminal → device, watching for the quit byte
	go func() {
		buf := GetBuf()
		defer PutBuf(buf)
		for {
			n, err := in.Read(*buf)
			if n > 0 {
				chunk := (*buf)[:n]
				sawQuit := false
				for i, b := range chunk {
					if b == quit {
						chunk = chunk[:i]
						sawQuit = true
						break
					}
				}
				if len(chunk) > 0 {
					if _, werr := dev.Write(chunk); werr != nil {
						errCh <- werr
						cancel()
						return
					}
				}
				if sawQuit {
					errCh <- nil
					cancel()
					return
				}
			}
			if err != nil {
				errCh <- err
				cancel()
				return
			}
		}
	}()

	<-ctx.Done()
	dev.Close() // unblock the pending device read
	devSide.Wait()

	for {
		select {
		case err := <-errCh:
			if err != nil && !isHarmless(err) {
				return err
			}
		default:
			return nil
		}
	}
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// go.bug.st reports reads on a closed port with a typed error.
	var pe *serial.PortError
	if errors.As(err, &pe) {
		return pe.Code() == serial.PortClosed
	}
	return false
}
