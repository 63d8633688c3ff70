package transport

import (
	"context"
	"sort"
	"time"

	"go.bug.st/serial/enumerator"

	"mpboard/internal/errors"
	"mpboard/internal/retry"
)

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Name    string // e.g. "/dev/ttyUSB0", "COM3"
	IsUSB   bool
	VID     string
	PID     string
	Serial  string // USB serial number, when the adapter reports one
	Product string
}

// Matcher decides whether a USB device with the given vendor/product
// ID is a candidate board.
type Matcher func(vid, pid string) bool

// getPortsList is a seam for tests; enumeration needs real hardware.
var getPortsList = enumerator.GetDetailedPortsList

// ListPorts enumerates every serial port on the system with its USB
// metadata, sorted by name.
func ListPorts() ([]PortInfo, error) {
	details, err := getPortsList()
	if err != nil {
		return nil, err
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:    d.Name,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Discover returns the USB serial ports accepted by match, sorted by
// name.  Non-USB ports (on-board UARTs, virtual consoles) are never
// candidates.
func Discover(match Matcher) ([]PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	var out []PortInfo
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if match == nil || match(p.VID, p.PID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindDevice polls Discover until a candidate appears, retrying with
// backoff — boards enumerate a beat after they are plugged in.  With
// several candidates present the first (by port name) wins.
func FindDevice(ctx context.Context, match Matcher, attempts int, delay time.Duration) (PortInfo, error) {
	var found PortInfo
	err := retry.DiscoverBackoff(attempts, delay).Do(ctx, func(_ int) error {
		ports, err := Discover(match)
		if err != nil {
			// Enumeration failing outright is an OS problem, not a
			// slow board; retrying will not help.
			return retry.Permanent(err)
		}
		if len(ports) == 0 {
			return errors.ErrNoDevice
		}
		found = ports[0]
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrNoDevice) {
			return PortInfo{}, &errors.ConnectionError{Err: errors.ErrNoDevice}
		}
		return PortInfo{}, err
	}
	return found, nil
}
