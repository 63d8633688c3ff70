package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mpboard/internal/board"
	"mpboard/internal/transport"
	"mpboard/util"
)

// PortsMode lists serial ports with their USB identity and the board
// families that claim them.
type PortsMode struct {
	Registry *board.Registry
	Logger   *util.Logger

	// Out defaults to os.Stdout.  Override in tests.
	Out io.Writer

	// List defaults to transport.ListPorts.  Override in tests;
	// enumeration needs real hardware.
	List func() ([]transport.PortInfo, error)
}

func (m *PortsMode) out() io.Writer {
	if m.Out != nil {
		return m.Out
	}
	return os.Stdout
}

func (m *PortsMode) list() ([]transport.PortInfo, error) {
	if m.List != nil {
		return m.List()
	}
	return transport.ListPorts()
}

// Run enumerates and prints one line per port.  Non-USB UARTs are
// listed too; they just carry no identity and match no family.
func (m *PortsMode) Run(ctx context.Context) error {
	ports, err := m.list()
	if err != nil {
		return fmt.Errorf("enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(m.out(), "no serial ports found")
		return nil
	}

	for _, p := range ports {
		line := p.Name
		if p.IsUSB {
			line += fmt.Sprintf("  [%s:%s]", p.VID, p.PID)
			if p.Product != "" {
				line += "  " + p.Product
			}
			if fams := m.claimants(p); len(fams) > 0 {
				line += fmt.Sprintf("  (families: %s)", strings.Join(fams, ", "))
			}
		}
		fmt.Fprintln(m.out(), line)
		m.Logger.Debug("port %s usb=%v serial=%q", p.Name, p.IsUSB, p.Serial)
	}
	return nil
}

// claimants returns the families whose USB ID list matches p.  The
// generic family matches everything and is skipped; listing it on
// every port says nothing.
func (m *PortsMode) claimants(p transport.PortInfo) []string {
	var out []string
	for _, name := range m.Registry.Names() {
		fam, err := m.Registry.Lookup(name)
		if err != nil || len(fam.USBIDs) == 0 {
			continue
		}
		if fam.Matches(p.VID, p.PID) {
			out = append(out, name)
		}
	}
	return out
}
