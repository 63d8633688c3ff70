// Package board describes the board families mpboard can talk to.
//
// Families sharing the raw-REPL protocol differ only in timing and
// capability details: how long the device needs to settle after a
// control byte, which exit sequence its firmware expects, whether
// keyboard interrupts work, and which module names the firmware
// reserves.  A single Family record captures all of that, so the
// protocol code stays free of per-board branches.
package board

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExitVariant selects the documented way out of raw-REPL mode.  Two
// sequences exist in the wild and neither is universally correct, so
// it is a per-family setting.
type ExitVariant string

const (
	// ExitPlain sends CTRL-D then CTRL-B.
	ExitPlain ExitVariant = "plain"
	// ExitCR sends CTRL-D, a carriage return, then CTRL-B.  Some
	// ESP-class firmwares drop the CTRL-B without the CR in between.
	ExitCR ExitVariant = "cr"
)

// USBID identifies a USB serial adapter by vendor/product ID, upper
// case hex without the 0x prefix (the form the port enumerator uses).
type USBID struct {
	VID string `yaml:"vid"`
	PID string `yaml:"pid"`
}

func (id USBID) String() string { return id.VID + ":" + id.PID }

// Family is the capability record for one class of boards.
type Family struct {
	Name        string `yaml:"name"`         // registry key, e.g. "esp32"
	DisplayName string `yaml:"display_name"` // human-readable

	// USBIDs filters device discovery.  Empty means any USB serial
	// port qualifies (the generic family).
	USBIDs []USBID `yaml:"usb_ids"`

	// SettleDelay is the pause after each control byte, letting the
	// device-side input handling catch up.  Omitting it drops bytes
	// on slower boards.
	SettleDelay time.Duration `yaml:"-"`

	// SettleDelayMS is the YAML-facing form of SettleDelay.
	SettleDelayMS int `yaml:"settle_delay_ms"`

	// ExitVariant selects the raw-REPL exit sequence.
	ExitVariant ExitVariant `yaml:"exit_variant"`

	// ForceInterrupt enables CTRL-C interrupts.  When false the
	// board firmware ignores (or chokes on) interrupts, and both
	// Interrupt and Stop become no-ops.
	ForceInterrupt bool `yaml:"force_interrupt"`

	// ReservedModules are firmware module names user files must not
	// shadow: storing "os.py" on the device would break imports.
	ReservedModules []string `yaml:"reserved_modules"`

	// Firmware flashing geometry.  A family with no FirmwareURL and
	// no local image supplied cannot flash.
	FirmwareURL string `yaml:"firmware_url"`
	FlashBaud   int    `yaml:"flash_baud"`
	FlashOffset uint32 `yaml:"flash_offset"`

	reserved map[string]bool // lazy lookup set for ReservedModules
}

// Matches reports whether a USB device with the given vendor/product
// ID belongs to this family.  Matching is case-insensitive and
// tolerates the "VID_xxxx" decorations some platforms add.
func (f *Family) Matches(vid, pid string) bool {
	if len(f.USBIDs) == 0 {
		return true
	}
	vid = strings.ToUpper(strings.TrimSpace(vid))
	pid = strings.ToUpper(strings.TrimSpace(pid))
	for _, id := range f.USBIDs {
		if strings.Contains(vid, id.VID) && strings.Contains(pid, id.PID) {
			return true
		}
	}
	return false
}

// IsReserved reports whether filename (with or without a .py
// extension) collides with a firmware module name.
func (f *Family) IsReserved(filename string) bool {
	if f.reserved == nil {
		f.reserved = make(map[string]bool, len(f.ReservedModules))
		for _, m := range f.ReservedModules {
			f.reserved[m] = true
		}
	}
	name := strings.TrimSuffix(filename, ".py")
	return f.reserved[name]
}

// CanFlash reports whether the family has enough flashing geometry to
// run the firmware pipeline at all.
func (f *Family) CanFlash() bool {
	return f.FlashBaud > 0
}

// ExitSequence returns the bytes that follow the execute byte
// (CTRL-D) when leaving raw-REPL mode.  The plain variant is a bare
// CTRL-B; ESP-class firmwares drop the CTRL-B unless a carriage
// return precedes it.  Bytes are written one at a time with
// SettleDelay between them.
func (f *Family) ExitSequence() []byte {
	if f.ExitVariant == ExitCR {
		return []byte{'\r', 0x02}
	}
	return []byte{0x02}
}

// Validate checks a family record for internal consistency.  It does
// not mutate; Normalize does.
func (f *Family) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("board family: name is required")
	}
	if f.SettleDelayMS < 0 {
		return fmt.Errorf("board family %q: settle_delay_ms must be >= 0", f.Name)
	}
	switch f.ExitVariant {
	case "", ExitPlain, ExitCR:
	default:
		return fmt.Errorf("board family %q: exit_variant must be %q or %q, got %q",
			f.Name, ExitPlain, ExitCR, f.ExitVariant)
	}
	for _, id := range f.USBIDs {
		if id.VID == "" || id.PID == "" {
			return fmt.Errorf("board family %q: usb_ids entries need both vid and pid", f.Name)
		}
	}
	if f.FirmwareURL != "" && f.FlashBaud <= 0 {
		return fmt.Errorf("board family %q: firmware_url set but flash_baud missing", f.Name)
	}
	return nil
}

// Normalize fills derived and defaulted fields after validation.
func (f *Family) Normalize() {
	if f.ExitVariant == "" {
		f.ExitVariant = ExitPlain
	}
	if f.DisplayName == "" {
		f.DisplayName = f.Name
	}
	f.SettleDelay = time.Duration(f.SettleDelayMS) * time.Millisecond
	for i, id := range f.USBIDs {
		f.USBIDs[i].VID = strings.ToUpper(strings.TrimSpace(id.VID))
		f.USBIDs[i].PID = strings.ToUpper(strings.TrimSpace(id.PID))
	}
}

// ── Registry ─────────────────────────────────────────────────────────

// Registry maps family names to records.  The zero value is empty;
// use Builtin for the compiled-in families.
type Registry struct {
	families map[string]*Family
}

// Add registers fam, replacing any existing family of the same name
// (custom definitions override built-ins on purpose).
func (r *Registry) Add(fam *Family) {
	if r.families == nil {
		r.families = make(map[string]*Family)
	}
	r.families[fam.Name] = fam
}

// Lookup returns the named family.
func (r *Registry) Lookup(name string) (*Family, error) {
	fam, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("unknown board family %q (known: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return fam, nil
}

// Names returns all registered family names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
