package board

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestFamily_Matches(t *testing.T) {
	esp := &Family{USBIDs: []USBID{{VID: "10C4", PID: "EA60"}, {VID: "1A86", PID: "7523"}}}
	generic := &Family{}

	tests := []struct {
		name string
		fam  *Family
		vid  string
		pid  string
		want bool
	}{
		{"exact match", esp, "10C4", "EA60", true},
		{"second entry", esp, "1A86", "7523", true},
		{"lower case", esp, "10c4", "ea60", true},
		{"platform decorated", esp, "USB VID_10C4", "PID_EA60", true},
		{"wrong pid", esp, "10C4", "7523", false},
		{"unknown device", esp, "DEAD", "BEEF", false},
		{"generic matches anything", generic, "DEAD", "BEEF", true},
		{"generic matches empty", generic, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fam.Matches(tt.vid, tt.pid); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.vid, tt.pid, got, tt.want)
			}
		})
	}
}

func TestFamily_IsReserved(t *testing.T) {
	fam := &Family{ReservedModules: []string{"os", "machine", "time"}}

	tests := []struct {
		filename string
		want     bool
	}{
		{"os.py", true},
		{"os", true},
		{"machine.py", true},
		{"main.py", false},
		{"osmosis.py", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := fam.IsReserved(tt.filename); got != tt.want {
				t.Errorf("IsReserved(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFamily_ExitSequence(t *testing.T) {
	plain := &Family{ExitVariant: ExitPlain}
	cr := &Family{ExitVariant: ExitCR}

	if got := plain.ExitSequence(); !reflect.DeepEqual(got, []byte{0x02}) {
		t.Errorf("plain exit = %v, want [0x02]", got)
	}
	if got := cr.ExitSequence(); !reflect.DeepEqual(got, []byte{'\r', 0x02}) {
		t.Errorf("cr exit = %v, want [0x0d 0x02]", got)
	}
	// Unset variant behaves as plain.
	if got := (&Family{}).ExitSequence(); !reflect.DeepEqual(got, []byte{0x02}) {
		t.Errorf("zero-value exit = %v, want [0x02]", got)
	}
}

func TestFamily_Validate(t *testing.T) {
	tests := []struct {
		name    string
		fam     Family
		wantErr string
	}{
		{
			name: "valid minimal",
			fam:  Family{Name: "custom"},
		},
		{
			name:    "missing name",
			fam:     Family{},
			wantErr: "name is required",
		},
		{
			name:    "negative settle",
			fam:     Family{Name: "x", SettleDelayMS: -1},
			wantErr: "settle_delay_ms",
		},
		{
			name:    "bad exit variant",
			fam:     Family{Name: "x", ExitVariant: "fancy"},
			wantErr: "exit_variant",
		},
		{
			name:    "usb id missing pid",
			fam:     Family{Name: "x", USBIDs: []USBID{{VID: "10C4"}}},
			wantErr: "usb_ids",
		},
		{
			name:    "firmware url without baud",
			fam:     Family{Name: "x", FirmwareURL: "https://example.com/fw.bin"},
			wantErr: "flash_baud",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fam.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestFamily_Normalize(t *testing.T) {
	fam := &Family{
		Name:          "custom",
		SettleDelayMS: 25,
		USBIDs:        []USBID{{VID: " 10c4 ", PID: "ea60"}},
	}
	fam.Normalize()

	if fam.ExitVariant != ExitPlain {
		t.Errorf("ExitVariant = %q, want %q", fam.ExitVariant, ExitPlain)
	}
	if fam.DisplayName != "custom" {
		t.Errorf("DisplayName = %q, want name fallback", fam.DisplayName)
	}
	if fam.SettleDelay != 25*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 25ms", fam.SettleDelay)
	}
	if fam.USBIDs[0].VID != "10C4" || fam.USBIDs[0].PID != "EA60" {
		t.Errorf("USBIDs not upper-cased/trimmed: %+v", fam.USBIDs[0])
	}
}

func TestBuiltin(t *testing.T) {
	r := Builtin()

	want := []string{"esp32", "esp8266", "micropython", "pixelkit"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	t.Run("generic has no interrupts", func(t *testing.T) {
		fam, err := r.Lookup("micropython")
		if err != nil {
			t.Fatal(err)
		}
		if fam.ForceInterrupt {
			t.Error("micropython family should have interrupts disabled")
		}
		if fam.SettleDelay != 0 {
			t.Errorf("SettleDelay = %v, want 0", fam.SettleDelay)
		}
		if fam.CanFlash() {
			t.Error("generic family should not be flashable")
		}
		if !fam.IsReserved("machine.py") {
			t.Error("machine.py should be reserved")
		}
	})

	t.Run("esp32 flash geometry", func(t *testing.T) {
		fam, err := r.Lookup("esp32")
		if err != nil {
			t.Fatal(err)
		}
		if !fam.CanFlash() {
			t.Fatal("esp32 should be flashable")
		}
		if fam.FlashOffset != 0x1000 {
			t.Errorf("FlashOffset = %#x, want 0x1000", fam.FlashOffset)
		}
		if fam.SettleDelay != 10*time.Millisecond {
			t.Errorf("SettleDelay = %v, want 10ms", fam.SettleDelay)
		}
	})

	t.Run("pixelkit usb id", func(t *testing.T) {
		fam, err := r.Lookup("pixelkit")
		if err != nil {
			t.Fatal(err)
		}
		if !fam.Matches("0403", "6015") {
			t.Error("pixelkit should match 0403:6015")
		}
		if fam.Matches("10C4", "EA60") {
			t.Error("pixelkit should not match a CP210x")
		}
		// Flashable like the ESP boards, but speaks the plain
		// no-delay protocol of the generic family.
		if !fam.CanFlash() {
			t.Error("pixelkit should be flashable")
		}
		if fam.ExitVariant != ExitPlain || fam.SettleDelay != 0 {
			t.Errorf("pixelkit protocol = %s/%v, want plain/0",
				fam.ExitVariant, fam.SettleDelay)
		}
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := r.Lookup("nope")
		if err == nil {
			t.Fatal("Lookup(nope) should fail")
		}
		if !strings.Contains(err.Error(), "micropython") {
			t.Errorf("error should list known families, got %q", err)
		}
	})
}

func TestMerge(t *testing.T) {
	doc := `
families:
  - name: myboard
    display_name: My Board
    usb_ids:
      - {vid: "10c4", pid: "ea60"}
    settle_delay_ms: 15
    exit_variant: cr
    force_interrupt: true
    firmware_url: https://example.com/fw-v2.bin
    flash_baud: 115200
    flash_offset: 4096
  - name: micropython
    display_name: Overridden
`
	r := Builtin()
	if err := Merge(r, []byte(doc)); err != nil {
		t.Fatalf("Merge() = %v", err)
	}

	fam, err := r.Lookup("myboard")
	if err != nil {
		t.Fatal(err)
	}
	if fam.SettleDelay != 15*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 15ms", fam.SettleDelay)
	}
	if fam.ExitVariant != ExitCR {
		t.Errorf("ExitVariant = %q, want cr", fam.ExitVariant)
	}
	if fam.FlashOffset != 0x1000 {
		t.Errorf("FlashOffset = %#x, want 0x1000", fam.FlashOffset)
	}
	if !fam.Matches("10C4", "EA60") {
		t.Error("usb id should be normalized to upper case")
	}

	over, err := r.Lookup("micropython")
	if err != nil {
		t.Fatal(err)
	}
	if over.DisplayName != "Overridden" {
		t.Errorf("built-in not overridden: DisplayName = %q", over.DisplayName)
	}
}

func TestMerge_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", ":\t this is not yaml"},
		{"missing name", "families:\n  - display_name: anon\n"},
		{"bad variant", "families:\n  - name: x\n    exit_variant: zigzag\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Builtin()
			if err := Merge(r, []byte(tt.doc)); err == nil {
				t.Error("Merge() should fail")
			}
			// Registry must be untouched on failure.
			if _, err := r.Lookup("x"); err == nil && tt.name != "not yaml" {
				t.Error("partial registration after failed merge")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boards.yaml")
	doc := "families:\n  - name: filetest\n    settle_delay_ms: 5\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r := Builtin()
	if err := LoadFile(r, path); err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}
	if _, err := r.Lookup("filetest"); err != nil {
		t.Errorf("family from file not registered: %v", err)
	}

	if err := LoadFile(r, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
}
