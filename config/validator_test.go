package config

import (
	"strings"
	"testing"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantSub string // substring expected in error
	}{
		{
			name:    "zero baud has hint",
			cfg:     Config{Timeout: DefaultReadTimeout, Board: "esp32", FlashTool: DefaultFlashTool},
			wantSub: "hint:",
		},
		{
			name:    "missing board names the flag",
			cfg:     Config{Baud: DefaultBaud, Timeout: DefaultReadTimeout, FlashTool: DefaultFlashTool},
			wantSub: "--board",
		},
		{
			name:    "zero timeout suggests -w",
			cfg:     Config{Baud: DefaultBaud, Board: "esp32", FlashTool: DefaultFlashTool},
			wantSub: "-w",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestParsePortSpec_Fuzz covers edge-case port specs.
func TestParsePortSpec_Fuzz(t *testing.T) {
	edgeCases := []string{
		"COM1", "COM255", "/dev/ttyS0", "/dev/cu.usbserial-0001",
		"@", "@@", "a@b@c", "COM3@", "COM3@abc", "COM3@-1",
	}
	for _, s := range edgeCases {
		t.Run(s, func(t *testing.T) {
			port, baud, err := ParsePortSpec(s)
			if err == nil {
				// Valid result: check invariants.
				if port == "" {
					t.Error("valid spec produced empty port")
				}
				if baud < 0 {
					t.Errorf("negative baud %d", baud)
				}
			}
			// Invalid specs just return errors, which is fine.
		})
	}
}
