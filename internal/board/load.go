package board

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// boardsFile is the on-disk shape of a custom family definition file:
//
//	families:
//	  - name: myboard
//	    display_name: My Board
//	    usb_ids:
//	      - {vid: "10C4", pid: "EA60"}
//	    settle_delay_ms: 10
//	    exit_variant: cr
//	    force_interrupt: true
//	    firmware_url: https://example.com/fw-v1.bin
//	    flash_baud: 460800
//	    flash_offset: 4096
type boardsFile struct {
	Families []*Family `yaml:"families"`
}

// LoadFile reads custom family definitions from path and registers
// them, overriding built-ins of the same name.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read boards file: %w", err)
	}
	if err := Merge(r, data); err != nil {
		return fmt.Errorf("boards file %s: %w", path, err)
	}
	return nil
}

// Merge parses YAML family definitions and adds them to the registry.
// Each family is validated, then normalized, before registration; a
// bad entry rejects the whole document.
func Merge(r *Registry, data []byte) error {
	var f boardsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	for _, fam := range f.Families {
		if err := fam.Validate(); err != nil {
			return err
		}
	}
	for _, fam := range f.Families {
		fam.Normalize()
		r.Add(fam)
	}
	return nil
}
