package cmd

import (
	"context"
	"strings"
	"testing"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), []string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			err := Execute(context.Background(), args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly
// without touching hardware.
func TestExecute_DryRun(t *testing.T) {
	tests := [][]string{
		{"-p", "COM9", "--dry-run", "ls"},
		{"-p", "COM9", "--dry-run", "run", "app.py"},
		{"-B", "esp32", "-f", "fw.bin", "--dry-run", "flash"},
		{"--dry-run", "ports"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--dry-run", "flash"}, "flashing geometry"},
		{[]string{"--dry-run", "teleport"}, "unknown action"},
		{[]string{"--dry-run", "run"}, "source file required"},
		{[]string{"--dry-run", "-b", "0", "repl"}, ""},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			err := Execute(context.Background(), tt.args)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_PortSpec verifies the port@baud suffix parses and a bad
// suffix is rejected.
func TestExecute_PortSpec(t *testing.T) {
	err := Execute(context.Background(), []string{"-p", "COM3@57600", "--dry-run", "repl"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Execute(context.Background(), []string{"-p", "COM3@fast", "--dry-run", "repl"})
	if err == nil || !strings.Contains(err.Error(), "port spec") {
		t.Fatalf("error = %v, want an invalid port spec error", err)
	}
}

// TestExecute_EnvPrecedence verifies environment defaults apply and
// flags override them.
func TestExecute_EnvPrecedence(t *testing.T) {
	t.Setenv("MPBOARD_BOARD", "esp32")

	// Env alone selects a flashable family.
	err := Execute(context.Background(), []string{"-f", "fw.bin", "--dry-run", "flash"})
	if err != nil {
		t.Fatalf("env default not applied: %v", err)
	}

	// An explicit flag beats the environment.
	err = Execute(context.Background(), []string{"-B", "micropython", "--dry-run", "flash"})
	if err == nil || !strings.Contains(err.Error(), "flashing geometry") {
		t.Fatalf("flag did not override env: %v", err)
	}
}
