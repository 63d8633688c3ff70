package flash

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"mpboard/internal/errors"
)

// DefaultTool is the flashing tool resolved on PATH when the user
// does not name one.
const DefaultTool = "esptool.py"

// runner abstracts external tool execution so tests can script tool
// output and exit status without an esptool installed.
type runner interface {
	Run(ctx context.Context, out io.Writer, name string, args ...string) error
}

// execRunner runs real processes.  stdout and stderr share the
// writer: the tool splits its chatter across both, and the frontend
// wants one stream.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, out io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// eraseArgs builds the invocation that wipes the board's storage.
func eraseArgs(port string, baud int) []string {
	return []string{"--port", port, "--baud", fmt.Sprint(baud), "erase_flash"}
}

// writeArgs builds the invocation that writes image at the family's
// flash offset.
func writeArgs(port string, baud int, offset uint32, image string) []string {
	return []string{
		"--port", port, "--baud", fmt.Sprint(baud),
		"write_flash", "--flash_mode", "dio",
		fmt.Sprintf("%#x", offset), image,
	}
}

// classify wraps a tool error for one pipeline stage.  A nonzero exit
// means the tool ran and reported failure; anything else (missing
// binary, crash, kill) is a ToolFailure, still wrapped so the stage
// stays visible to the frontend.
func classify(tool string, err error, stage func(error) *errors.FlashError) error {
	if err == nil {
		return nil
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return stage(err)
	}
	return stage(&errors.ToolFailure{Tool: tool, Err: err})
}
