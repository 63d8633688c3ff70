package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"mpboard/config"
	"mpboard/internal/errors"
	"mpboard/internal/events"
	"mpboard/util"
)

// terminal is the interactive frontend: it renders worker events and
// answers the core's questions about local input.  Notify arrives on
// the controller's delivery goroutine while Confirm and SourceText run
// on the mode's, so the shared progress state is mutex-guarded.
type terminal struct {
	cfg *config.Config
	log *util.Logger

	in   io.Reader // confirmation answers; default os.Stdin
	out  io.Writer // listings and progress; default os.Stdout
	errw io.Writer // failure lines; default os.Stderr

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	barStage string
	failure  error
}

func newTerminal(cfg *config.Config, logger *util.Logger) *terminal {
	return &terminal{cfg: cfg, log: logger, in: os.Stdin, out: os.Stdout, errw: os.Stderr}
}

// Err returns the first failure an event reported, so the CLI can exit
// nonzero even though the mode itself completed.
func (t *terminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

func (t *terminal) fail(e events.Event, format string, args ...interface{}) {
	if t.failure == nil {
		t.failure = e.Err
		if t.failure == nil {
			t.failure = errors.New(e.Msg)
		}
	}
	fmt.Fprintf(t.errw, format+"\n", args...)
}

// Notify renders one worker event.
func (t *terminal) Notify(e events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case events.FileListed:
		if len(e.Names) == 0 {
			fmt.Fprintln(t.out, "no files on the device")
			return
		}
		fmt.Fprintln(t.out, "files on the device:")
		for _, n := range e.Names {
			fmt.Fprintf(t.out, "  %s\n", n)
		}
	case events.FileFetched:
		fmt.Fprintf(t.out, "copied %s from the device\n", e.Name)
	case events.FileStored:
		fmt.Fprintf(t.out, "copied %s to the device\n", e.Name)
	case events.FileDeleted:
		fmt.Fprintf(t.out, "deleted %s\n", e.Name)

	case events.FileListFailed:
		t.fail(e, "could not list files: %v", e.Err)
	case events.FileFetchFailed:
		t.fail(e, "could not get %s: %v", e.Name, e.Err)
	case events.FileStoreFailed:
		t.fail(e, "could not put %s: %v", e.Name, e.Err)
	case events.FileDeleteFailed:
		t.fail(e, "could not delete %s: %v", e.Name, e.Err)

	case events.FlashStarted:
		fmt.Fprintln(t.out, e.Msg)
	case events.FlashProgress:
		t.progress(e)
	case events.FlashSucceeded:
		t.closeBar()
		fmt.Fprintln(t.out, e.Msg)
	case events.FlashFailed:
		t.closeBar()
		t.fail(e, "%s", e.Msg)
	}
}

// progress draws byte counts as a bar and passes tool output lines
// through as text.  A stage change replaces the previous bar.
func (t *terminal) progress(e events.Event) {
	if e.Msg != "" {
		t.closeBar()
		fmt.Fprintf(t.out, "  %s\n", e.Msg)
		return
	}
	if t.bar == nil || t.barStage != e.Stage {
		t.closeBar()
		total := e.Total
		if total <= 0 {
			total = -1 // unknown length renders as a spinner
		}
		t.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(e.Stage),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		t.barStage = e.Stage
	}
	_ = t.bar.Set64(e.Bytes)
}

func (t *terminal) closeBar() {
	if t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	fmt.Fprintln(t.out)
	t.bar = nil
	t.barStage = ""
}

// Confirm prints the prompt and reads one line.  --yes answers every
// prompt without asking; EOF on a pipe counts as a decline, matching
// the [y/N] default.
func (t *terminal) Confirm(prompt string) bool {
	if t.cfg.Yes {
		return true
	}
	fmt.Fprint(t.out, prompt)
	line, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// SourceText loads the program for the run action: the named file, or
// stdin when the operand is "-".
func (t *terminal) SourceText() ([]byte, error) {
	name := t.cfg.Args[0]
	if name == "-" {
		data, err := io.ReadAll(t.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return data, nil
}
