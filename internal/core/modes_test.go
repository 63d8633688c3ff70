package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/errors"
	"mpboard/internal/events"
	"mpboard/internal/metrics"
	"mpboard/internal/transport"
	"mpboard/util"
)

// ── Helpers ──────────────────────────────────────────────────────────

func testConfig(action string, args ...string) *config.Config {
	return &config.Config{
		Action:    action,
		Args:      args,
		Port:      "COM3",
		Baud:      config.DefaultBaud,
		Timeout:   config.DefaultReadTimeout,
		Board:     config.DefaultBoard,
		FlashTool: config.DefaultFlashTool,
	}
}

func family(t *testing.T, name string) *board.Family {
	t.Helper()
	fam, err := board.Builtin().Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return fam
}

// stubDevice reroutes port opening to dev and returns a counter of
// open calls.  Discovery is stubbed to fail; set cfg.Port explicitly
// or stub findDevice separately.
func stubDevice(t *testing.T, dev Device) *int {
	t.Helper()
	opens := new(int)
	origOpen, origFind := openPort, findDevice
	openPort = func(name string, st transport.Settings) (Device, error) {
		*opens++
		return dev, nil
	}
	t.Cleanup(func() { openPort, findDevice = origOpen, origFind })
	return opens
}

// ── RunMode ──────────────────────────────────────────────────────────

func TestRunMode_WireSequence(t *testing.T) {
	dev := newFakeDevice("COM3")
	stubDevice(t, dev)
	ui := &recordingUI{source: []byte("print(1+1)")}

	m := &RunMode{Config: testConfig("run", "app.py"), Family: family(t, "micropython"),
		Source: ui, UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "\x01print(1+1)\x04\x02"
	if got := string(dev.written()); got != want {
		t.Errorf("wire bytes = %q, want %q", got, want)
	}
	if dev.flushes != 1 {
		t.Errorf("stale input flushed %d times, want 1", dev.flushes)
	}
	if dev.closes == 0 {
		t.Error("device left open")
	}
}

func TestRunMode_StopsRunningCodeFirst(t *testing.T) {
	// Interrupt-capable boards get the stop sequence before the new
	// program, so a running loop cannot swallow the raw-mode bytes.
	dev := newFakeDevice("COM3")
	stubDevice(t, dev)
	ui := &recordingUI{source: []byte("print(1)")}

	m := &RunMode{Config: testConfig("run", "app.py"), Family: family(t, "pixelkit"),
		Source: ui, UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "\r\x03\x03\x02" + "\x01print(1)\x04\x02"
	if got := string(dev.written()); got != want {
		t.Errorf("wire bytes = %q, want %q", got, want)
	}
}

func TestRunMode_SourceErrorSkipsDevice(t *testing.T) {
	opens := stubDevice(t, newFakeDevice("COM3"))
	ui := &recordingUI{srcErr: errors.New("no such file")}

	m := &RunMode{Config: testConfig("run", "app.py"), Family: family(t, "micropython"),
		Source: ui, UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err == nil {
		t.Fatal("expected source error")
	}
	if *opens != 0 {
		t.Errorf("device opened %d times for an unreadable source, want 0", *opens)
	}
}

func TestRunMode_DiscoversPort(t *testing.T) {
	dev := newFakeDevice("/dev/ttyUSB7")
	stubDevice(t, dev)

	var openedName string
	openPort = func(name string, st transport.Settings) (Device, error) {
		openedName = name
		return dev, nil
	}
	findDevice = func(ctx context.Context, match transport.Matcher, attempts int, delay time.Duration) (transport.PortInfo, error) {
		return transport.PortInfo{Name: "/dev/ttyUSB7", IsUSB: true}, nil
	}

	ui := &recordingUI{source: []byte("pass")}
	cfg := testConfig("run", "app.py")
	cfg.Port = "" // force discovery

	m := &RunMode{Config: cfg, Family: family(t, "micropython"),
		Source: ui, UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if openedName != "/dev/ttyUSB7" {
		t.Errorf("opened %q, want the discovered port", openedName)
	}
}

// ── StopMode ─────────────────────────────────────────────────────────

func TestStopMode(t *testing.T) {
	dev := newFakeDevice("COM3")
	stubDevice(t, dev)

	m := &StopMode{Config: testConfig("stop"), Family: family(t, "pixelkit"),
		UI: &recordingUI{}, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := string(dev.written()), "\r\x03\x03\x02"; got != want {
		t.Errorf("wire bytes = %q, want %q", got, want)
	}
}

func TestStopMode_InterruptDisabled(t *testing.T) {
	dev := newFakeDevice("COM3")
	stubDevice(t, dev)

	m := &StopMode{Config: testConfig("stop"), Family: family(t, "micropython"),
		UI: &recordingUI{}, Logger: util.NewLogger(0), Collector: metrics.New()}
	err := m.Run(context.Background())
	if !errors.Is(err, errors.ErrInterruptDisabled) {
		t.Fatalf("Run = %v, want ErrInterruptDisabled", err)
	}
	if len(dev.written()) != 0 {
		t.Errorf("bytes reached a board with interrupts disabled: %q", dev.written())
	}
}

// ── ReplMode ─────────────────────────────────────────────────────────

func TestReplMode_Console(t *testing.T) {
	dev := newFakeDevice("COM3")
	dev.pending.WriteString("MicroPython v1.20 on ESP32\r\n>>> ")
	stubDevice(t, dev)

	var out bytes.Buffer
	restores := 0
	m := &ReplMode{Config: testConfig("repl"), Family: family(t, "micropython"),
		UI: &recordingUI{}, Logger: util.NewLogger(0), Collector: metrics.New(),
		Stdin:  strings.NewReader("print(2)\r\x1dnever sent"),
		Stdout: &out,
		MakeRaw: func() (func(), error) {
			return func() { restores++ }, nil
		},
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Prompt coaxing first, then the typed bytes up to (not including)
	// the quit byte.
	if got, want := string(dev.written()), "\x02\rprint(2)\r"; got != want {
		t.Errorf("device received %q, want %q", got, want)
	}
	if !strings.Contains(out.String(), "MicroPython v1.20") {
		t.Errorf("terminal output %q missing the device banner", out.String())
	}
	if restores != 1 {
		t.Errorf("terminal restored %d times, want 1", restores)
	}
	if dev.closes == 0 {
		t.Error("device left open after console exit")
	}
}

// ── FilesMode ────────────────────────────────────────────────────────

func TestFilesMode_FailuresBecomeEvents(t *testing.T) {
	// A silent device fails every exchange; the mode still completes,
	// converting each failure into an event in request order.
	dev := newFakeDevice("COM3")
	stubDevice(t, dev)
	ui := &recordingUI{}

	m := &FilesMode{Config: testConfig("get", "app.py"), Family: family(t, "micropython"),
		Op: OpGet, Name: "app.py",
		UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	evs := ui.all()
	if len(evs) != 2 {
		t.Fatalf("got %d events %v, want startup listing + get failure", len(evs), evs)
	}
	if evs[0].Kind != events.FileListFailed {
		t.Errorf("first event = %v, want file-list-failed", evs[0].Kind)
	}
	if evs[1].Kind != events.FileFetchFailed || evs[1].Name != "app.py" {
		t.Errorf("second event = %v (%q), want file-fetch-failed for app.py", evs[1].Kind, evs[1].Name)
	}
	if evs[1].Err == nil {
		t.Error("failure event carries no cause")
	}
	if dev.closes == 0 {
		t.Error("device left open")
	}
}

// ── FlashMode ────────────────────────────────────────────────────────

func TestFlashMode_DeclinedConfirmation(t *testing.T) {
	ui := &recordingUI{answer: false}
	m := &FlashMode{Config: testConfig("flash"), Family: family(t, "esp32"),
		UI: ui, Logger: util.NewLogger(0), Collector: metrics.New()}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run after declined confirmation = %v, want nil", err)
	}
	if len(ui.prompts) != 1 || !strings.Contains(ui.prompts[0], "COM3") {
		t.Fatalf("prompts = %q, want one naming the port", ui.prompts)
	}
	if len(ui.all()) != 0 {
		t.Errorf("declined flash emitted events: %v", ui.all())
	}
}
