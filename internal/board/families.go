package board

import "time"

// Module names built into MicroPython-class firmwares.  User files must
// not shadow these: a device-side "os.py" breaks every import after it.
var microPythonModules = []string{
	"analogio", "audiobusio", "audioio", "bitbangio", "builtins",
	"busio", "digitalio", "machine", "math", "multiterminal",
	"nvm", "os", "pulseio", "random", "storage", "sys",
	"time", "touchio", "usb_hid",
}

// USB serial adapters commonly soldered onto ESP dev boards.
var espAdapters = []USBID{
	{VID: "10C4", PID: "EA60"}, // Silicon Labs CP210x
	{VID: "1A86", PID: "7523"}, // WCH CH340
	{VID: "0403", PID: "6001"}, // FTDI FT232R
}

// Builtin returns a registry preloaded with the compiled-in families.
func Builtin() *Registry {
	r := &Registry{}

	// Generic MicroPython board: no USB filter, no settle delays,
	// plain exit sequence.  Interrupts are disabled because several
	// firmwares in this class lock up on an unexpected CTRL-C.
	r.Add(&Family{
		Name:            "micropython",
		DisplayName:     "MicroPython (generic)",
		SettleDelay:     0,
		ExitVariant:     ExitPlain,
		ForceInterrupt:  false,
		ReservedModules: microPythonModules,
	})

	r.Add(&Family{
		Name:            "esp8266",
		DisplayName:     "ESP8266",
		USBIDs:          espAdapters,
		SettleDelay:     10 * time.Millisecond,
		ExitVariant:     ExitCR,
		ForceInterrupt:  true,
		ReservedModules: microPythonModules,
		FirmwareURL:     "https://micropython.org/resources/firmware/esp8266-20230426-v1.20.0.bin",
		FlashBaud:       460800,
		FlashOffset:     0x0,
	})

	r.Add(&Family{
		Name:            "esp32",
		DisplayName:     "ESP32",
		USBIDs:          espAdapters,
		SettleDelay:     10 * time.Millisecond,
		ExitVariant:     ExitCR,
		ForceInterrupt:  true,
		ReservedModules: microPythonModules,
		FirmwareURL:     "https://micropython.org/resources/firmware/esp32-20230426-v1.20.0.bin",
		FlashBaud:       460800,
		// ESP32 bootloader lives at 0x0; application images start here.
		FlashOffset: 0x1000,
	})

	// Kano Pixel Kit: ESP32-based with an FTDI bridge on a custom
	// PID.  Its firmware takes the plain exit sequence without
	// settle delays, unlike the bare ESP boards.
	r.Add(&Family{
		Name:            "pixelkit",
		DisplayName:     "Kano Pixel Kit",
		USBIDs:          []USBID{{VID: "0403", PID: "6015"}},
		SettleDelay:     0,
		ExitVariant:     ExitPlain,
		ForceInterrupt:  true,
		ReservedModules: microPythonModules,
		FirmwareURL:     "https://releases.kano.me/pixelkit/micropython-pixelkit-v1.0.3.bin",
		FlashBaud:       921600,
		FlashOffset:     0x1000,
	})

	for _, name := range r.Names() {
		fam, _ := r.Lookup(name)
		fam.SettleDelayMS = int(fam.SettleDelay / time.Millisecond)
		fam.Normalize()
	}
	return r
}
