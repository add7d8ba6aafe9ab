package main

// Linux input event types and codes (from <linux/input-event-codes.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	// The Predator key on Acer Helios/Nitro keyboards reports as a
	// miscellaneous absolute axis rather than a key code.
	ABS_MISC = 0x28
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
)

// Device discovery defaults
const (
	defaultGuessPath    = "/dev/input/event9"
	defaultNameContains = "ACER USB-HID Gaming Keyboard"
	defaultEnumerator   = enumeratorEvdev
)

// Dispatch defaults
const (
	defaultPrimaryCommand = "notify-send 'Hello' 'Linux!'"
	defaultDebounceMS     = 300

	eventQueueSize = 64 // Buffered events between the reader and the dispatcher
)
