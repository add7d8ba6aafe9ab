package main

import (
	"bytes"
	"encoding/binary"
	"fmt"

	evdev "github.com/holoplot/go-evdev"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

// decodeInputEvent parses one raw kernel event. reader is reset onto buf so
// callers can reuse a single bytes.Reader across reads.
func decodeInputEvent(reader *bytes.Reader, buf []byte) (inputEvent, error) {
	var ev inputEvent
	if len(buf) != inputEventSize {
		return ev, fmt.Errorf("short input event: got %d bytes, want %d", len(buf), inputEventSize)
	}
	reader.Reset(buf)
	if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
		return ev, err
	}
	return ev, nil
}

// isTrigger reports whether ev is a Predator key press.
func (ev inputEvent) isTrigger() bool {
	return ev.Type == EV_ABS && ev.Code == ABS_MISC && ev.Value == evValuePress
}

// names returns the symbolic type and code names, or "UNKNOWN".
func (ev inputEvent) names() (typeName, codeName string) {
	e := evdev.InputEvent{
		Type:  evdev.EvType(ev.Type),
		Code:  evdev.EvCode(ev.Code),
		Value: ev.Value,
	}
	typeName = e.TypeName()
	if typeName == "" {
		typeName = "UNKNOWN"
	}
	codeName = e.CodeName()
	if codeName == "" {
		codeName = "UNKNOWN"
	}
	return typeName, codeName
}
